package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("payment %s not found", "p-1")
	wrapped := Wrap(base, "load payment")

	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "payment p-1 not found")
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), "save payment")
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestCodeOfThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("invoiced"))
	assert.True(t, IsConflict(err))
	assert.False(t, IsInvalidArgument(err))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeInvalidArgument))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus("whatever"))
}

func TestIsTransient(t *testing.T) {
	held := New(CodeConflict, "record payment:p-1 is being modified", fmt.Errorf("lock is held: %w", ErrTransient))
	assert.True(t, IsConflict(held))
	assert.True(t, IsTransient(held))
	assert.True(t, IsTransient(Wrap(held, "cash payment")))

	assert.False(t, IsTransient(Conflict("payment p-1 cannot move from Paid to Pending")))
	assert.False(t, IsTransient(New(CodeInternal, "boom", ErrTransient)))
}
