package handlers

import (
	"MedOffice/apperrors"
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// decodeStrict decodes the body into dest and rejects unknown fields.
func decodeStrict(c *gin.Context, dest interface{}) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "failed to read request body", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

// bindJSON decodes a body leniently, as gin does.
func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "invalid request body", err)
	}
	return nil
}

func invalid(message string, err error) error {
	return apperrors.New(apperrors.CodeInvalidArgument, message, err)
}

// asOfQuery reads an RFC3339 timestamp or a date; missing means now.
func asOfQuery(c *gin.Context, now time.Time) (time.Time, error) {
	raw := c.Query("as_of")
	if raw == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, invalid("as_of must be RFC3339 or YYYY-MM-DD", err)
	}
	return t, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, invalid(key+" must be a non negative integer", err)
	}
	return n, nil
}
