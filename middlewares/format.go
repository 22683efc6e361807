package middlewares

import (
	"MedOffice/apperrors"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response to the client.
func RespondJSON(c *gin.Context, data interface{}, status int) {
	c.JSON(status, data)
}

// HttpError maps err onto a status and writes {"error", "code"}.
// Internal errors are logged and answered with the generic message.
func HttpError(c *gin.Context, log *zap.Logger, message string, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.ToHTTPStatus(code)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		log.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// BadRequest answers 400 for malformed input that never reached a service.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": apperrors.CodeInvalidArgument})
}
