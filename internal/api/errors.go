package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/locker"
)

// statusFor maps session and portal errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, locker.ErrAuthentication):
		return http.StatusUnauthorized
	case stderrors.Is(err, locker.ErrNoSession), stderrors.Is(err, locker.ErrInvalidDependent):
		return http.StatusNotFound
	case stderrors.Is(err, locker.ErrUploadInProgress), stderrors.Is(err, locker.ErrNotReady):
		return http.StatusConflict
	case stderrors.Is(err, locker.ErrNotEditable):
		return http.StatusBadRequest
	}

	std, ok := errors.AsStandard(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch std.Code {
	case errors.ErrCodeFormatError:
		return http.StatusBadRequest
	case errors.ErrCodeRecordLocked:
		return http.StatusLocked
	case errors.ErrCodeAuthentication:
		return http.StatusUnauthorized
	case errors.ErrCodeRecordNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	if std.Retryable {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *HTTPEndpoints) abortWithError(c *gin.Context, err error) {
	code := statusFor(err)
	body := gin.H{"error": err.Error()}
	if std, ok := errors.AsStandard(err); ok {
		body["code"] = std.Code
		body["error"] = std.Message
		if std.Details != "" {
			body["details"] = std.Details
		}
		body["retryable"] = std.Retryable
	}
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
	}
	c.AbortWithStatusJSON(code, body)
}
