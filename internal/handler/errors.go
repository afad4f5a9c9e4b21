package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/service"
)

// respondError maps a service error to its HTTP status. Storage failures
// and unknown errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": publicMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrStorage):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrOrderAccessDenied),
		errors.Is(err, service.ErrCartEntryForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// publicMessage drops the kind prefix that wrapped errors carry.
func publicMessage(err error) string {
	msg := err.Error()
	for _, kind := range []error{service.ErrValidation, service.ErrConflict, service.ErrAuth} {
		msg = strings.TrimPrefix(msg, kind.Error()+": ")
	}
	return msg
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
