// Package httperr maps service errors onto HTTP responses
package httperr

import (
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Status returns the status code for err. Anything unknown is a 500
func Status(err error) int {
	var v *service.ValidationError

	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrFileNotFound),
		errors.Is(err, service.ErrFileGone),
		errors.Is(err, storage.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrLimitReached):
		return http.StatusGone
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGlobalCapacityExceeded):
		return http.StatusInsufficientStorage
	}

	return http.StatusInternalServerError
}

// Abort writes the error body for err. Internal errors are logged with msg
// and never shown to the client
func Abort(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")
	status := Status(err)

	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
		return
	}

	body := gin.H{
		"error":     err.Error(),
		"requestID": requestID,
	}

	var v *service.ValidationError
	if errors.As(err, &v) {
		body["field"] = v.Field
	}

	c.AbortWithStatusJSON(status, body)
}
