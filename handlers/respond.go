package handlers

import (
	"net/http"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to the HTTP status clients see.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyExists:
		return http.StatusConflict
	case apperr.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apperr.OK(data))
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, apperr.Fail(err))
}

// badRequest reports a malformed request body or parameter.
func badRequest(c *gin.Context, msg string) {
	fail(c, apperr.Validation(apperr.CodeInvalidFormat, msg))
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg, "data": nil})
}

// caller returns the authenticated email or writes a 401.
func caller(c *gin.Context) (string, bool) {
	email := middleware.CurrentEmail(c)
	if email == "" {
		unauthorized(c, "token has no email claim")
		return "", false
	}
	return email, true
}
