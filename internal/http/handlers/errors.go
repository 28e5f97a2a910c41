package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquadic/souq4u/domain"
)

// statusFor maps service errors onto the storefront's HTTP contract
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrVerificationPending):
		return http.StatusConflict, "Phone not verified yet"
	case errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "Unauthenticated."
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, "Account is inactive"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrVerificationNotFound):
		return http.StatusNotFound, "Verification not found"
	case errors.Is(err, domain.ErrOTPResendLimit):
		return http.StatusTooManyRequests, "Please wait before requesting another code"
	case errors.Is(err, domain.ErrOTPMaxAttempts):
		return http.StatusTooManyRequests, "Maximum attempts exceeded"
	default:
		return http.StatusInternalServerError, "Server Error"
	}
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	if errors.Is(err, domain.ErrOTPInvalid) {
		writeValidation(c, "The given data was invalid.", map[string][]string{"code": {"The code is invalid."}})
		return
	}
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"message": msg})
}

func writeValidation(c *gin.Context, msg string, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"message": msg, "errors": fields})
}
