package handlers

import (
	"errors"
	"net/http"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBonusAlreadyClaimed),
		errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrNotSubscribed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the {"error": ...} envelope. Internal faults surface
// their raw message.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("action failed",
			"action", c.Query("action"), "error", err)
	}

	msg := err.Error()
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Msg
	}
	c.JSON(status, gin.H{"error": msg})
}
