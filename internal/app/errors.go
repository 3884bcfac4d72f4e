package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"holiday-booking/internal/booking"
	"holiday-booking/internal/conflict"
	"holiday-booking/internal/dates"
	"holiday-booking/internal/grouping"
	"holiday-booking/internal/pricing"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, pricing.ErrPhaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, grouping.ErrInvalidGroup),
		errors.Is(err, conflict.ErrInvalidKey),
		errors.Is(err, pricing.ErrInvalidPhase),
		errors.Is(err, pricing.ErrInvalidSettings),
		errors.Is(err, dates.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and their text is not exposed.
func (a *App) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger().Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondValidation writes a failed validation as 422.
func respondValidation(c *gin.Context, v pricing.Validation) {
	c.JSON(http.StatusUnprocessableEntity, bookingResp{Validation: &v})
}
