package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carbonmark/marketplace-backend/internal/core"
)

var statusByError = []struct {
	err    error
	status int
}{
	{core.ErrNotFound, http.StatusNotFound},

	{core.ErrNotIssuer, http.StatusForbidden},
	{core.ErrNotHolder, http.StatusForbidden},
	{core.ErrNotOwner, http.StatusForbidden},

	{core.ErrInvalidRecipient, http.StatusBadRequest},
	{core.ErrInvalidAmount, http.StatusBadRequest},
	{core.ErrInvalidField, http.StatusBadRequest},
	{core.ErrInvalidPrice, http.StatusBadRequest},
	{core.ErrInvalidQuantity, http.StatusBadRequest},
	{core.ErrInvalidExpiry, http.StatusBadRequest},
	{core.ErrInvalidDuration, http.StatusBadRequest},
	{core.ErrFeeTooHigh, http.StatusBadRequest},

	{core.ErrPaused, http.StatusServiceUnavailable},
	{core.ErrReentrantCall, http.StatusConflict},
	{core.ErrStalePrice, http.StatusServiceUnavailable},
}

// StatusFor maps a settlement error to an HTTP status. Authorization errors
// become 403, validation 400, unknown-entity 404; every remaining state or
// settlement failure is a 409 so callers can tell "wrong state, maybe later"
// from "never valid".
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusConflict
}

// WriteError renders an error response with the mapped status.
func WriteError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"error": err.Error()})
}
