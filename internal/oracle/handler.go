package oracle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carbonmark/marketplace-backend/internal/gateway"
)

type Handler struct {
	converter *Converter
}

func NewHandler(converter *Converter) *Handler {
	return &Handler{converter: converter}
}

// Convert prices an amount of one asset in another. Auxiliary helper only;
// settlement never uses converted values.
func (h *Handler) Convert(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	base := c.Query("from")
	quote := c.Query("to")
	if base == "" || quote == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to assets are required"})
		return
	}
	converted, err := h.converter.Convert(c.Request.Context(), amount, base, quote)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":    amount,
		"from":      base,
		"to":        quote,
		"converted": converted,
	})
}

// RegisterRoutes registers pricing helper routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/pricing/convert", handler.Convert)
}
