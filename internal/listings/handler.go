package listings

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/gateway"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Create(c *gin.Context) {
	var body struct {
		CertificateID int64     `json:"certificate_id"`
		UnitPrice     int64     `json:"unit_price"`
		Quantity      int64     `json:"quantity"`
		ExpiresAt     time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.Create(gateway.Identity(c), body.CertificateID, body.UnitPrice, body.Quantity, body.ExpiresAt)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing_id": id})
}

func (h *Handler) Buy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Quantity int64  `json:"quantity"`
		Asset    string `json:"asset"`
		Payment  int64  `json:"payment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Buy(gateway.Identity(c), id, body.Quantity, body.Asset, body.Payment); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(gateway.Identity(c), id); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		UnitPrice int64 `json:"unit_price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdatePrice(gateway.Identity(c), id, body.UnitPrice); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	listing, err := h.service.Get(id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
