package auctions

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
		CertificateID   int64 `json:"certificate_id"`
		Quantity        int64 `json:"quantity"`
		StartingPrice   int64 `json:"starting_price"`
		DurationSeconds int64 `json:"duration_seconds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.Create(gateway.Identity(c), body.CertificateID, body.Quantity, body.StartingPrice,
		time.Duration(body.DurationSeconds)*time.Second)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"auction_id": id})
}

func (h *Handler) Bid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Amount int64  `json:"amount"`
		Asset  string `json:"asset"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Bid(gateway.Identity(c), id, body.Amount, body.Asset); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) End(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.End(gateway.Identity(c), id); err != nil {
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

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	auction, err := h.service.Get(id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, auction)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
