package platform

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/gateway"
	"carbonmark/marketplace-backend/internal/treasury"
)

type Handler struct {
	config   *Config
	treasury *treasury.Book
	logger   *zap.Logger
}

func NewHandler(config *Config, book *treasury.Book, logger *zap.Logger) *Handler {
	return &Handler{config: config, treasury: book, logger: logger}
}

func (h *Handler) SetFee(c *gin.Context) {
	var body struct {
		FeeBps int64 `json:"fee_bps"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.config.SetFee(gateway.Identity(c), body.FeeBps); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetFeeRecipient(c *gin.Context) {
	var body struct {
		Recipient string `json:"recipient"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.config.SetFeeRecipient(gateway.Identity(c), body.Recipient); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetSupportedAsset(c *gin.Context) {
	var body struct {
		Asset     string `json:"asset"`
		Supported bool   `json:"supported"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.config.SetSupportedAsset(gateway.Identity(c), body.Asset, body.Supported); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Pause(c *gin.Context) {
	if err := h.config.Pause(gateway.Identity(c)); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Unpause(c *gin.Context) {
	if err := h.config.Unpause(gateway.Identity(c)); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Deposit(c *gin.Context) {
	var body struct {
		Identity string `json:"identity"`
		Asset    string `json:"asset"`
		Amount   int64  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.treasury.Deposit(gateway.Identity(c), body.Identity, body.Asset, body.Amount); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fee_bps":       h.config.FeeBps(),
		"fee_recipient": h.config.FeeRecipient(),
		"paused":        h.config.Paused(),
	})
}

func (h *Handler) Balance(c *gin.Context) {
	identity := c.Param("identity")
	asset := c.Query("asset")
	c.JSON(http.StatusOK, gin.H{
		"identity": identity,
		"asset":    asset,
		"balance":  h.treasury.Balance(identity, asset),
	})
}
