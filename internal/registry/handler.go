package registry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/gateway"
	"carbonmark/marketplace-backend/internal/retirement"
)

type Handler struct {
	service    *Service
	retirement *retirement.Generator
	logger     *zap.Logger
}

func NewHandler(service *Service, gen *retirement.Generator, logger *zap.Logger) *Handler {
	return &Handler{service: service, retirement: gen, logger: logger}
}

type issueBody struct {
	Recipient        string     `json:"recipient"`
	Amount           int64      `json:"amount"`
	ProjectType      string     `json:"project_type"`
	Location         string     `json:"location"`
	Methodology      string     `json:"methodology"`
	VerificationBody string     `json:"verification_body"`
	ExpiresAt        *time.Time `json:"expires_at"`
	MetadataRef      string     `json:"metadata_ref"`
}

func (h *Handler) Issue(c *gin.Context) {
	var body issueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.Issue(IssueRequest{
		Issuer:           gateway.Identity(c),
		Recipient:        body.Recipient,
		Amount:           body.Amount,
		ProjectType:      body.ProjectType,
		Location:         body.Location,
		Methodology:      body.Methodology,
		VerificationBody: body.VerificationBody,
		ExpiresAt:        body.ExpiresAt,
		MetadataRef:      body.MetadataRef,
	})
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"certificate_id": id})
}

func (h *Handler) Verify(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Verified bool `json:"verified"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Verify(gateway.Identity(c), id, body.Verified); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetTransferable(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Transferable bool `json:"transferable"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetTransferable(gateway.Identity(c), id, body.Transferable); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetApproval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Operator string `json:"operator"`
		Approved bool   `json:"approved"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetApproval(gateway.Identity(c), id, body.Operator, body.Approved); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Transfer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		To string `json:"to"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := gateway.Identity(c)
	if err := h.service.Transfer(id, caller, body.To, caller); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Burn(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Purpose string `json:"purpose"`
	}
	_ = c.ShouldBindJSON(&body)
	caller := gateway.Identity(c)
	retired, err := h.service.Burn(caller, id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	// The retirement document is best effort: the burn has already settled.
	ref, err := h.retirement.Generate(c.Request.Context(), retirement.FromBurn(retirement.BurnSnapshot{
		ID:          retired.ID,
		Holder:      retired.Holder,
		Amount:      retired.Amount,
		ProjectType: retired.ProjectType,
		Methodology: retired.Methodology,
		Location:    retired.Location,
	}, h.service.ledger.Now(), body.Purpose))
	if err != nil {
		h.logger.Error("retirement certificate generation failed",
			zap.Int64("certificate_id", id), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"certificate_id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificate_id": id, "retirement_ref": ref})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cert, err := h.service.Get(id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (h *Handler) IsExpired(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	expired, err := h.service.IsExpired(id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificate_id": id, "expired": expired})
}

func (h *Handler) ListByHolder(c *gin.Context) {
	holder := c.Param("identity")
	c.JSON(http.StatusOK, gin.H{
		"holder":          holder,
		"certificate_ids": h.service.ListByHolder(holder),
	})
}

func (h *Handler) ActiveAmount(c *gin.Context) {
	holder := c.Param("identity")
	c.JSON(http.StatusOK, gin.H{
		"holder":        holder,
		"active_amount": h.service.ActiveAmount(holder),
	})
}

func (h *Handler) ListByIssuer(c *gin.Context) {
	issuer := c.Param("identity")
	c.JSON(http.StatusOK, gin.H{
		"issuer":          issuer,
		"certificate_ids": h.service.ListByIssuer(issuer),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
