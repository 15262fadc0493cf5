package issuers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/gateway"
	"carbonmark/marketplace-backend/internal/registry"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Metadata string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Register(gateway.Identity(c), body.Name, body.Metadata); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) SetPlatformVerified(c *gin.Context) {
	var body struct {
		Verified bool `json:"verified"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetPlatformVerified(gateway.Identity(c), c.Param("identity"), body.Verified); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetIssuer(c *gin.Context) {
	issuer, err := h.service.GetIssuer(c.Param("identity"))
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, issuer)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var body struct {
		Name                   string   `json:"name"`
		ProjectType            string   `json:"project_type"`
		Location               string   `json:"location"`
		Methodology            string   `json:"methodology"`
		EstimatedReductionTons int64    `json:"estimated_reduction_tons"`
		DocumentRefs           []string `json:"document_refs"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.service.CreateProject(CreateProjectRequest{
		Issuer:                 gateway.Identity(c),
		Name:                   body.Name,
		ProjectType:            body.ProjectType,
		Location:               body.Location,
		Methodology:            body.Methodology,
		EstimatedReductionTons: body.EstimatedReductionTons,
		DocumentRefs:           body.DocumentRefs,
	})
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project_id": id})
}

func (h *Handler) VerifyProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		ActualReductionTons int64 `json:"actual_reduction_tons"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.VerifyProject(gateway.Identity(c), id, body.ActualReductionTons); err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	project, err := h.service.GetProject(id)
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) IssueCertificate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Recipient        string     `json:"recipient"`
		Amount           int64      `json:"amount"`
		VerificationBody string     `json:"verification_body"`
		ExpiresAt        *time.Time `json:"expires_at"`
		MetadataRef      string     `json:"metadata_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	certID, err := h.service.IssueCertificate(id, registry.IssueRequest{
		Issuer:           gateway.Identity(c),
		Recipient:        body.Recipient,
		Amount:           body.Amount,
		VerificationBody: body.VerificationBody,
		ExpiresAt:        body.ExpiresAt,
		MetadataRef:      body.MetadataRef,
	})
	if err != nil {
		gateway.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"certificate_id": certID})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
