package issuers

import (
	"github.com/gin-gonic/gin"

	"carbonmark/marketplace-backend/internal/gateway"
)

// RegisterRoutes registers issuer and project routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/issuers")
	{
		group.POST("", handler.Register)
		group.GET("/:identity", handler.GetIssuer)
		group.POST("/:identity/platform-verify", gateway.RequireAdmin(), handler.SetPlatformVerified)
	}
	projects := r.Group("/projects")
	{
		projects.POST("", handler.CreateProject)
		projects.GET("/:id", handler.GetProject)
		projects.POST("/:id/verify", gateway.RequireAdmin(), handler.VerifyProject)
		projects.POST("/:id/certificates", handler.IssueCertificate)
	}
}
