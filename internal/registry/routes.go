package registry

import "github.com/gin-gonic/gin"

// RegisterRoutes registers certificate routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	certs := r.Group("/certificates")
	{
		certs.POST("", handler.Issue)
		certs.GET("/:id", handler.Get)
		certs.GET("/:id/expired", handler.IsExpired)
		certs.POST("/:id/verify", handler.Verify)
		certs.POST("/:id/transferable", handler.SetTransferable)
		certs.POST("/:id/approvals", handler.SetApproval)
		certs.POST("/:id/transfer", handler.Transfer)
		certs.POST("/:id/burn", handler.Burn)
	}
	r.GET("/holders/:identity/certificates", handler.ListByHolder)
	r.GET("/holders/:identity/active-amount", handler.ActiveAmount)
	r.GET("/issued-by/:identity/certificates", handler.ListByIssuer)
}
