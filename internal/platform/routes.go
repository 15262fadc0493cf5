package platform

import (
	"github.com/gin-gonic/gin"

	"carbonmark/marketplace-backend/internal/gateway"
)

// RegisterRoutes registers admin and balance routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	admin := r.Group("/admin", gateway.RequireAdmin())
	{
		admin.POST("/fee", handler.SetFee)
		admin.POST("/fee-recipient", handler.SetFeeRecipient)
		admin.POST("/assets", handler.SetSupportedAsset)
		admin.POST("/pause", handler.Pause)
		admin.POST("/unpause", handler.Unpause)
		admin.POST("/deposits", handler.Deposit)
	}
	r.GET("/platform/config", handler.GetConfig)
	r.GET("/balances/:identity", handler.Balance)
}
