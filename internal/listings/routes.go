package listings

import "github.com/gin-gonic/gin"

// RegisterRoutes registers listing routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/listings")
	{
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/buy", handler.Buy)
		group.POST("/:id/cancel", handler.Cancel)
		group.PUT("/:id/price", handler.UpdatePrice)
	}
}
