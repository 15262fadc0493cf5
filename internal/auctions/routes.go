package auctions

import "github.com/gin-gonic/gin"

// RegisterRoutes registers auction routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/auctions")
	{
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/bids", handler.Bid)
		group.POST("/:id/end", handler.End)
		group.POST("/:id/cancel", handler.Cancel)
	}
}
