package offers

import "github.com/gin-gonic/gin"

// RegisterRoutes registers offer routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	group := r.Group("/offers")
	{
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/accept", handler.Accept)
		group.POST("/:id/cancel", handler.Cancel)
	}
}
