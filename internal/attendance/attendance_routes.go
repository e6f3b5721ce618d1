package attendance

import (
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb *redis.Client) {
	attendances := r.Group("/attendance")
	attendances.Use(middleware.AuthMiddleware())
	{
		attendances.GET("", h.History)
		attendances.GET("/current", h.Current)
		attendances.GET("/:id", h.Detail)
		attendances.POST("", middleware.Idempotency(rdb), h.Punch)
	}
}
