package duty

import (
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, rdb *redis.Client) {
	duties := r.Group("/duty")
	duties.Use(middleware.AuthMiddleware())
	{
		duties.GET("", h.History)
		duties.GET("/current", h.Current)
		duties.POST("", middleware.Idempotency(rdb), h.Transition)
	}
}
