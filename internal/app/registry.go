package app

import (
	"net/http"
	"time"

	"fleetops/internal/attendance"
	"fleetops/internal/checklist"
	"fleetops/internal/duty"
	"fleetops/internal/imaging"
	"fleetops/internal/middleware"
	"fleetops/internal/notify"
	"fleetops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type moduleDeps struct {
	gormDB        *gorm.DB
	rdb           *redis.Client
	kafkaWriter   *kafkago.Writer
	loc           *time.Location
	imageDir      string
	imageBase     string
	imageMaxWidth int
	imageMaxBytes int
	reportTopic   string
}

func registerModules(router *gin.Engine, deps moduleDeps) *notify.Dispatcher {
	// --- Shared infrastructure ---
	pipeline := imaging.NewPipeline(imaging.Options{
		MaxWidthPx: deps.imageMaxWidth,
		MaxBytes:   deps.imageMaxBytes,
		Dir:        deps.imageDir,
		PublicBase: deps.imageBase,
	})

	messenger := notify.NewKafkaMessenger(deps.kafkaWriter, deps.reportTopic)
	dispatcher := notify.NewDispatcher(messenger, 2, 64)

	// --- Repositories ---
	attendanceRepo := attendance.NewRepository(deps.gormDB)
	checklistRepo := checklist.NewRepository(deps.gormDB)
	dutyRepo := duty.NewRepository(deps.gormDB)

	// --- Services ---
	checklistService := checklist.NewService(checklistRepo, deps.rdb)
	attendanceService := attendance.NewService(attendanceRepo, pipeline, deps.loc)
	dutyService := duty.NewService(dutyRepo, checklistService, pipeline, dispatcher, deps.loc)

	// --- Handlers ---
	attendanceHandler := attendance.NewHandler(attendanceService)
	dutyHandler := duty.NewHandler(dutyService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(10, 20))
	api.Use(middleware.RateLimitByDriver(5, 10))
	{
		attendance.RegisterRoutes(api, attendanceHandler, deps.rdb)
		duty.RegisterRoutes(api, dutyHandler, deps.rdb)
	}

	router.Static(deps.imageBase, deps.imageDir)

	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":   "ok",
			"dispatch": dispatcher.Stats(),
		}, nil)
	})

	return dispatcher
}
