package app

import (
	"context"
	"os"
	"strconv"
	"time"

	"fleetops/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// BuildApp wires infrastructure and modules onto the router. The returned
// shutdown function stops the dispatcher pool and closes connections; the
// server bootstrap calls it after the listener has drained.
func BuildApp(router *gin.Engine) (func(), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if err := connection.PrepareSchema(gormDB); err != nil {
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(envOr("REDIS_ADDR", "localhost:6379"), 5)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connection established")

	kafkaWriter, err := connection.ConnectKafkaWithRetry(envOr("KAFKA_BROKER", "localhost:9092"), 5)
	if err != nil {
		return nil, err
	}
	logger.Info("kafka connection established")

	loc, err := time.LoadLocation(envOr("FLEET_TZ", "Asia/Kolkata"))
	if err != nil {
		return nil, err
	}

	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	deps := moduleDeps{
		gormDB:        gormDB,
		rdb:           redisClient,
		kafkaWriter:   kafkaWriter,
		loc:           loc,
		imageDir:      envOr("IMAGE_DIR", "./data/images"),
		imageBase:     envOr("IMAGE_PUBLIC_BASE", "/images"),
		imageMaxWidth: envIntOr("IMAGE_MAX_WIDTH", 1280),
		imageMaxBytes: envIntOr("IMAGE_MAX_BYTES", 200*1024),
		reportTopic:   envOr("REPORT_TOPIC", "duty-reports"),
	}

	dispatcher := registerModules(router, deps)
	dispatcher.Start(dispatcherCtx)

	shutdown := func() {
		dispatcher.Close()
		cancelDispatcher()
		if err := kafkaWriter.Close(); err != nil {
			logger.Warn("kafka writer close failed", zap.Error(err))
		}
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = redisClient.Close()
	}

	return shutdown, nil
}
