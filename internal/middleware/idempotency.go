package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyLockTTL  = 30 * time.Second
	idempotencyCacheTTL = 24 * time.Hour
)

// IdempotencyStore is the slice of the Redis API the middleware needs.
// *redis.Client satisfies it.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyCapture tees the response body so a completed outcome can be
// cached for replay.
type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency guards the transition endpoints against double taps. A
// retried POST carrying the same Idempotency-Key replays the first
// attempt's response verbatim; while the first attempt is still in
// flight, the retry is rejected with 409 PROCESSING.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		driverID := c.GetString("driver_id")

		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), driverID, idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := store.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedResponse
			if json.Unmarshal([]byte(val), &cached) == nil {
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		}

		// Short-lived lock so a crashed attempt never wedges the key.
		isNew, _ := store.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "PROCESSING",
				"message": "Your request is still being processed, please wait.",
			})
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusOK && status < http.StatusMultipleChoices {
			payload, err := json.Marshal(cachedResponse{
				Status: status,
				Body:   json.RawMessage(capture.body.Bytes()),
			})
			if err == nil {
				if err := store.Set(ctx, cacheKey, payload, idempotencyCacheTTL).Err(); err != nil {
					zap.L().Warn("idempotency cache write failed", zap.Error(err))
				}
			}
		}
		// Release the lock regardless of outcome so a failed attempt can
		// be retried immediately.
		if err := store.Del(ctx, lockKey).Err(); err != nil {
			zap.L().Warn("idempotency lock release failed", zap.Error(err))
		}
	}
}
