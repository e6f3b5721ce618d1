package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// fakeStore backs the middleware with an in-memory map, answering with
// the same cmd results a real client would.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprintf("%s", value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func idempotencyRouter(store IdempotencyStore, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/punch",
		func(c *gin.Context) { c.Set("driver_id", "drv-1") },
		Idempotency(store),
		handler,
	)
	return r
}

func punchWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/punch", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaySuccessfulResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true, "data": gin.H{"id": "rec-1"}})
	})

	first := punchWithKey(r, "key-1")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	// Lock must be released once the first attempt completed.
	assert.False(t, store.has("idemp:/punch:drv-1:key-1:lock"))
	assert.True(t, store.has("idemp:/punch:drv-1:key-1"))

	second := punchWithKey(r, "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls, "replay must not re-run the handler")
}

func TestIdempotency_InFlightDuplicateRejected(t *testing.T) {
	store := newFakeStore()
	store.data["idemp:/punch:drv-1:key-1:lock"] = "locked"

	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := punchWithKey(r, "key-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	assert.Equal(t, 0, calls)
}

func TestIdempotency_FailedAttemptNotCachedAndRetryable(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusConflict, gin.H{"ok": false})
	})

	first := punchWithKey(r, "key-1")
	assert.Equal(t, http.StatusConflict, first.Code)

	// No cached response, lock released: the retry runs the handler again.
	assert.False(t, store.has("idemp:/punch:drv-1:key-1"))
	assert.False(t, store.has("idemp:/punch:drv-1:key-1:lock"))

	second := punchWithKey(r, "key-1")
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	punchWithKey(r, "")
	punchWithKey(r, "")
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotency_KeysScopedPerDriverAndKey(t *testing.T) {
	store := newFakeStore()
	calls := 0
	r := idempotencyRouter(store, func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	punchWithKey(r, "key-1")
	punchWithKey(r, "key-2")
	assert.Equal(t, 2, calls, "a different key is a different request")
}
