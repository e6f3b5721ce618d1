package checklist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheKey = "checklist:catalog"
	catalogCacheTTL = 10 * time.Minute
)

// Service serves the checklist catalog with a cache-aside Redis layer and
// singleflight coalescing so a cold cache does not stampede the database.
type Service interface {
	Catalog(ctx context.Context) ([]CatalogItem, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("checklist.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("checklist.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Catalog(ctx context.Context) ([]CatalogItem, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, catalogCacheKey).Result(); err == nil {
			var items []CatalogItem
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
			s.logger.Warn("corrupt catalog cache entry, reloading", zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(catalogCacheKey, func() (any, error) {
		items, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		if s.rdb != nil {
			if payload, err := json.Marshal(items); err == nil {
				if err := s.rdb.Set(ctx, catalogCacheKey, payload, catalogCacheTTL).Err(); err != nil {
					s.logger.Warn("catalog cache write failed", zap.Error(err))
				}
			}
		}

		return items, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]CatalogItem), nil
}
