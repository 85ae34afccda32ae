package app

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal"
	"bitwise74/share-api/internal/service"
	"bitwise74/share-api/internal/storage"
	"bitwise74/share-api/pkg/security"
	"context"
	"fmt"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newCacheStore returns the store behind cached responses. Several replicas
// should share redis so a cached read isn't served stale by another node
func newCacheStore(c config.Cache) (persist.CacheStore, error) {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	if c.RedisURL == "" {
		return persist.NewMemoryStore(ttl), nil
	}

	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache.redis_url, %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis, %w", err)
	}

	zap.L().Info("Response cache backed by redis", zap.String("addr", opts.Addr))
	return persist.NewRedisStore(client), nil
}

// NewDeps wires every component together. dial opens the object store of
// each configured storage account
func NewDeps(c *config.Config, db *gorm.DB, dial storage.Dialer) (*internal.Deps, error) {
	pool, err := storage.NewPool(c.Storage, dial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage pool, %w", err)
	}

	store, err := newCacheStore(c.Cache)
	if err != nil {
		return nil, err
	}

	argon := security.New()
	ledger := service.NewLedger(db, c.Storage.DefaultQuota, pool.Capacity)
	files := service.NewFileService(db, pool, ledger)
	links := service.NewLinkService(db, argon)

	return &internal.Deps{
		DB:        db,
		Config:    c,
		Argon:     argon,
		Pool:      pool,
		Ledger:    ledger,
		Files:     files,
		Links:     links,
		Access:    service.NewEvaluator(db, links, argon),
		Analytics: service.NewAnalytics(db, c.Security.IPSalt),
		Reclaimer: service.NewReclaimer(db, files, c.Reclaim),
		Cache:     store,
	}, nil
}
