// Package redis is a rendered-document cache on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/cache"
	"github.com/gompdf/cutticket/internal/logging"
)

// DefaultTTL bounds how long a rendered document is kept
const DefaultTTL = 24 * time.Hour

// Config addresses the Redis server
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache stores each entry as a hash with filename, pages and data fields
type Cache struct {
	internal *lowimpl.Client
	ttl      time.Duration
	logger   *zap.Logger
}

var _ cache.Cache = (*Cache)(nil)

// New connects to the server and pings it
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.Named("cache")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	client := lowimpl.NewClient(&lowimpl.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Info("redis cache connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return &Cache{internal: client, ttl: cfg.TTL, logger: logger}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*cache.Entry, error) {
	fields, err := c.internal.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(fields) == 0 {
		return nil, cache.ErrMiss
	}
	pages, err := strconv.Atoi(fields["pages"])
	if err != nil {
		return nil, fmt.Errorf("cache get %s: bad page count: %w", key, err)
	}
	return &cache.Entry{
		Filename:  fields["filename"],
		PageCount: pages,
		Data:      []byte(fields["data"]),
	}, nil
}

func (c *Cache) Set(ctx context.Context, key string, e *cache.Entry) error {
	_, err := c.internal.TxPipelined(ctx, func(p lowimpl.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			"filename", e.Filename,
			"pages", e.PageCount,
			"data", e.Data)
		p.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	c.logger.Debug("cached document", zap.String("key", key), zap.Int("bytes", len(e.Data)))
	return nil
}

// TTL returns the remaining lifetime of key
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.internal.TTL(ctx, key).Result()
	if errors.Is(err, lowimpl.Nil) {
		return 0, cache.ErrMiss
	}
	return d, err
}

func (c *Cache) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}
