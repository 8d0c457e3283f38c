// Package cache implements the two-tier cache used by the catalog and
// date-ranged aggregation: a process-lifetime map in front of a shared NATS
// JetStream key-value bucket with a TTL.
//
// All shared-tier operations run under a short timeout and fail open: an
// unreachable or corrupt entry is a miss, never an error.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/observability"
)

// Store is the cache surface consumed by services. Values are opaque bytes;
// callers own serialization.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context, key string)
}

// Config controls bucket creation and key versioning.
type Config struct {
	Bucket     string
	TTL        time.Duration
	OpTimeout  time.Duration
	KeyVersion string
}

// TwoTier is the default Store: local map, then JetStream KV.
type TwoTier struct {
	cfg     Config
	logger  *slog.Logger
	metrics observability.Metrics

	mu    sync.RWMutex
	local map[string][]byte

	kv jetstream.KeyValue
}

// New connects the shared tier. A nil conn yields a local-only cache, which
// tests and single-process deployments use.
func New(ctx context.Context, conn *nats.Conn, cfg Config, logger *slog.Logger, metrics observability.Metrics) (*TwoTier, error) {
	c := &TwoTier{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		local:   make(map[string][]byte),
	}

	if conn == nil {
		logger.Warn("cache running without shared tier, local tier only")
		return c, nil
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, err
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: cfg.Bucket,
		TTL:    cfg.TTL,
	})
	if err != nil {
		return nil, err
	}
	c.kv = kv
	return c, nil
}

// versionedKey prefixes keys so a schema bump invalidates everything at once.
// JetStream KV keys reject a few characters; swap them for dots.
func (c *TwoTier) versionedKey(key string) string {
	k := c.cfg.KeyVersion + "." + key
	replacer := strings.NewReplacer(" ", ".", ":", ".", "*", ".", ">", ".")
	return replacer.Replace(k)
}

// Get checks the local tier, then the shared tier. A shared hit is copied
// into the local tier.
func (c *TwoTier) Get(ctx context.Context, key string) ([]byte, bool) {
	vk := c.versionedKey(key)

	c.mu.RLock()
	if v, ok := c.local[vk]; ok {
		c.mu.RUnlock()
		c.metrics.RecordCacheHit(ctx, "local", key)
		return v, true
	}
	c.mu.RUnlock()
	c.metrics.RecordCacheMiss(ctx, "local", key)

	if c.kv == nil {
		return nil, false
	}

	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	entry, err := c.kv.Get(opCtx, vk)
	if err != nil {
		if err != jetstream.ErrKeyNotFound {
			c.logger.Warn("shared cache read failed, treating as miss",
				attr.String("key", key),
				attr.Error(err),
			)
		}
		c.metrics.RecordCacheMiss(ctx, "shared", key)
		return nil, false
	}

	value := entry.Value()
	if len(value) == 0 {
		// Corrupt or empty entry: evict and miss.
		c.Invalidate(ctx, key)
		c.metrics.RecordCacheMiss(ctx, "shared", key)
		return nil, false
	}

	c.mu.Lock()
	c.local[vk] = value
	c.mu.Unlock()

	c.metrics.RecordCacheHit(ctx, "shared", key)
	return value, true
}

// Set writes both tiers. Shared-tier failures are logged and ignored.
func (c *TwoTier) Set(ctx context.Context, key string, value []byte) {
	vk := c.versionedKey(key)

	c.mu.Lock()
	c.local[vk] = value
	c.mu.Unlock()

	if c.kv == nil {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	if _, err := c.kv.Put(opCtx, vk, value); err != nil {
		c.logger.Warn("shared cache write failed",
			attr.String("key", key),
			attr.Error(err),
		)
	}
}

// Invalidate clears the key from both tiers. It must be called before any
// read that depends on fresh backing data, never after.
func (c *TwoTier) Invalidate(ctx context.Context, key string) {
	vk := c.versionedKey(key)

	c.mu.Lock()
	delete(c.local, vk)
	c.mu.Unlock()

	if c.kv == nil {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	if err := c.kv.Delete(opCtx, vk); err != nil && err != jetstream.ErrKeyNotFound {
		c.logger.Warn("shared cache delete failed",
			attr.String("key", key),
			attr.Error(err),
		)
	}
}

var _ Store = (*TwoTier)(nil)
