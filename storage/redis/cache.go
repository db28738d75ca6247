package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// Compile-time check: IndexCache implements storage.IndexCache.
var _ storage.IndexCache = (*IndexCache)(nil)

// Config holds connection parameters for a Redis index cache.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// TTL expires stored snapshots. Zero keeps them until overwritten.
	TTL time.Duration
}

// IndexCache stores index snapshots in Redis via rueidis.
type IndexCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewIndexCache connects to Redis.
func NewIndexCache(cfg Config) (*IndexCache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &IndexCache{client: client, ttl: cfg.TTL}, nil
}

// NewIndexCacheWithClient wraps an existing client. The cache takes ownership of it.
func NewIndexCacheWithClient(client rueidis.Client, ttl time.Duration) *IndexCache {
	return &IndexCache{client: client, ttl: ttl}
}

// Ping checks connectivity.
func (c *IndexCache) Ping(ctx context.Context) error {
	cmd := c.client.B().Ping().Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// LoadSnapshot implements storage.IndexCache.
func (c *IndexCache) LoadSnapshot(ctx context.Context, digest string) (*core.IndexSnapshot, error) {
	cmd := c.client.B().Get().Key(storage.SnapshotKey).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", digest, err)
	}
	snap, err := storage.UnmarshalSnapshot(data)
	if err != nil {
		return nil, err
	}
	return storage.MatchDigest(snap, digest)
}

// StoreSnapshot implements storage.IndexCache.
func (c *IndexCache) StoreSnapshot(ctx context.Context, snapshot *core.IndexSnapshot) error {
	data, err := storage.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	key := storage.SnapshotKey
	var cmd rueidis.Completed
	if c.ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Ex(c.ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", snapshot.Digest, err)
	}
	return nil
}

// Close shuts down the client.
func (c *IndexCache) Close() error {
	c.client.Close()
	return nil
}
