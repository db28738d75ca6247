package storefront

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storefront/catalog"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/core"
	badgercache "github.com/poiesic/storefront/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProducts = `[
  {"product_id": "P1", "product_name": "Wireless Earbuds", "category": "Audio", "price": 49.99,
   "stock_available": 5, "description": "Compact earbuds with charging case and noise isolation.", "rating": 4.4},
  {"product_id": "P2", "product_name": "Bluetooth Headphones", "category": "Audio", "price": 89.99,
   "stock_available": 0, "description": "Over-ear headphones with long battery life.", "rating": 4.7},
  {"product_id": "P3", "product_name": "Leather Wallet", "category": "Accessories", "price": 29.99,
   "stock_available": 10, "description": "Slim bifold wallet made from genuine leather.", "rating": 4.1}
]`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalog.ProductsFile), []byte(testProducts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalog.OrdersFile), []byte(`[]`), 0o644))
	return config.NewConfig(config.WithDataDir(dir))
}

func openService(t *testing.T, cfg config.Config, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := Open(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	cfg := testConfig(t)
	s := openService(t, cfg)

	assert.Equal(t, cfg.DataDir, s.Config().DataDir)
	assert.NotNil(t, s.Catalog())
	assert.NotNil(t, s.Engine())
	assert.NotNil(t, s.Pipeline())
	assert.NotNil(t, s.Metrics())
	assert.True(t, s.Index().Built())
	assert.Equal(t, 3, s.Index().Size())
	assert.True(t, s.ownsCache)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = "memcached"
	_, err := Open(context.Background(), cfg, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOpen_MalformedCatalog(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, catalog.ProductsFile), []byte(`{`), 0o644))
	_, err := Open(context.Background(), cfg, WithLogger(quietLogger()))
	assert.Error(t, err)
}

func TestOpen_EmptyCatalogRunsKeywordOnly(t *testing.T) {
	cfg := config.NewConfig(config.WithDataDir(t.TempDir()), config.WithCacheDriver(config.CacheNone))
	s := openService(t, cfg)

	assert.False(t, s.Index().Built())
	assert.Empty(t, s.Engine().Search(context.Background(), "headphone", ""))
}

func TestOpen_UnreachableRedisRunsWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Driver = config.CacheRedis
	cfg.Cache.Redis.Addrs = []string{"127.0.0.1:1"}

	s := openService(t, cfg)
	assert.Nil(t, s.cache)
	assert.True(t, s.Index().Built())
}

func TestService_HybridSearch(t *testing.T) {
	s := openService(t, testConfig(t))

	results := s.Engine().Search(context.Background(), "headphone", "")
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].ID)
	assert.Equal(t, core.SourceSemantic, results[0].Source)
	assert.Positive(t, results[0].SimilarityScore)
}

func TestService_ReindexOnChange(t *testing.T) {
	s := openService(t, testConfig(t))

	_, err := s.Catalog().CreateOrder("C1", []core.LineItem{{ProductID: "P1", Quantity: 5}})
	require.NoError(t, err)
	s.Pipeline().Wait()

	snap := s.Index().Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Meta[0].Stock, "rebuilt index sees the new stock")
	assert.Empty(t, s.Engine().Search(context.Background(), "headphone", ""))
}

func TestService_RebuildsReplaceCachedSnapshot(t *testing.T) {
	backend, err := badgercache.OpenBackend("", true, quietLogger())
	require.NoError(t, err)
	defer backend.Close()
	cache, err := badgercache.NewIndexCache(backend)
	require.NoError(t, err)

	s := openService(t, testConfig(t), WithIndexCache(cache))
	for range 4 {
		_, err := s.Catalog().CreateOrder("C1", []core.LineItem{{ProductID: "P3", Quantity: 1}})
		require.NoError(t, err)
		s.Pipeline().Wait()
	}
	require.Equal(t, 6, s.Index().Snapshot().Meta[2].Stock)

	var keys int
	err = backend.WithTx(func(tx *badger.Txn) error {
		it := tx.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys++
		}
		return nil
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, keys, "each rebuild replaces the cached snapshot")

	stored, err := cache.LoadSnapshot(context.Background(), s.Index().Snapshot().Digest)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Meta[2].Stock)
}

func TestService_ReusesCachedSnapshot(t *testing.T) {
	cfg := testConfig(t)
	first := openService(t, cfg)
	require.True(t, first.Index().Built())
	require.NoError(t, first.Close())

	calls := 0
	second := openService(t, cfg, WithIndexProgress(func(done, total int) { calls++ }))
	assert.True(t, second.Index().Built())
	assert.Zero(t, calls, "a cached snapshot skips vectorization")
	assert.Equal(t, first.Index().Snapshot().Digest, second.Index().Snapshot().Digest)
}

func TestService_Serve(t *testing.T) {
	s := openService(t, testConfig(t))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/api/products/search?q=headphone")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var results []core.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
