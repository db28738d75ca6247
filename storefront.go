// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/poiesic/storefront/api"
	"github.com/poiesic/storefront/catalog"
	"github.com/poiesic/storefront/config"
	"github.com/poiesic/storefront/index"
	"github.com/poiesic/storefront/ingestion"
	"github.com/poiesic/storefront/search"
	"github.com/poiesic/storefront/storage"
	badgercache "github.com/poiesic/storefront/storage/badger"
	rediscache "github.com/poiesic/storefront/storage/redis"
)

// Service wires the catalog, the vector index and its snapshot cache, the
// ingestion pipeline and the hybrid search engine together.
type Service struct {
	cfg       config.Config
	store     *catalog.Store
	cache     storage.IndexCache
	ownsCache bool
	index     *index.Index
	pipeline  *ingestion.Pipeline
	engine    *search.Engine
	metrics   *api.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger   *slog.Logger
	store    *catalog.Store
	cache    storage.IndexCache
	monitor  search.SearchMonitor
	progress index.ProgressFunc
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithCatalog uses store instead of loading the data directory.
func WithCatalog(store *catalog.Store) Option {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithIndexCache uses cache instead of the configured cache driver. The
// caller keeps ownership of cache.
func WithIndexCache(cache storage.IndexCache) Option {
	return func(o *serviceOptions) {
		o.cache = cache
	}
}

// WithSearchMonitor reports searches to monitor instead of the HTTP metrics.
func WithSearchMonitor(monitor search.SearchMonitor) Option {
	return func(o *serviceOptions) {
		o.monitor = monitor
	}
}

// WithIndexProgress reports vectorization progress of index builds.
func WithIndexProgress(fn index.ProgressFunc) Option {
	return func(o *serviceOptions) {
		o.progress = fn
	}
}

// Open loads the catalog and builds the index. A snapshot cache or index
// build that fails is logged and the service runs without it: searches fall
// back to keyword matching until a rebuild succeeds.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Service, error) {
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		store:   options.store,
		cache:   options.cache,
		metrics: api.NewMetrics(),
		logger:  logger.With("component", "storefront"),
	}

	if s.store == nil {
		store, err := catalog.Load(cfg.DataDir, catalog.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		s.store = store
	}

	if s.cache == nil {
		cache, err := openCache(ctx, cfg, logger)
		if err != nil {
			s.logger.Warn("index cache unavailable, snapshots will not be reused", "driver", cfg.Cache.Driver, "err", err)
		} else if cache != nil {
			s.cache = cache
			s.ownsCache = true
		}
	}

	indexOpts := []index.Option{
		index.WithLogger(logger),
		index.WithMinSimilarity(cfg.Index.MinSimilarity),
		index.WithMaxFeatures(cfg.Index.MaxFeatures),
	}
	if s.cache != nil {
		indexOpts = append(indexOpts, index.WithCache(s.cache))
	}
	if options.progress != nil {
		indexOpts = append(indexOpts, index.WithProgress(options.progress))
	}
	idx, err := index.New(indexOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.index = idx

	pipeline, err := ingestion.NewPipeline(s.store, idx, ingestion.WithLogger(logger))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.pipeline = pipeline

	if err := pipeline.Ingest(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.Close()
			return nil, ctxErr
		}
		s.logger.Warn("index build failed, semantic search disabled", "err", err)
	}

	monitor := options.monitor
	if monitor == nil {
		monitor = s.metrics
	}
	engine, err := search.NewEngine(s.store, idx,
		search.WithLogger(logger),
		search.WithPoolSize(cfg.Search.PoolSize),
		search.WithSemanticTimeout(cfg.Search.SemanticTimeout),
		search.WithMonitor(monitor),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = engine

	if cfg.Index.ReindexOnChange {
		s.store.OnChange(pipeline.Notify)
	}

	return s, nil
}

func openCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.IndexCache, error) {
	switch cfg.Cache.Driver {
	case config.CacheBadger:
		cache, err := badgercache.OpenIndexCache(cfg.CachePath(), logger)
		if err != nil {
			return nil, err
		}
		return cache, nil
	case config.CacheRedis:
		cache, err := rediscache.NewIndexCache(rediscache.Config{
			Addrs:    cfg.Cache.Redis.Addrs,
			Username: cfg.Cache.Redis.Username,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		if err := cache.Ping(ctx); err != nil {
			cache.Close()
			return nil, err
		}
		return cache, nil
	default:
		return nil, nil
	}
}

// Config returns the configuration the service was opened with.
func (s *Service) Config() config.Config {
	return s.cfg
}

// Catalog returns the product, order, FAQ and policy store.
func (s *Service) Catalog() *catalog.Store {
	return s.store
}

// Index returns the vector index. It may not be built yet.
func (s *Service) Index() *index.Index {
	return s.index
}

// Engine returns the hybrid search engine.
func (s *Service) Engine() *search.Engine {
	return s.engine
}

// Pipeline returns the background index rebuild pipeline.
func (s *Service) Pipeline() *ingestion.Pipeline {
	return s.pipeline
}

// Metrics returns the Prometheus collectors served on /metrics.
func (s *Service) Metrics() *api.Metrics {
	return s.metrics
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return api.NewRouter(s.store, s.engine,
		api.WithLogger(s.logger),
		api.WithMetrics(s.metrics),
		api.WithRequestTimeout(s.cfg.HTTP.WriteTimeout),
	)
}

// Serve answers HTTP requests on l until ctx is cancelled, then shuts the
// server down gracefully.
func (s *Service) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Service) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Close stops background rebuilds and closes the snapshot cache if the
// service opened it.
func (s *Service) Close() error {
	if s.pipeline != nil {
		s.pipeline.Release()
	}
	if s.engine != nil {
		s.engine.Release()
	}
	if s.ownsCache && s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("error closing index cache", "err", err)
			return err
		}
	}
	return nil
}
