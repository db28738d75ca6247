package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/storefront/core"
)

const (
	// DefaultPoolSize is the number of rebuild workers. One build runs while
	// at most one more waits for it.
	DefaultPoolSize = 2
	// DefaultMaxAttempts bounds the build attempts made by Ingest.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the delay before the first retry.
	DefaultRetryDelay = 200 * time.Millisecond
)

// Catalog supplies the products to index.
type Catalog interface {
	AllProducts() []core.Product
}

// Builder builds a searchable index from products.
type Builder interface {
	Build(ctx context.Context, products []core.Product) error
}

// Pipeline rebuilds the index whenever the catalog changes.
type Pipeline struct {
	catalog Catalog
	builder Builder
	pool    *ants.Pool

	buildMu sync.Mutex // serializes builds
	mu      sync.Mutex // guards pending and closed
	pending bool       // a queued rebuild has not started yet
	closed  bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for asynchronous rebuilds.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithRetry sets how many times a build is attempted and the initial delay
// between attempts.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(catalog Catalog, builder Builder, opts ...Option) (*Pipeline, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if builder == nil {
		return nil, ErrIndexRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		catalog:     catalog,
		builder:     builder,
		pool:        pool,
		ctx:         ctx,
		cancel:      cancel,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Ingest builds the index from the current catalog and blocks until the
// build succeeds or the retries are exhausted.
func (p *Pipeline) Ingest(ctx context.Context) error {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()
	return p.build(ctx)
}

// Notify schedules an asynchronous rebuild and returns immediately. Calls
// made while a rebuild is still queued are folded into it. The signature
// matches catalog change listeners.
func (p *Pipeline) Notify() {
	p.mu.Lock()
	if p.pending || p.closed {
		p.mu.Unlock()
		return
	}
	p.pending = true
	p.wg.Add(1)
	p.mu.Unlock()

	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.buildMu.Lock()
		defer p.buildMu.Unlock()

		// Changes after this point need another rebuild
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()

		if err := p.build(p.ctx); err != nil {
			p.logger.Error("index rebuild failed, keeping previous index", "err", err)
		}
	})
	if err != nil {
		p.mu.Lock()
		p.pending = false
		p.mu.Unlock()
		p.wg.Done()
		p.logger.Warn("failed to schedule index rebuild", "err", err)
	}
}

// Wait blocks until every scheduled rebuild has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release cancels queued rebuilds, waits for running ones and stops the
// worker pool. Notify is a no-op afterwards.
func (p *Pipeline) Release() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}

// build runs one build with retries. Caller holds buildMu.
func (p *Pipeline) build(ctx context.Context) error {
	products := p.catalog.AllProducts()
	if len(products) == 0 {
		return ErrEmptyCatalog
	}

	start := time.Now()
	err := RetryWithBackoff(ctx, p.logger, func() error {
		return p.builder.Build(ctx, products)
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		return err
	}

	p.logger.Info("index built", "products", len(products), "elapsed", time.Since(start))
	return nil
}
