package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/index"
)

const (
	// DefaultPoolSize runs the keyword and semantic paths side by side.
	DefaultPoolSize = 2

	// MaxSemanticResults caps semantic hits per query.
	MaxSemanticResults = 8

	// MaxRelated caps Engine.Related.
	MaxRelated = 5

	// MaxRecommendations caps Engine.Recommendations.
	MaxRecommendations = 6

	relatedCandidates = 10
	minStock          = 1
)

// Catalog is the read-only product store the engine searches.
type Catalog interface {
	GetProduct(id string) (core.Product, bool)
	AllProducts() []core.Product
}

// SemanticIndex answers similarity queries over the catalog.
type SemanticIndex interface {
	Search(ctx context.Context, text string, limit, minStock int) ([]core.SearchHit, error)
}

// Engine merges keyword and semantic product search.
type Engine struct {
	catalog         Catalog
	index           SemanticIndex
	pool            *ants.Pool
	poolSize        int
	semanticTimeout time.Duration
	monitor         SearchMonitor
	logger          *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithPoolSize sets the number of search workers.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.poolSize = size
		return nil
	}
}

// WithSemanticTimeout bounds each vector index call. Zero disables the timeout.
func WithSemanticTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout < 0 {
			return fmt.Errorf("semantic timeout cannot be negative: %s", timeout)
		}
		e.semanticTimeout = timeout
		return nil
	}
}

// WithMonitor sets the monitor used by Search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(e *Engine) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// antsLogger adapts slog.Logger to ants.Logger interface.
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// NewEngine creates a search engine over catalog. A nil index is treated as
// unavailable: searches are keyword-only and related lookups use the
// category fallback.
func NewEngine(catalog Catalog, index SemanticIndex, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	e := &Engine{
		catalog:  catalog,
		index:    index,
		poolSize: DefaultPoolSize,
		monitor:  &noopMonitor{},
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "search")

	pool, err := ants.NewPool(e.poolSize, ants.WithLogger(antsLogger{logger: e.logger}))
	if err != nil {
		return nil, err
	}
	e.pool = pool

	return e, nil
}

// Release frees the worker pool. The engine should not be used afterwards.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// submit runs task on the pool, or inline when the pool rejects it.
func (e *Engine) submit(task func()) {
	if err := e.pool.Submit(task); err != nil {
		e.logger.Debug("worker pool unavailable, running inline", "err", err)
		task()
	}
}

// Search returns up to MaxResults in-stock products for query and category.
// Keyword matches come first in catalog order, followed by semantic matches
// in descending similarity. When nothing matches literally the semantic
// matches alone are returned.
func (e *Engine) Search(ctx context.Context, query, category string) []core.Result {
	return e.SearchWithMonitor(ctx, query, category, e.monitor)
}

// SearchWithMonitor is Search reporting to monitor instead of the engine's monitor.
func (e *Engine) SearchWithMonitor(ctx context.Context, query, category string, monitor SearchMonitor) []core.Result {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query, category)

	products := e.catalog.AllProducts()

	keywordDone := make(chan []core.Product, 1)
	e.submit(func() {
		keywordDone <- MatchKeywords(products, query, category)
	})

	var semanticDone chan []core.Result
	if query != "" && e.index != nil {
		semanticDone = make(chan []core.Result, 1)
		e.submit(func() {
			semanticDone <- e.semanticSearch(ctx, query, monitor)
		})
	}

	keyword := <-keywordDone
	monitor.AfterKeywordSearch(productIDs(keyword))

	var semantic []core.Result
	if semanticDone != nil {
		semantic = <-semanticDone
	}

	var results []core.Result
	if len(keyword) > 0 {
		results = make([]core.Result, 0, MaxResults)
		seen := make(map[string]struct{}, MaxResults)
		for _, p := range keyword {
			results = append(results, core.NewResult(p))
			seen[p.ID] = struct{}{}
		}
		for _, r := range semantic {
			if len(results) >= MaxResults {
				break
			}
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			results = append(results, r)
		}
	} else {
		results = semantic
		if len(semantic) > 0 {
			e.logger.Debug("no keyword matches, returning semantic matches", "query", query, "count", len(semantic))
		}
	}

	if results == nil {
		results = []core.Result{}
	}
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	monitor.Finish(results)
	return results
}

// semanticSearch queries the index and joins hits to live catalog records.
// Failures are logged and yield no results. An index that was never built
// is not a failure.
func (e *Engine) semanticSearch(ctx context.Context, query string, monitor SearchMonitor) []core.Result {
	hits, err := e.queryIndex(ctx, query, MaxSemanticResults)
	if errors.Is(err, index.ErrIndexUnavailable) {
		e.logger.Debug("index unavailable, keyword-only", "query", query)
		return nil
	}
	if err != nil {
		e.logger.Warn("semantic search failed", "query", query, "err", err)
		monitor.SemanticFailure(err)
		return nil
	}
	monitor.AfterSemanticSearch(hits)

	results := make([]core.Result, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		// the index stock snapshot may be stale
		p, ok := e.catalog.GetProduct(hit.ID)
		if !ok || !p.InStock() {
			continue
		}
		seen[hit.ID] = struct{}{}
		results = append(results, core.NewSemanticResult(p, hit.Score))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	return results
}

// queryIndex calls the index with the configured timeout, converting panics to errors.
func (e *Engine) queryIndex(ctx context.Context, text string, limit int) (hits []core.SearchHit, err error) {
	if e.semanticTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.semanticTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("vector index panic: %v", r)
		}
	}()
	return e.index.Search(ctx, text, limit, minStock)
}

// Related returns up to MaxRelated in-stock products similar to productID,
// never including the product itself. An unknown product yields no results.
// When the index is unavailable or fails, products of the same category
// are returned by descending rating.
func (e *Engine) Related(ctx context.Context, productID string) []core.Result {
	anchor, ok := e.catalog.GetProduct(productID)
	if !ok {
		return []core.Result{}
	}
	if e.index == nil {
		return e.relatedByCategory(anchor)
	}

	hits, err := e.queryIndex(ctx, anchor.Name+" "+anchor.Category, relatedCandidates)
	if errors.Is(err, index.ErrIndexUnavailable) {
		e.logger.Debug("index unavailable, related by category", "product", productID)
		return e.relatedByCategory(anchor)
	}
	if err != nil {
		e.logger.Warn("vector search for related products failed", "product", productID, "err", err)
		return e.relatedByCategory(anchor)
	}

	related := make([]core.Result, 0, len(hits))
	seen := map[string]struct{}{anchor.ID: {}}
	for _, hit := range hits {
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		p, ok := e.catalog.GetProduct(hit.ID)
		if !ok || !p.InStock() {
			continue
		}
		seen[hit.ID] = struct{}{}
		related = append(related, core.Result{Product: p, SimilarityScore: core.RoundScore(hit.Score)})
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].SimilarityScore > related[j].SimilarityScore
	})
	if len(related) > MaxRelated {
		related = related[:MaxRelated]
	}
	return related
}

func (e *Engine) relatedByCategory(anchor core.Product) []core.Result {
	var candidates []core.Product
	for _, p := range e.catalog.AllProducts() {
		if p.Category == anchor.Category && p.ID != anchor.ID && p.InStock() {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rating > candidates[j].Rating
	})
	return toResults(candidates, MaxRelated)
}

// Recommendations returns up to MaxRecommendations in-stock products ordered
// by rating, then stock, both descending.
func (e *Engine) Recommendations() []core.Result {
	var available []core.Product
	for _, p := range e.catalog.AllProducts() {
		if p.InStock() {
			available = append(available, p)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Rating != available[j].Rating {
			return available[i].Rating > available[j].Rating
		}
		return available[i].Stock > available[j].Stock
	})
	return toResults(available, MaxRecommendations)
}

func toResults(products []core.Product, max int) []core.Result {
	if len(products) > max {
		products = products[:max]
	}
	results := make([]core.Result, len(products))
	for i, p := range products {
		results[i] = core.NewResult(p)
	}
	return results
}

func productIDs(products []core.Product) []string {
	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}
