package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity below which hits are dropped.
	DefaultMinSimilarity = 0.02

	// DefaultMaxFeatures caps the vocabulary size.
	DefaultMaxFeatures = 1000
)

// ProgressFunc receives the number of vectorized documents during a build.
type ProgressFunc func(done, total int)

// Index is a TF-IDF vector index over the product catalog.
// A built index is immutable; Build replaces it wholesale.
type Index struct {
	mu       sync.RWMutex
	snapshot *core.IndexSnapshot
	columns  map[string]int

	cache         storage.IndexCache
	minSimilarity float64
	maxFeatures   int
	progress      ProgressFunc
	logger        *slog.Logger
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithCache persists built snapshots so an unchanged catalog is not vectorized again.
func WithCache(cache storage.IndexCache) Option {
	return func(ix *Index) error {
		ix.cache = cache
		return nil
	}
}

// WithMinSimilarity sets the similarity floor. Default is DefaultMinSimilarity.
func WithMinSimilarity(min float64) Option {
	return func(ix *Index) error {
		if min < 0 || min > 1 {
			return fmt.Errorf("min similarity %v out of range [0,1]", min)
		}
		ix.minSimilarity = min
		return nil
	}
}

// WithMaxFeatures caps the vocabulary size. Default is DefaultMaxFeatures.
func WithMaxFeatures(n int) Option {
	return func(ix *Index) error {
		if n < 1 {
			return fmt.Errorf("max features must be positive, got %d", n)
		}
		ix.maxFeatures = n
		return nil
	}
}

// WithProgress reports vectorization progress during Build.
func WithProgress(fn ProgressFunc) Option {
	return func(ix *Index) error {
		ix.progress = fn
		return nil
	}
}

// New creates an empty, unbuilt index.
func New(opts ...Option) (*Index, error) {
	ix := &Index{
		minSimilarity: DefaultMinSimilarity,
		maxFeatures:   DefaultMaxFeatures,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "index")
	return ix, nil
}

// Built reports whether the index can answer queries.
func (ix *Index) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snapshot != nil
}

// Size returns the number of indexed products.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.snapshot == nil {
		return 0
	}
	return ix.snapshot.Size()
}

// Snapshot returns the current snapshot, or nil when the index is not built.
// The snapshot must not be modified.
func (ix *Index) Snapshot() *core.IndexSnapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.snapshot
}

// Build indexes products, replacing the current index. A cached snapshot for
// the same catalog is used instead of vectorizing when available. On error
// the previous index stays in place.
func (ix *Index) Build(ctx context.Context, products []core.Product) error {
	if len(products) == 0 {
		return ErrNoProducts
	}

	digest := core.CatalogDigest(products)
	if snap := ix.loadCached(ctx, digest, len(products)); snap != nil {
		ix.install(snap)
		ix.logger.Info("loaded index from cache", "products", len(products), "digest", digest)
		return nil
	}

	ix.logger.Info("indexing products", "products", len(products))
	documents := make([]string, len(products))
	ids := make([]string, len(products))
	meta := make([]core.HitMeta, len(products))
	for i := range products {
		p := &products[i]
		documents[i] = Document(p)
		ids[i] = p.ID
		meta[i] = core.HitMeta{Name: p.Name, Category: p.Category, Price: p.Price, Stock: p.Stock}
		if ix.progress != nil {
			ix.progress(i+1, len(products))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	vocabulary, idf, vectors := fit(documents, ix.maxFeatures)
	snap := &core.IndexSnapshot{
		Digest:      digest,
		MaxFeatures: ix.maxFeatures,
		Vocabulary:  vocabulary,
		IDF:         idf,
		IDs:         ids,
		Meta:        meta,
		Vectors:     vectors,
	}
	ix.install(snap)

	if ix.cache != nil {
		if err := ix.cache.StoreSnapshot(ctx, snap); err != nil {
			ix.logger.Warn("failed to cache index", "err", err)
		}
	}
	ix.logger.Info("indexed products", "products", len(products), "terms", len(vocabulary))
	return nil
}

func (ix *Index) loadCached(ctx context.Context, digest string, size int) *core.IndexSnapshot {
	if ix.cache == nil {
		return nil
	}
	snap, err := ix.cache.LoadSnapshot(ctx, digest)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ix.logger.Warn("cache load failed, rebuilding index", "err", err)
		}
		return nil
	}
	if snap.Digest != digest || snap.Size() != size {
		ix.logger.Warn("cached index does not match catalog, rebuilding", "digest", digest)
		return nil
	}
	if snap.MaxFeatures != ix.maxFeatures {
		ix.logger.Info("cached index used a different vocabulary cap, rebuilding",
			"cached", snap.MaxFeatures, "max_features", ix.maxFeatures)
		return nil
	}
	return snap
}

func (ix *Index) install(snap *core.IndexSnapshot) {
	columns := make(map[string]int, len(snap.Vocabulary))
	for i, term := range snap.Vocabulary {
		columns[term] = i
	}
	ix.mu.Lock()
	ix.snapshot = snap
	ix.columns = columns
	ix.mu.Unlock()
}

// Query returns up to limit hits for text whose indexed stock is at least
// minStock, ordered by descending similarity. It never fails: any error
// yields an empty result.
func (ix *Index) Query(ctx context.Context, text string, limit, minStock int) []core.SearchHit {
	hits, err := ix.Search(ctx, text, limit, minStock)
	if err != nil {
		ix.logger.Warn("semantic query failed", "query", text, "err", err)
		return []core.SearchHit{}
	}
	if hits == nil {
		return []core.SearchHit{}
	}
	return hits
}

// Search is Query with error reporting. Empty or whitespace-only text
// returns no hits and no error.
func (ix *Index) Search(ctx context.Context, text string, limit, minStock int) (hits []core.SearchHit, err error) {
	if strings.TrimSpace(text) == "" || limit <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	snap, columns := ix.snapshot, ix.columns
	ix.mu.RUnlock()
	if snap == nil || snap.Size() == 0 {
		return nil, ErrIndexUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("%w: %v", ErrQueryFailed, r)
		}
	}()

	query := make(map[int]float64)
	for _, e := range weigh(countTerms(analyze(text)), columns, snap.IDF) {
		query[e.Term] = e.Weight
	}
	if len(query) == 0 {
		return []core.SearchHit{}, nil
	}

	for i, vec := range snap.Vectors {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
			}
		}
		score := dot(vec, query)
		if score < ix.minSimilarity {
			continue
		}
		if snap.Meta[i].Stock < minStock {
			continue
		}
		hits = append(hits, core.SearchHit{ID: snap.IDs[i], Score: score, Meta: snap.Meta[i]})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []core.SearchHit{}
	}
	return hits, nil
}
