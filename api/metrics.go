package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and search collectors of one server. Each Metrics
// registers into its own registry so several servers can coexist in a
// process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	searchesTotal     prometheus.Counter
	keywordMatches    prometheus.Histogram
	semanticHits      prometheus.Histogram
	semanticFailures  prometheus.Counter
	searchResultTotal *prometheus.CounterVec
}

var _ search.SearchMonitor = (*Metrics)(nil)

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storefront",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		searchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "searches_total",
			Help:      "Total number of product searches",
		}),
		keywordMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "search_keyword_matches",
			Help:      "Keyword matches per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		semanticHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "search_semantic_hits",
			Help:      "Vector index hits per search",
			Buckets:   []float64{0, 1, 2, 4, 8},
		}),
		semanticFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "search_semantic_failures_total",
			Help:      "Searches whose semantic path failed and fell back to keyword results",
		}),
		searchResultTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "search_results_total",
				Help:      "Search results returned, by source",
			},
			[]string{"source"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.searchesTotal,
		m.keywordMatches,
		m.semanticHits,
		m.semanticFailures,
		m.searchResultTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records HTTP request duration and count.
func (m *Metrics) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.status)

			// Use chi route pattern for path normalization
			path := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			m.httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
			m.httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// Start counts a search.
func (m *Metrics) Start(_, _ string) {
	m.searchesTotal.Inc()
}

// AfterKeywordSearch observes the number of keyword matches.
func (m *Metrics) AfterKeywordSearch(ids []string) {
	m.keywordMatches.Observe(float64(len(ids)))
}

// AfterSemanticSearch observes the number of index hits.
func (m *Metrics) AfterSemanticSearch(hits []core.SearchHit) {
	m.semanticHits.Observe(float64(len(hits)))
}

// SemanticFailure counts a failed index query.
func (m *Metrics) SemanticFailure(_ error) {
	m.semanticFailures.Inc()
}

// Finish counts returned results by source.
func (m *Metrics) Finish(results []core.Result) {
	for _, r := range results {
		source := "keyword"
		if r.Source == core.SourceSemantic {
			source = "semantic"
		}
		m.searchResultTotal.WithLabelValues(source).Inc()
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}
