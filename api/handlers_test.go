package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/storefront/catalog"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	store   *catalog.Store
	metrics *Metrics
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := catalog.NewStore([]core.Product{
		{ID: "P1", Name: "Wireless Earbuds", Category: "Audio", Price: 50, Stock: 5, Rating: 4.5},
		{ID: "P2", Name: "Studio Headphones", Category: "Audio", Price: 120, Stock: 2, Rating: 4.8},
		{ID: "P3", Name: "Leather Wallet", Category: "Accessories", Price: 30, Stock: 0, Rating: 4.9},
	},
		catalog.WithOrders([]core.Order{
			{ID: "ORD-1001", CustomerID: "C1", Status: core.OrderStatusShipped},
			{ID: "ORD-2002", CustomerID: "C1", Status: core.OrderStatusDelivered},
		}),
		catalog.WithFAQs([]core.FAQ{{ProductID: "P1", Question: "Waterproof?", Answer: "IPX4"}}),
		catalog.WithPolicies([]core.Policy{{Title: "Return Policy", Body: "30 days."}}),
		catalog.WithClock(func() time.Time { return time.Unix(1741944600, 0).UTC() }),
		catalog.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	metrics := NewMetrics()
	engine, err := search.NewEngine(store, nil, search.WithLogger(quietLogger()), search.WithMonitor(metrics))
	require.NoError(t, err)
	t.Cleanup(engine.Release)

	return &testServer{
		store:   store,
		metrics: metrics,
		handler: NewRouter(store, engine, WithLogger(quietLogger()), WithMetrics(metrics)),
	}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[healthResponse](t, w).Status)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodOptions, "/api/orders", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearchProducts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products/search?q=earbuds", "")
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]core.Result](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].ID)

	w = s.do(t, http.MethodGet, "/api/products/search?cat=audio", "")
	assert.Len(t, decode[[]core.Result](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/products/search?q=wallet", "")
	assert.Equal(t, "[]\n", w.Body.String(), "out of stock products are never returned")
}

func TestSearchProducts_SemanticFields(t *testing.T) {
	searcher := stubSearcher{results: []core.Result{
		core.NewResult(core.Product{ID: "K1", Stock: 1}),
		core.NewSemanticResult(core.Product{ID: "S1", Stock: 1}, 0.41237),
	}}
	h := NewRouter(newTestServer(t).store, searcher, WithLogger(quietLogger()))
	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=x", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var raw []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	require.Len(t, raw, 2)
	assert.NotContains(t, raw[0], "source")
	assert.NotContains(t, raw[0], "similarity_score")
	assert.Equal(t, "semantic_match", raw[1]["source"])
	assert.InDelta(t, 0.4124, raw[1]["similarity_score"], 1e-9)
}

func TestRecommendations(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/products/recommendations", "")
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]core.Result](t, w)
	require.Len(t, results, 2)
	assert.Equal(t, "P2", results[0].ID)
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products/P2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Studio Headphones", decode[core.Product](t, w).Name)

	w = s.do(t, http.MethodGet, "/api/products/P404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode[errorResponse](t, w).Detail)
}

func TestRelatedAndFAQ(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products/P1/related", "")
	require.Equal(t, http.StatusOK, w.Code)
	related := decode[[]core.Result](t, w)
	require.Len(t, related, 1)
	assert.Equal(t, "P2", related[0].ID)

	w = s.do(t, http.MethodGet, "/api/products/P1/faq", "")
	assert.Len(t, decode[[]core.FAQ](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/products/P2/faq", "")
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestOrders(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/orders?userId=C1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]core.Order](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/orders/1001", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD-1001", decode[core.Order](t, w).ID)

	w = s.do(t, http.MethodGet, "/api/orders/ORD-9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", decode[errorResponse](t, w).Detail)
}

func TestCreateOrder(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"userId":"C7","items":[{"productId":"P1","quantity":2}]}`, http.StatusCreated},
		{"malformed", `{"userId":`, http.StatusBadRequest},
		{"missing user", `{"items":[{"productId":"P1","quantity":1}]}`, http.StatusBadRequest},
		{"no items", `{"userId":"C7","items":[]}`, http.StatusBadRequest},
		{"unknown product", `{"userId":"C7","items":[{"productId":"PX","quantity":1}]}`, http.StatusNotFound},
		{"insufficient stock", `{"userId":"C7","items":[{"productId":"P2","quantity":3}]}`, http.StatusBadRequest},
		{"missing product id", `{"userId":"C7","items":[{"quantity":1}]}`, http.StatusBadRequest},
		{"bad quantity", `{"userId":"C7","items":[{"productId":"P1","quantity":0}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/orders", `{"userId":"C7","items":[{"productId":"P1","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode[core.Order](t, w)
	assert.Equal(t, "ORD-1741944600", order.ID)
	assert.InDelta(t, 100.0, order.Total, 1e-9)
	p1, _ := s.store.GetProduct("P1")
	assert.Equal(t, 3, p1.Stock)
}

func TestCancelOrder(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		id      string
		success bool
		message string
	}{
		{"ORD-1001", true, "Order cancelled successfully."},
		{"ORD-2002", false, "Cannot cancel delivered order."},
		{"ORD-9999", false, "Order not found"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/orders/"+tt.id+"/cancel", "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[cancelResponse](t, w)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestSearchPolicies(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/policies/search?topic=return", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "**Return Policy**\n\n30 days.", decode[policyResponse](t, w).PolicyText)

	w = s.do(t, http.MethodGet, "/api/policies/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecovery(t *testing.T) {
	h := NewRouter(newTestServer(t).store, stubSearcher{panics: true}, WithLogger(quietLogger()))
	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=x", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { h.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type stubSearcher struct {
	results []core.Result
	panics  bool
}

func (s stubSearcher) Search(_ context.Context, _, _ string) []core.Result {
	if s.panics {
		panic("boom")
	}
	return s.results
}

func (s stubSearcher) Related(_ context.Context, _ string) []core.Result { return s.results }
func (s stubSearcher) Recommendations() []core.Result                    { return s.results }
