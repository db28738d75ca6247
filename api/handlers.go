package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/storefront/core"
)

const maxBodyBytes = 1 << 20

// Handler serves the storefront routes.
type Handler struct {
	catalog  Catalog
	searcher Searcher
	metrics  *Metrics
	timeout  time.Duration
	logger   *slog.Logger
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type policyResponse struct {
	PolicyText string `json:"policyText"`
}

type createOrderRequest struct {
	UserID string          `json:"userId"`
	Items  []core.LineItem `json:"items"`
}

// Health answers GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Storefront backend is running"})
}

// SearchProducts runs a hybrid search for the q and cat query parameters.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results := h.searcher.Search(r.Context(), q.Get("q"), q.Get("cat"))
	h.logger.Debug("search", "query", q.Get("q"), "category", q.Get("cat"), "results", len(results))
	h.writeJSON(w, http.StatusOK, results)
}

// Recommendations lists the top rated products in stock.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Recommendations())
}

// GetProduct returns one product or 404.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.catalog.GetProduct(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// RelatedProducts returns products similar to the one in the path.
func (h *Handler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Related(r.Context(), chi.URLParam(r, "id")))
}

// ProductFAQs returns the FAQs of a product, empty when it has none.
func (h *Handler) ProductFAQs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.FAQs(chi.URLParam(r, "id")))
}

// ListOrders returns the orders of the userId query parameter.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.catalog.OrdersForCustomer(userID))
}

// GetOrder returns one order or 404.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.catalog.GetOrder(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

// CreateOrder places an order and answers 201 with it. Validation and
// stock errors are 400, unknown products 404.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		h.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	order, err := h.catalog.CreateOrder(req.UserID, req.Items)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, order)
	case errors.Is(err, core.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrEmptyOrder),
		errors.Is(err, core.ErrEmptyProductID),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInsufficientStock):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("failed to create order", "err", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create order")
	}
}

// CancelOrder always answers 200; failures are reported in the body.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	_, err := h.catalog.CancelOrder(chi.URLParam(r, "id"))
	resp := cancelResponse{Success: true, Message: "Order cancelled successfully."}
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNotFound):
		resp = cancelResponse{Message: "Order not found"}
	case errors.Is(err, core.ErrOrderNotCancellable):
		resp = cancelResponse{Message: "Cannot cancel delivered order."}
	default:
		h.logger.Error("failed to cancel order", "err", err)
		resp = cancelResponse{Message: err.Error()}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SearchPolicies returns the policy text matching the topic query parameter.
func (h *Handler) SearchPolicies(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		h.writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	h.writeJSON(w, http.StatusOK, policyResponse{PolicyText: h.catalog.SearchPolicies(topic)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, errorResponse{Detail: detail})
}
