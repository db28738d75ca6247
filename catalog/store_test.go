package catalog

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/storefront/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	products := []core.Product{
		{ID: "P1", Name: "Wireless Earbuds", Category: "Audio", Price: 50, Stock: 5, Features: []string{"a"}},
		{ID: "P2", Name: "Smart Watch", Category: "Wearables", Price: 120, Stock: 1},
	}
	orders := []core.Order{
		{ID: "ORD-1001", CustomerID: "C1", Status: core.OrderStatusShipped},
		{ID: "ORD-2002", CustomerID: "C2", Status: core.OrderStatusDelivered},
		{ID: "O0099", CustomerID: "C1", Status: core.OrderStatusProcessing},
	}
	s, err := NewStore(products,
		WithOrders(orders),
		WithFAQs([]core.FAQ{{ProductID: "P1", Question: "Waterproof?", Answer: "IPX4"}}),
		WithPolicies([]core.Policy{
			{Title: "Return Policy", Body: "Returns within 30 days."},
			{Title: "Shipping", Body: "Free shipping over $50. Express returns label included."},
		}),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	return s
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore([]core.Product{{ID: "P1", Stock: -1}})
	assert.ErrorIs(t, err, core.ErrNegativeStock)

	_, err = NewStore([]core.Product{{ID: "P1"}, {ID: "P1"}})
	assert.ErrorIs(t, err, core.ErrInvalidProduct)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	s := newTestStore(t)

	p, ok := s.GetProduct("P1")
	require.True(t, ok)
	p.Stock = 0
	p.Features[0] = "changed"

	again, _ := s.GetProduct("P1")
	assert.Equal(t, 5, again.Stock)
	assert.Equal(t, "a", again.Features[0])

	all := s.AllProducts()
	all[1].Name = "changed"
	assert.Equal(t, "Smart Watch", s.AllProducts()[1].Name)

	_, ok = s.GetProduct("missing")
	assert.False(t, ok)
}

func TestStore_GetOrder(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name  string
		query string
		want  string
		found bool
	}{
		{"exact", "ORD-1001", "ORD-1001", true},
		{"case-insensitive", "ord-2002", "ORD-2002", true},
		{"substring", "1001", "ORD-1001", true},
		{"suffix", "99", "O0099", true},
		{"too short for partial", "9", "", false},
		{"unknown", "ORD-7777", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok := s.GetOrder(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, o.ID)
		})
	}
}

func TestStore_OrdersForCustomer(t *testing.T) {
	s := newTestStore(t)
	orders := s.OrdersForCustomer("C1")
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-1001", orders[0].ID)
	assert.Empty(t, s.OrdersForCustomer("nobody"))
	assert.NotNil(t, s.OrdersForCustomer("nobody"))
}

func TestStore_CancelOrder(t *testing.T) {
	s := newTestStore(t)

	o, err := s.CancelOrder("1001")
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusCancelled, o.Status)
	stored, _ := s.GetOrder("ORD-1001")
	assert.Equal(t, core.OrderStatusCancelled, stored.Status)

	_, err = s.CancelOrder("ORD-2002")
	assert.ErrorIs(t, err, core.ErrOrderNotCancellable)

	_, err = s.CancelOrder("nope-nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_CreateOrder(t *testing.T) {
	s := newTestStore(t)
	var changes atomic.Int32
	s.OnChange(func() { changes.Add(1) })

	order, err := s.CreateOrder("C9", []core.LineItem{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD-1741944600", order.ID)
	assert.Equal(t, "2025-03-14", order.Date)
	assert.Equal(t, core.OrderStatusProcessing, order.Status)
	assert.Equal(t, "C9", order.CustomerID)
	assert.InDelta(t, 220.0, order.Total, 1e-9)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Wireless Earbuds", order.Items[0].Name)

	p1, _ := s.GetProduct("P1")
	p2, _ := s.GetProduct("P2")
	assert.Equal(t, 3, p1.Stock)
	assert.Equal(t, 0, p2.Stock)
	assert.Equal(t, int32(1), changes.Load())

	second, err := s.CreateOrder("C9", []core.LineItem{{ProductID: "P1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1741944600-2", second.ID, "order ids stay unique within a second")
}

func TestStore_CreateOrderFailuresLeaveStock(t *testing.T) {
	tests := []struct {
		name    string
		items   []core.LineItem
		wantErr error
	}{
		{"empty", nil, core.ErrEmptyOrder},
		{"unknown product", []core.LineItem{{ProductID: "P1", Quantity: 1}, {ProductID: "PX", Quantity: 1}}, core.ErrNotFound},
		{"insufficient stock", []core.LineItem{{ProductID: "P1", Quantity: 1}, {ProductID: "P2", Quantity: 2}}, core.ErrInsufficientStock},
		{"repeated lines exceed stock", []core.LineItem{{ProductID: "P2", Quantity: 1}, {ProductID: "P2", Quantity: 1}}, core.ErrInsufficientStock},
		{"zero quantity", []core.LineItem{{ProductID: "P1", Quantity: 0}}, core.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			notified := false
			s.OnChange(func() { notified = true })

			_, err := s.CreateOrder("C1", tt.items)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			p1, _ := s.GetProduct("P1")
			p2, _ := s.GetProduct("P2")
			assert.Equal(t, 5, p1.Stock)
			assert.Equal(t, 1, p2.Stock)
			assert.Len(t, s.OrdersForCustomer("C1"), 2)
			assert.False(t, notified)
		})
	}
}

func TestStore_FAQs(t *testing.T) {
	s := newTestStore(t)
	assert.Len(t, s.FAQs("P1"), 1)
	assert.Empty(t, s.FAQs("P2"))
}

func TestStore_SearchPolicies(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, "**Return Policy**\n\nReturns within 30 days.", s.SearchPolicies("return"))
	assert.Equal(t, "**Shipping**\n\nFree shipping over $50. Express returns label included.", s.SearchPolicies("EXPRESS"))
	assert.Equal(t, policyNotFound, s.SearchPolicies("warranty"))
}
