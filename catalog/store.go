package catalog

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/storefront/core"
)

const policyNotFound = "I couldn't find a specific policy for that topic. Please check our General Terms."

// Store is the authoritative in-memory catalog: products, orders, FAQs and
// policies. Readers receive copies; mutations take the write lock and notify
// change listeners after it is released.
type Store struct {
	mu       sync.RWMutex
	products []core.Product
	byID     map[string]int
	orders   []core.Order
	faqs     []core.FAQ
	policies []core.Policy

	dir       string
	rejected  []rawProduct
	listeners []func()
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithClock overrides the time source used for order IDs and dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOrders seeds the store with orders.
func WithOrders(orders []core.Order) Option {
	return func(s *Store) {
		for _, o := range orders {
			s.orders = append(s.orders, o.Clone())
		}
	}
}

// WithFAQs seeds the store with FAQs.
func WithFAQs(faqs []core.FAQ) Option {
	return func(s *Store) {
		s.faqs = append(s.faqs, faqs...)
	}
}

// WithPolicies seeds the store with policy sections.
func WithPolicies(policies []core.Policy) Option {
	return func(s *Store) {
		s.policies = append(s.policies, policies...)
	}
}

// NewStore creates an in-memory store. Products failing validation are
// rejected, as are duplicate IDs.
func NewStore(products []core.Product, opts ...Option) (*Store, error) {
	s := newStore(opts...)
	for i := range products {
		if err := core.ValidateProduct(&products[i]); err != nil {
			return nil, err
		}
		if _, dup := s.byID[products[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", core.ErrInvalidProduct, products[i].ID)
		}
		s.byID[products[i].ID] = len(s.products)
		s.products = append(s.products, products[i].Clone())
	}
	return s, nil
}

func newStore(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]int),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "catalog")
	return s
}

// OnChange registers fn to be called after every product mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// GetProduct returns the product with the given ID.
func (s *Store) GetProduct(id string) (core.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return core.Product{}, false
	}
	return s.products[i].Clone(), true
}

// AllProducts returns a snapshot of the catalog in file order.
func (s *Store) AllProducts() []core.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Product, len(s.products))
	for i := range s.products {
		out[i] = s.products[i].Clone()
	}
	return out
}

// FAQs returns the questions attached to a product.
func (s *Store) FAQs(productID string) []core.FAQ {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.FAQ{}
	for _, f := range s.faqs {
		if f.ProductID == productID {
			out = append(out, f)
		}
	}
	return out
}

// OrdersForCustomer returns the orders placed by a customer.
func (s *Store) OrdersForCustomer(customerID string) []core.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Order{}
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	return out
}

// GetOrder looks an order up by exact ID, then case-insensitively, then
// (for IDs of two or more characters) by substring or suffix.
func (s *Store) GetOrder(id string) (core.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findOrder(id)
	if i < 0 {
		return core.Order{}, false
	}
	return s.orders[i].Clone(), true
}

func (s *Store) findOrder(id string) int {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return i
		}
	}
	for i := range s.orders {
		if strings.EqualFold(s.orders[i].ID, id) {
			return i
		}
	}
	if len(id) >= 2 {
		for i := range s.orders {
			if strings.Contains(s.orders[i].ID, id) || strings.HasSuffix(s.orders[i].ID, id) {
				return i
			}
		}
	}
	return -1
}

// CancelOrder marks an order cancelled. Delivered orders cannot be cancelled.
func (s *Store) CancelOrder(id string) (core.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findOrder(id)
	if i < 0 {
		return core.Order{}, fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	order := &s.orders[i]
	if order.Status == core.OrderStatusDelivered {
		return order.Clone(), fmt.Errorf("order %s is delivered: %w", order.ID, core.ErrOrderNotCancellable)
	}
	order.Status = core.OrderStatusCancelled
	s.saveOrders()
	return order.Clone(), nil
}

// CreateOrder places an order, deducting stock. Every line is validated
// before any stock changes, so a failed order leaves the catalog untouched.
func (s *Store) CreateOrder(customerID string, items []core.LineItem) (core.Order, error) {
	if err := core.ValidateLineItems(items); err != nil {
		return core.Order{}, err
	}

	s.mu.Lock()
	requested := make(map[string]int, len(items))
	for _, item := range items {
		i, ok := s.byID[item.ProductID]
		if !ok {
			s.mu.Unlock()
			return core.Order{}, fmt.Errorf("product %s: %w", item.ProductID, core.ErrNotFound)
		}
		requested[item.ProductID] += item.Quantity
		if p := &s.products[i]; p.Stock < requested[item.ProductID] {
			s.mu.Unlock()
			return core.Order{}, fmt.Errorf("%w for %s", core.ErrInsufficientStock, p.Name)
		}
	}

	now := s.now()
	order := core.Order{
		ID:         s.nextOrderID(now),
		CustomerID: customerID,
		Status:     core.OrderStatusProcessing,
		Date:       now.Format(time.DateOnly),
		Items:      make([]core.OrderItem, 0, len(items)),
	}
	for _, item := range items {
		p := &s.products[s.byID[item.ProductID]]
		p.Stock -= item.Quantity
		order.Items = append(order.Items, core.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     p.Price,
		})
		order.Total += p.Price * float64(item.Quantity)
	}
	s.orders = append(s.orders, order)
	s.saveProducts()
	s.saveOrders()
	s.mu.Unlock()

	s.logger.Info("order created", "order", order.ID, "customer", customerID, "items", len(order.Items))
	s.notify()
	return order.Clone(), nil
}

func (s *Store) nextOrderID(now time.Time) string {
	base := "ORD-" + strconv.FormatInt(now.Unix(), 10)
	id := base
	for n := 2; s.hasOrder(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func (s *Store) hasOrder(id string) bool {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return true
		}
	}
	return false
}

// Policies returns the policy sections in document order.
func (s *Store) Policies() []core.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Policy{}, s.policies...)
}

// SearchPolicies returns the first policy whose title, or failing that whose
// body, contains topic, formatted as markdown.
func (s *Store) SearchPolicies(topic string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := strings.ToLower(topic)
	for _, p := range s.policies {
		if strings.Contains(strings.ToLower(p.Title), t) {
			return formatPolicy(p)
		}
	}
	for _, p := range s.policies {
		if strings.Contains(strings.ToLower(p.Body), t) {
			return formatPolicy(p)
		}
	}
	return policyNotFound
}

func formatPolicy(p core.Policy) string {
	return "**" + p.Title + "**\n\n" + p.Body
}
