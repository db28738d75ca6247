package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/poiesic/storefront/core"
)

// Data file names inside a catalog directory.
const (
	ProductsFile = "product_catalog.json"
	OrdersFile   = "order_database.json"
	FAQsFile     = "product_faqs.json"
	PoliciesFile = "Company_policies.md"
)

type rawProduct struct {
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name"`
	Category           string  `json:"category"`
	Price              float64 `json:"price"`
	StockAvailable     int     `json:"stock_available"`
	Description        string  `json:"description"`
	Rating             float64 `json:"rating"`
	ReviewCount        int     `json:"review_count"`
	DeliveryTimeDays   int     `json:"delivery_time_days"`
	ReturnEligible     bool    `json:"return_eligible"`
	DiscountPercentage float64 `json:"discount_percentage"`
}

type rawOrderItem struct {
	ProductID       string  `json:"product_id"`
	Quantity        *int    `json:"quantity,omitempty"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

type rawOrder struct {
	OrderID     string         `json:"order_id"`
	CustomerID  string         `json:"customer_id"`
	OrderStatus string         `json:"order_status"`
	OrderDate   string         `json:"order_date"`
	Items       []rawOrderItem `json:"items"`
}

type rawFAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type rawProductFAQs struct {
	ProductID string   `json:"product_id"`
	FAQs      []rawFAQ `json:"faqs"`
}

// Load reads a catalog directory. Missing files are logged and leave their
// collection empty; malformed files are an error. Invalid products are
// skipped but kept for write-back. Order mutations are written back to the
// directory.
func Load(dir string, opts ...Option) (*Store, error) {
	s := newStore(opts...)
	s.dir = dir

	var products []rawProduct
	found, err := readJSON(filepath.Join(dir, ProductsFile), &products)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("product catalog not found", "dir", dir)
	}
	for _, rp := range products {
		p := rp.toProduct()
		if err := core.ValidateProduct(&p); err != nil {
			s.logger.Warn("skipping invalid product", "err", err)
			s.rejected = append(s.rejected, rp)
			continue
		}
		if _, dup := s.byID[p.ID]; dup {
			s.logger.Warn("skipping duplicate product", "id", p.ID)
			s.rejected = append(s.rejected, rp)
			continue
		}
		s.byID[p.ID] = len(s.products)
		s.products = append(s.products, p)
	}

	var orders []rawOrder
	if found, err = readJSON(filepath.Join(dir, OrdersFile), &orders); err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("order database not found", "dir", dir)
	}
	for _, ro := range orders {
		s.orders = append(s.orders, s.toOrder(ro))
	}

	var faqs []rawProductFAQs
	if found, err = readJSON(filepath.Join(dir, FAQsFile), &faqs); err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("product faqs not found", "dir", dir)
	}
	for _, pf := range faqs {
		for _, f := range pf.FAQs {
			s.faqs = append(s.faqs, core.FAQ{ProductID: pf.ProductID, Question: f.Question, Answer: f.Answer})
		}
	}

	content, err := os.ReadFile(filepath.Join(dir, PoliciesFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Warn("company policies not found", "dir", dir)
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", PoliciesFile, err)
	default:
		s.policies = ParsePolicies(string(content))
	}

	s.logger.Info("catalog loaded",
		"products", len(s.products), "orders", len(s.orders),
		"faqs", len(s.faqs), "policies", len(s.policies))
	return s, nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func (rp rawProduct) toProduct() core.Product {
	return core.Product{
		ID:                 rp.ProductID,
		Name:               rp.ProductName,
		Category:           rp.Category,
		Price:              rp.Price,
		Stock:              rp.StockAvailable,
		Description:        rp.Description,
		Rating:             rp.Rating,
		Reviews:            rp.ReviewCount,
		DeliveryTimeDays:   rp.DeliveryTimeDays,
		ReturnEligible:     rp.ReturnEligible,
		DiscountPercentage: rp.DiscountPercentage,
		Features:           core.FeaturesFromDescription(rp.Description),
	}
}

func fromProduct(p *core.Product) rawProduct {
	return rawProduct{
		ProductID:          p.ID,
		ProductName:        p.Name,
		Category:           p.Category,
		Price:              p.Price,
		StockAvailable:     p.Stock,
		Description:        p.Description,
		Rating:             p.Rating,
		ReviewCount:        p.Reviews,
		DeliveryTimeDays:   p.DeliveryTimeDays,
		ReturnEligible:     p.ReturnEligible,
		DiscountPercentage: p.DiscountPercentage,
	}
}

// toOrder maps a stored order. A missing quantity counts as one and item
// names are taken from the catalog when the product is known.
func (s *Store) toOrder(ro rawOrder) core.Order {
	o := core.Order{
		ID:         ro.OrderID,
		CustomerID: ro.CustomerID,
		Status:     core.OrderStatus(ro.OrderStatus),
		Date:       ro.OrderDate,
		Items:      make([]core.OrderItem, 0, len(ro.Items)),
	}
	for _, ri := range ro.Items {
		qty := 1
		if ri.Quantity != nil {
			qty = *ri.Quantity
		}
		name := "Product " + ri.ProductID
		if i, ok := s.byID[ri.ProductID]; ok {
			name = s.products[i].Name
		}
		o.Items = append(o.Items, core.OrderItem{
			ProductID: ri.ProductID,
			Name:      name,
			Quantity:  qty,
			Price:     ri.PriceAtPurchase,
		})
		o.Total += ri.PriceAtPurchase * float64(qty)
	}
	return o
}

func fromOrder(o *core.Order) rawOrder {
	ro := rawOrder{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		OrderStatus: string(o.Status),
		OrderDate:   o.Date,
		Items:       make([]rawOrderItem, len(o.Items)),
	}
	for i, item := range o.Items {
		qty := item.Quantity
		ro.Items[i] = rawOrderItem{ProductID: item.ProductID, Quantity: &qty, PriceAtPurchase: item.Price}
	}
	return ro
}

// saveProducts writes the catalog back to disk, followed by the records Load
// skipped. Caller holds the write lock. Failures are logged; the in-memory
// state stays authoritative.
func (s *Store) saveProducts() {
	if s.dir == "" {
		return
	}
	raw := make([]rawProduct, 0, len(s.products)+len(s.rejected))
	for i := range s.products {
		raw = append(raw, fromProduct(&s.products[i]))
	}
	raw = append(raw, s.rejected...)
	if err := writeJSON(filepath.Join(s.dir, ProductsFile), raw); err != nil {
		s.logger.Error("failed to save products", "err", err)
	}
}

// saveOrders writes the orders back to disk. Caller holds the write lock.
func (s *Store) saveOrders() {
	if s.dir == "" {
		return
	}
	raw := make([]rawOrder, len(s.orders))
	for i := range s.orders {
		raw[i] = fromOrder(&s.orders[i])
	}
	if err := writeJSON(filepath.Join(s.dir, OrdersFile), raw); err != nil {
		s.logger.Error("failed to save orders", "err", err)
	}
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
