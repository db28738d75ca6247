package core

import (
	"math"
	"strings"
)

// Product is a catalog entry. The JSON field names follow the storefront frontend.
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	Price              float64  `json:"price"`
	Stock              int      `json:"stock"`
	Description        string   `json:"description"`
	Rating             float64  `json:"rating"`
	Reviews            int      `json:"reviews"`
	DeliveryTimeDays   int      `json:"deliveryTimeDays"`
	ReturnEligible     bool     `json:"returnEligible"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Features           []string `json:"features,omitempty"`
}

// InStock reports whether the product can be sold.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	if p.Features != nil {
		p.Features = append([]string(nil), p.Features...)
	}
	return p
}

// FeaturesFromDescription derives the feature list shown by the frontend:
// the description split on periods.
func FeaturesFromDescription(description string) []string {
	return strings.Split(description, ".")
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a customer order.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Status     OrderStatus `json:"status"`
	Date       string      `json:"date"`
	Total      float64     `json:"total"`
	Items      []OrderItem `json:"items"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = append([]OrderItem(nil), o.Items...)
	}
	return o
}

// LineItem is a requested product quantity when placing an order.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// FAQ is a question/answer pair attached to a product.
type FAQ struct {
	ProductID string `json:"productId"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Policy is one titled section of the company policy document.
type Policy struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// HitMeta is the product data captured by the vector index at build time.
// It can drift from the catalog once stock changes.
type HitMeta struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// SearchHit is a single vector index match.
type SearchHit struct {
	ID    string
	Score float64
	Meta  HitMeta
}

// Source marks which search path produced a result.
type Source string

const (
	// SourceKeyword marks results of the keyword matcher. It is omitted from JSON.
	SourceKeyword Source = ""
	// SourceSemantic marks results joined from vector index hits.
	SourceSemantic Source = "semantic_match"
)

// Result is a product as returned by search, related-products and recommendations.
type Result struct {
	Product
	Source          Source  `json:"source,omitempty"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
}

// NewResult wraps a product without provenance.
func NewResult(p Product) Result {
	return Result{Product: p}
}

// NewSemanticResult wraps a product joined from a vector index hit.
func NewSemanticResult(p Product, score float64) Result {
	return Result{
		Product:         p,
		Source:          SourceSemantic,
		SimilarityScore: RoundScore(score),
	}
}

// RoundScore rounds a similarity score to three decimals.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}

// SparseWeight is a single non-zero entry of a document vector.
type SparseWeight struct {
	Term   int
	Weight float64
}

// IndexSnapshot is the persisted state of a built vector index.
// Vocabulary[i] is the term of column i; Vectors[j] belongs to IDs[j].
// MaxFeatures is the vocabulary cap the snapshot was built with.
type IndexSnapshot struct {
	Digest      string
	MaxFeatures int
	Vocabulary  []string
	IDF         []float64
	IDs         []string
	Meta        []HitMeta
	Vectors     [][]SparseWeight
}

// Size returns the number of indexed documents.
func (s *IndexSnapshot) Size() int {
	return len(s.IDs)
}
