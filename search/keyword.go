package search

import (
	"strings"

	"github.com/poiesic/storefront/core"
)

// MaxResults caps the results of Engine.Search.
const MaxResults = 10

// MatchKeywords filters products by category and query text.
//
// A non-empty category matches when either lowercased category contains the
// other. A non-empty query matches when it is a substring of the lowercased
// name, description or category. Out-of-stock products are dropped and the
// result keeps catalog order, capped at MaxResults.
func MatchKeywords(products []core.Product, query, category string) []core.Product {
	cat := strings.ToLower(category)
	q := strings.ToLower(query)

	matches := make([]core.Product, 0, MaxResults)
	for i := range products {
		p := &products[i]
		if cat != "" {
			pc := strings.ToLower(p.Category)
			if !strings.Contains(pc, cat) && !strings.Contains(cat, pc) {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			continue
		}
		if !p.InStock() {
			continue
		}
		matches = append(matches, *p)
		if len(matches) == MaxResults {
			break
		}
	}
	return matches
}
