package search

import (
	"github.com/poiesic/storefront/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks may be called from worker goroutines and must be safe for concurrent use.
type SearchMonitor interface {
	Start(query, category string)
	AfterKeywordSearch(ids []string)
	AfterSemanticSearch(hits []core.SearchHit)
	SemanticFailure(err error)
	Finish(results []core.Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                      {}
func (n *noopMonitor) AfterKeywordSearch(_ []string)          {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.SearchHit) {}
func (n *noopMonitor) SemanticFailure(_ error)                {}
func (n *noopMonitor) Finish(_ []core.Result)                 {}
