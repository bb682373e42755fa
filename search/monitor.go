package search

import "github.com/poiesic/minutia/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterCandidateFetch(count int)
	BelowThreshold(chunkID core.ID, score float32)
	Hit(chunkID core.ID, score float32)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)     {}
func (n *noopMonitor) AfterCandidateFetch(_ int)           {}
func (n *noopMonitor) BelowThreshold(_ core.ID, _ float32) {}
func (n *noopMonitor) Hit(_ core.ID, _ float32)            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}
