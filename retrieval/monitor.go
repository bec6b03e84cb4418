package retrieval

import (
	"github.com/poiesic/docent/core"
)

// SearchMonitor provides hooks to observe the search pipeline.
// Implement this interface to track intermediate stages and results during search.
type SearchMonitor interface {
	Start(query string)
	CacheHit(query string)
	AfterCandidateSelection(ids []core.ID)
	AfterSemanticPass(hits []*core.RetrievedChunk)
	AfterKeywordPass(hits []*core.RetrievedChunk)
	AfterFusion(hits []*core.RetrievedChunk)
	Finish(result *core.RetrievalContext)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) CacheHit(_ string)                          {}
func (n *noopMonitor) AfterCandidateSelection(_ []core.ID)        {}
func (n *noopMonitor) AfterSemanticPass(_ []*core.RetrievedChunk) {}
func (n *noopMonitor) AfterKeywordPass(_ []*core.RetrievedChunk)  {}
func (n *noopMonitor) AfterFusion(_ []*core.RetrievedChunk)       {}
func (n *noopMonitor) Finish(_ *core.RetrievalContext)            {}
