package retrieval

import "github.com/poiesic/syllabus/core"

// Monitor provides hooks to observe a context lookup.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string, currentIndex int)
	AfterQueryEmbedding(dimensions int)
	AfterSearch(hits []*core.RelevantChunk)
	Rejected(hit *core.RelevantChunk, reason error)
	Finish(hits []*core.RelevantChunk)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)              {}
func (n *noopMonitor) AfterSearch(_ []*core.RelevantChunk)    {}
func (n *noopMonitor) Rejected(_ *core.RelevantChunk, _ error) {}
func (n *noopMonitor) Finish(_ []*core.RelevantChunk)         {}
