package search

import (
	"container/heap"
	"sort"
)

// scoredNode pairs a frontier priority with its node. Priority is the negated
// score so the min-heap pops best-score-first; ordering consults the priority
// field only, never the node payload.
type scoredNode struct {
	priority float64
	node     *DraftNode
}

type nodeHeap []scoredNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(scoredNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Frontier is the bounded priority collection of candidate nodes awaiting
// expansion. It is owned exclusively by the search loop.
type Frontier struct {
	entries nodeHeap
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{}
	heap.Init(&f.entries)
	return f
}

// Len reports the number of frontier entries.
func (f *Frontier) Len() int {
	return len(f.entries)
}

// Push adds a node under an explicit priority.
func (f *Frontier) Push(priority float64, node *DraftNode) {
	heap.Push(&f.entries, scoredNode{priority: priority, node: node})
}

// PushScored adds a node with priority derived from its score.
func (f *Frontier) PushScored(score float64, node *DraftNode) {
	f.Push(-score, node)
}

// pop removes and returns the best-priority entry.
func (f *Frontier) pop() scoredNode {
	return heap.Pop(&f.entries).(scoredNode)
}

// Truncate keeps only the best beam entries, rebuilding the heap invariant.
func (f *Frontier) Truncate(beam int) {
	if beam <= 0 || len(f.entries) <= beam {
		return
	}
	sorted := make([]scoredNode, len(f.entries))
	copy(sorted, f.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})
	f.entries = sorted[:beam]
	heap.Init(&f.entries)
}
