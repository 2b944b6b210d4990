package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredDraft(draft string) *DraftNode {
	return NewDraftNode(DocumentState{Draft: draft}, nil, 0, "")
}

func TestFrontierPopsBestScoreFirst(t *testing.T) {
	f := NewFrontier()
	f.PushScored(0.2, scoredDraft("low"))
	f.PushScored(0.9, scoredDraft("high"))
	f.PushScored(0.5, scoredDraft("mid"))

	assert.Equal(t, "high", f.pop().node.Draft)
	assert.Equal(t, "mid", f.pop().node.Draft)
	assert.Equal(t, "low", f.pop().node.Draft)
	assert.Zero(t, f.Len())
}

func TestFrontierOrdersByPriorityOnly(t *testing.T) {
	f := NewFrontier()
	// Metrics carry a high score, but the explicit priority must win.
	rich := NewDraftNode(DocumentState{Draft: "rich"}, Metrics{"score": 99.0}, 0, "")
	poor := NewDraftNode(DocumentState{Draft: "poor"}, Metrics{"score": -99.0}, 0, "")

	f.Push(1.0, rich)
	f.Push(0.0, poor)

	assert.Equal(t, "poor", f.pop().node.Draft)
}

func TestFrontierTruncateKeepsBest(t *testing.T) {
	f := NewFrontier()
	for i, score := range []float64{0.1, 0.9, 0.5, 0.7, 0.3} {
		f.PushScored(score, scoredDraft(string(rune('a'+i))))
	}

	f.Truncate(2)

	require.Equal(t, 2, f.Len())
	assert.Equal(t, "b", f.pop().node.Draft) // 0.9
	assert.Equal(t, "d", f.pop().node.Draft) // 0.7
}

func TestFrontierTruncateNoopWhenSmall(t *testing.T) {
	f := NewFrontier()
	f.PushScored(0.5, scoredDraft("only"))

	f.Truncate(5)
	f.Truncate(0)

	assert.Equal(t, 1, f.Len())
}

func TestFrontierRevisitPriorityDegrades(t *testing.T) {
	f := NewFrontier()
	f.PushScored(0.9, scoredDraft("original"))

	entry := f.pop()
	clone := entry.node.Clone()
	clone.RevisitIndex++
	f.Push(entry.priority+0.05, clone)
	f.PushScored(0.9, scoredDraft("fresh"))

	// The fresh node at the same score outranks the degraded clone.
	assert.Equal(t, "fresh", f.pop().node.Draft)
	assert.Equal(t, 1, f.pop().node.RevisitIndex)
}
