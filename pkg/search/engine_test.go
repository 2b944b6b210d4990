package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExpander emits one child per expansion with a draft from the script, or
// nothing once the script is exhausted. It records every node it was asked to
// expand.
type stubExpander struct {
	drafts   []string
	next     int
	expanded []*DraftNode
}

func (s *stubExpander) Expand(ctx context.Context, node *DraftNode) []DocumentState {
	s.expanded = append(s.expanded, node)
	if s.next >= len(s.drafts) {
		return nil
	}
	draft := s.drafts[s.next]
	s.next++
	return []DocumentState{{Draft: draft}}
}

// stubEvaluator scores drafts from a fixed table; unknown drafts get zero.
type stubEvaluator struct {
	scores map[string]float64
}

func (s *stubEvaluator) Evaluate(ctx context.Context, state DocumentState) (float64, Metrics) {
	score := s.scores[state.Draft]
	return score, Metrics{"score": score}
}

func TestRunReturnsRootWhenNoExpansion(t *testing.T) {
	expander := &stubExpander{}
	evaluator := &stubEvaluator{scores: map[string]float64{"root": 0.4}}
	engine := NewEngine(expander, evaluator, Config{}, WithSeed(1))

	best := engine.Run(context.Background(), DocumentState{Draft: "root"})

	require.NotNil(t, best)
	assert.Equal(t, "root", best.Draft)
	assert.Equal(t, 0, best.Depth)
	assert.Equal(t, 0.4, best.Metrics.Score())
}

func TestRunChildDepthIncrements(t *testing.T) {
	expander := &stubExpander{drafts: []string{"child", "grandchild"}}
	evaluator := &stubEvaluator{scores: map[string]float64{
		"root":       0.1,
		"child":      0.2,
		"grandchild": 0.3,
	}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 0}, WithSeed(1))

	best := engine.Run(context.Background(), DocumentState{Draft: "root"})

	assert.Equal(t, "grandchild", best.Draft)
	assert.Equal(t, 2, best.Depth)

	require.GreaterOrEqual(t, len(expander.expanded), 2)
	assert.Equal(t, 0, expander.expanded[0].Depth)
	assert.Equal(t, 1, expander.expanded[1].Depth)
	assert.Equal(t, expander.expanded[0].Hash(), expander.expanded[1].ParentHash)
}

func TestRunDepthGateStopsExpansion(t *testing.T) {
	expander := &stubExpander{drafts: []string{"d1", "d2", "d3", "d4", "d5"}}
	evaluator := &stubEvaluator{scores: map[string]float64{
		"root": 0.1, "d1": 0.2, "d2": 0.3, "d3": 0.4, "d4": 0.5, "d5": 0.6,
	}}
	engine := NewEngine(expander, evaluator, Config{MaxDepth: 2, Epsilon: 0}, WithSeed(1))

	engine.Run(context.Background(), DocumentState{Draft: "root"})

	for _, node := range expander.expanded {
		assert.Less(t, node.Depth, 2)
	}
}

func TestRunNeverExpandsSameDraftTwice(t *testing.T) {
	// Every expansion yields the same child draft, so only the root and that
	// draft can ever be expanded.
	expander := &stubExpander{drafts: []string{"dup", "dup", "dup", "dup"}}
	evaluator := &stubEvaluator{scores: map[string]float64{"root": 0.1, "dup": 0.9}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 0, MaxTrials: 12}, WithSeed(1))

	engine.Run(context.Background(), DocumentState{Draft: "root"})

	seen := map[string]int{}
	for _, node := range expander.expanded {
		seen[node.Draft]++
	}
	assert.LessOrEqual(t, seen["root"], 1)
	assert.LessOrEqual(t, seen["dup"], 1)
}

func TestRunLeakingChildNeverBeatsSafeRoot(t *testing.T) {
	expander := &stubExpander{drafts: []string{"leaky"}}
	evaluator := &stubEvaluator{scores: map[string]float64{
		"root":  0.5,
		"leaky": -99.19,
	}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 0}, WithSeed(1))

	best := engine.Run(context.Background(), DocumentState{Draft: "root"})

	assert.Equal(t, "root", best.Draft)
	assert.Equal(t, 0.5, best.Metrics.Score())
}

func TestRunBestIsStrictImprovementOnly(t *testing.T) {
	// A child that ties the root's score must not displace it.
	expander := &stubExpander{drafts: []string{"tied"}}
	evaluator := &stubEvaluator{scores: map[string]float64{"root": 0.5, "tied": 0.5}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 0}, WithSeed(1))

	best := engine.Run(context.Background(), DocumentState{Draft: "root"})

	assert.Equal(t, "root", best.Draft)
}

func TestRunHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	expander := &stubExpander{drafts: []string{"child"}}
	evaluator := &stubEvaluator{scores: map[string]float64{"root": 0.1, "child": 0.9}}
	engine := NewEngine(expander, evaluator, Config{}, WithSeed(1))

	best := engine.Run(ctx, DocumentState{Draft: "root"})

	assert.Equal(t, "root", best.Draft)
	assert.Empty(t, expander.expanded)
}

func TestRunRespectsTrialBudget(t *testing.T) {
	drafts := make([]string, 50)
	scores := map[string]float64{"root": 0.0}
	for i := range drafts {
		drafts[i] = fmt.Sprintf("draft-%d", i)
		scores[drafts[i]] = float64(i) * 0.01
	}
	expander := &stubExpander{drafts: drafts}
	evaluator := &stubEvaluator{scores: scores}
	engine := NewEngine(expander, evaluator, Config{MaxTrials: 4, MaxDepth: 100, Epsilon: 0}, WithSeed(1))

	engine.Run(context.Background(), DocumentState{Draft: "root"})

	assert.LessOrEqual(t, len(expander.expanded), 4)
}

func TestRunEpsilonZeroIsBestFirst(t *testing.T) {
	// Each child outscores its parent, so a pure best-first pop always picks
	// the freshest child. The expansion order must follow scores exactly.
	expander := &stubExpander{drafts: []string{"a", "b", "c"}}
	evaluator := &stubEvaluator{scores: map[string]float64{
		"root": 0.1, "a": 0.2, "b": 0.3, "c": 0.4,
	}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 0, MaxDepth: 10}, WithSeed(1))

	engine.Run(context.Background(), DocumentState{Draft: "root"})

	require.Len(t, expander.expanded, 4)
	var order []string
	for _, node := range expander.expanded {
		order = append(order, node.Draft)
	}
	assert.Equal(t, []string{"root", "a", "b", "c"}, order)
}

func TestRunExplorationStaysWithinTopK(t *testing.T) {
	// With epsilon 1 every pop explores uniformly among the top-K entries;
	// the run must still terminate and return a valid best node.
	expander := &stubExpander{drafts: []string{"a", "b", "c", "d"}}
	evaluator := &stubEvaluator{scores: map[string]float64{
		"root": 0.1, "a": 0.2, "b": 0.3, "c": 0.4, "d": 0.5,
	}}
	engine := NewEngine(expander, evaluator, Config{Epsilon: 1, ExploreTopK: 2}, WithSeed(42))

	best := engine.Run(context.Background(), DocumentState{Draft: "root"})

	require.NotNil(t, best)
	assert.GreaterOrEqual(t, best.Metrics.Score(), 0.1)
}
