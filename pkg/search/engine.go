package search

import (
	"context"
	"math/rand"
	"time"

	"github.com/shwatanab/steward-go/pkg/logging"
)

// Expander produces zero or one improved child document states for a node.
// A failed expansion returns an empty slice; it never returns an error.
type Expander interface {
	Expand(ctx context.Context, node *DraftNode) []DocumentState
}

// Evaluator scores a document state, returning the scalar fitness value and
// the metrics record to attach to the node.
type Evaluator interface {
	Evaluate(ctx context.Context, state DocumentState) (float64, Metrics)
}

// Config bounds the search loop.
type Config struct {
	MaxDepth       int     `json:"max_depth"`       // Default: 3
	BeamWidth      int     `json:"beam_width"`      // Default: 5
	MaxTrials      int     `json:"max_trials"`      // Default: 12
	ExploreTopK    int     `json:"explore_top_k"`   // Default: 3
	Epsilon        float64 `json:"epsilon"`         // Default: 0.2
	RevisitPenalty float64 `json:"revisit_penalty"` // Default: 0.05
}

func (c *Config) applyDefaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.BeamWidth <= 0 {
		c.BeamWidth = 5
	}
	if c.MaxTrials <= 0 {
		c.MaxTrials = 12
	}
	if c.ExploreTopK <= 0 {
		c.ExploreTopK = 3
	}
	if c.RevisitPenalty == 0 {
		c.RevisitPenalty = 0.05
	}
}

// Engine drives the refinement tree search. The frontier, visited set and
// best-node pair are owned exclusively by the loop; expansions are processed
// one at a time.
type Engine struct {
	cfg       Config
	expander  Expander
	evaluator Evaluator
	rng       *rand.Rand
	logger    *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed fixes the exploration RNG seed, for reproducible runs.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// NewEngine creates a search engine over the given pipelines.
func NewEngine(expander Expander, evaluator Evaluator, cfg Config, opts ...Option) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		cfg:       cfg,
		expander:  expander,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run refines the initial document state until the frontier empties or the
// trial budget is exhausted, and returns the best node found. Scores can
// fluctuate non-monotonically along a lineage, so the best node is not
// necessarily the last one expanded. Run never fails; in the worst case the
// returned node is the scored but unmodified initial draft.
func (e *Engine) Run(ctx context.Context, initial DocumentState) *DraftNode {
	rootScore, rootMetrics := e.evaluator.Evaluate(ctx, initial)
	root := NewDraftNode(initial, rootMetrics, 0, "")

	frontier := NewFrontier()
	frontier.PushScored(rootScore, root)
	visited := make(map[string]bool)

	best := root
	bestScore := rootScore

	e.logger.Info(ctx, "starting tree search (max depth: %d, beam: %d, trials: %d)",
		e.cfg.MaxDepth, e.cfg.BeamWidth, e.cfg.MaxTrials)

	for trial := 0; trial < e.cfg.MaxTrials && frontier.Len() > 0; trial++ {
		if ctx.Err() != nil {
			break
		}

		current := e.popWithExploration(frontier).node

		if current.Depth >= e.cfg.MaxDepth {
			continue
		}

		hash := current.Hash()
		if visited[hash] {
			continue
		}
		visited[hash] = true

		e.logger.Info(ctx, "expanding node (depth: %d, score: %.2f)", current.Depth, current.Metrics.Score())

		for _, child := range e.expander.Expand(ctx, current) {
			if child.Draft == "" || visited[HashDraft(child.Draft)] {
				continue
			}

			score, metrics := e.evaluator.Evaluate(ctx, child)
			node := NewDraftNode(child, metrics, current.Depth+1, hash)

			if score > bestScore {
				e.logger.Info(ctx, "best score updated to %.4f", score)
				bestScore = score
				best = node
			}

			frontier.PushScored(score, node)
		}

		frontier.Truncate(e.cfg.BeamWidth)
	}

	e.logger.Info(ctx, "tree search finished (best score: %.4f, depth: %d)", bestScore, best.Depth)
	return best
}

// popWithExploration pops the next node to expand. With probability
// (1-epsilon) it takes the best entry; otherwise it chooses uniformly among
// the top-K entries and pushes the rest back unchanged. Either way a deep
// clone of the chosen node is pushed back at a revisit-degraded priority, so
// the lineage stays available without letting one lucky pop monopolize the
// search.
func (e *Engine) popWithExploration(f *Frontier) scoredNode {
	var choice scoredNode
	if e.rng.Float64() > e.cfg.Epsilon {
		choice = f.pop()
	} else {
		k := e.cfg.ExploreTopK
		if f.Len() < k {
			k = f.Len()
		}
		buf := make([]scoredNode, k)
		for i := 0; i < k; i++ {
			buf[i] = f.pop()
		}
		idx := e.rng.Intn(k)
		choice = buf[idx]
		for i, entry := range buf {
			if i != idx {
				f.Push(entry.priority, entry.node)
			}
		}
	}

	clone := choice.node.Clone()
	clone.RevisitIndex++
	f.Push(choice.priority+e.cfg.RevisitPenalty, clone)

	return choice
}
