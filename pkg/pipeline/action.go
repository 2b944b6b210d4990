package pipeline

import (
	"context"
	"strings"

	"github.com/shwatanab/steward-go/pkg/core"
	"github.com/shwatanab/steward-go/pkg/decoding"
	"github.com/shwatanab/steward-go/pkg/logging"
	"github.com/shwatanab/steward-go/pkg/search"
)

// ActionConfig holds the planner and composer temperature sweeps. Structural
// edits should be more deterministic than free-form scoring, so both ranges
// sit below the evaluation critics'.
type ActionConfig struct {
	PlannerSweep  Sweep
	ComposerSweep Sweep
}

// DefaultActionConfig gives the planner a little starting warmth and the
// composer none; both escalate when decoding fails.
func DefaultActionConfig() ActionConfig {
	return ActionConfig{
		PlannerSweep:  Sweep{Base: 0.1, Max: 0.6, Step: 0.2, RetriesPerTemp: 2},
		ComposerSweep: Sweep{Base: 0.0, Max: 0.5, Step: 0.2, RetriesPerTemp: 2},
	}
}

// ActionPipeline turns a parent node into at most one improved child state:
// the planner proposes a structured improvement plan, the composer writes the
// replacement draft. Either stage failing to decode prunes the branch
// silently.
type ActionPipeline struct {
	session *decoding.Session
	req     Request
	cfg     ActionConfig
	logger  *logging.Logger
}

// NewActionPipeline binds an action pipeline to one refinement request.
func NewActionPipeline(session *decoding.Session, req Request, cfg ActionConfig) *ActionPipeline {
	return &ActionPipeline{
		session: session,
		req:     req,
		cfg:     cfg,
		logger:  logging.GetLogger(),
	}
}

// Expand produces zero or one child document states for the node. It
// satisfies search.Expander and never returns an error.
func (p *ActionPipeline) Expand(ctx context.Context, node *search.DraftNode) []search.DocumentState {
	p.logger.Debug(ctx, "running action pipeline at depth %d", node.Depth)

	plannerInst := core.NewPromptInstance(ReviewerTemplate(p.req.Lang),
		core.UserField{Tag: "user_order", Value: strings.Join(p.req.Questions, ";")},
		core.UserField{Tag: "current_draft", Value: node.Draft},
		core.UserField{Tag: "allowed_context", Value: p.req.AllowedContext},
		core.UserField{Tag: "previous_audit_results_json", Value: mustJSON(map[string]any(node.Metrics))},
	)
	plan := tryStructured(ctx, p.session, plannerInst, p.cfg.PlannerSweep)
	if plan == nil {
		p.logger.Info(ctx, "planner failed to return structured plan; pruning branch")
		return nil
	}

	composerInst := core.NewPromptInstance(ReflectorTemplate(p.req.Lang),
		core.UserField{Tag: "user_order", Value: strings.Join(p.req.Questions, ";")},
		core.UserField{Tag: "original_draft", Value: node.Draft},
		core.UserField{Tag: "improvement_plan_json", Value: mustJSON(plan)},
		core.UserField{Tag: "allowed_context", Value: p.req.AllowedContext},
		core.UserField{Tag: "forbidden_context", Value: p.req.ForbiddenContext},
	)
	composed := tryStructured(ctx, p.session, composerInst, p.cfg.ComposerSweep)
	if composed == nil {
		p.logger.Info(ctx, "composer failed to return structured draft; pruning branch")
		return nil
	}

	return []search.DocumentState{parseDocumentState(composed)}
}
