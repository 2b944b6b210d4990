package pipeline

import (
	"context"
	"strings"

	"github.com/shwatanab/steward-go/pkg/core"
	"github.com/shwatanab/steward-go/pkg/decoding"
	"github.com/shwatanab/steward-go/pkg/logging"
	"github.com/shwatanab/steward-go/pkg/search"
)

// forbiddenPlaceholder replaces the forbidden blob when the caller denies the
// draft writer sight of it.
const forbiddenPlaceholder = "(ACCESS DENIED: This context is unavailable at the current access level. " +
	"Do not include, paraphrase, or infer its contents in the draft.)"

// DraftConfig holds the initial-draft temperature ramp.
type DraftConfig struct {
	Sweep Sweep
	// AllowForbiddenContext exposes the forbidden blob to the draft writer;
	// when false the writer sees only an access-denied placeholder.
	AllowForbiddenContext bool
}

// DefaultDraftConfig is the standard draft-writer ramp: creative but bounded.
func DefaultDraftConfig() DraftConfig {
	return DraftConfig{
		Sweep: Sweep{Base: 0.2, Max: 0.8, Step: 0.1, RetriesPerTemp: 1},
	}
}

// DraftWriter produces the depth-0 document state a refinement run starts
// from.
type DraftWriter struct {
	session *decoding.Session
	req     Request
	cfg     DraftConfig
	logger  *logging.Logger
}

// NewDraftWriter binds a draft writer to one refinement request.
func NewDraftWriter(session *decoding.Session, req Request, cfg DraftConfig) *DraftWriter {
	return &DraftWriter{
		session: session,
		req:     req,
		cfg:     cfg,
		logger:  logging.GetLogger(),
	}
}

// Write generates the initial draft state for the original question. The
// boolean is false when no structured draft could be obtained across the
// temperature ramp; the caller then starts the search from an empty state.
func (w *DraftWriter) Write(ctx context.Context, originalQuestion string) (search.DocumentState, bool) {
	forbidden := forbiddenPlaceholder
	if w.cfg.AllowForbiddenContext {
		forbidden = w.req.ForbiddenContext
	}

	inst := core.NewPromptInstance(DraftWriterTemplate(w.req.Lang),
		core.UserField{Tag: "user_question", Value: originalQuestion},
		core.UserField{Tag: "questions", Value: strings.Join(w.req.Questions, "\n- ")},
		core.UserField{Tag: "allowed_context", Value: w.req.AllowedContext},
		core.UserField{Tag: "forbidden_context", Value: forbidden},
	)

	value := tryStructured(ctx, w.session, inst, w.cfg.Sweep)
	if value == nil {
		w.logger.Warn(ctx, "draft writer failed to produce a structured draft")
		return search.DocumentState{}, false
	}
	return parseDocumentState(value), true
}
