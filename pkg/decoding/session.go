package decoding

import (
	"context"
	"fmt"

	"github.com/shwatanab/steward-go/pkg/core"
	errs "github.com/shwatanab/steward-go/pkg/errors"
	"github.com/shwatanab/steward-go/pkg/logging"
)

const (
	reasonNoCandidate = "NO_JSON_CANDIDATE_FOUND"
	reasonMissingKeys = "MISSING_KEYS"

	// defaultMaxRetries bounds the escalation loop; exhausting it degrades the
	// call instead of failing it.
	defaultMaxRetries = 10
)

// retryContext is the per-attempt diagnostic state injected into escalated
// prompts. It is rebuilt for every failed attempt and discarded once an
// attempt returns a perfect match.
type retryContext struct {
	Attempt     int
	Reason      string
	MissingKeys []string
}

// Session drives the escalating-prompt retry protocol around a single
// logical oracle call. One Session is safe to reuse across calls; it holds
// no per-call state.
type Session struct {
	oracle     core.Oracle
	maxRetries int
	maxTokens  int
	logger     *logging.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxRetries overrides the retry budget of the escalation loop.
func WithMaxRetries(n int) SessionOption {
	return func(s *Session) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithMaxTokens caps the completion length of every oracle call the session
// issues. Zero keeps the oracle's own default.
func WithMaxTokens(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewSession creates a decode session bound to an oracle.
func NewSession(oracle core.Oracle, opts ...SessionOption) *Session {
	s := &Session{
		oracle:     oracle,
		maxRetries: defaultMaxRetries,
		logger:     logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Completion is the terminal outcome of an escalation loop. Value is nil when
// decoding never produced a zero-violation match; Raw then carries the last
// oracle text as the degraded fallback result.
type Completion struct {
	Value    map[string]any
	Raw      string
	Attempts int
}

// Degraded reports whether the session exhausted its budget without a match.
func (c Completion) Degraded() bool {
	return c.Value == nil
}

// Err surfaces a degraded completion as a code-tagged error, for callers that
// report failures instead of consuming the raw fallback. Nil on a match.
func (c Completion) Err() error {
	if !c.Degraded() {
		return nil
	}
	return errs.WithFields(
		errs.New(errs.BudgetExhausted, "failed to decode oracle output after schema-enforced retries"),
		errs.Fields{"attempts": c.Attempts})
}

// Complete calls the oracle at the given temperature and decodes the answer
// against the instance's schema, escalating the prompt after every failed
// attempt. Each tightened prompt derives fresh from the original template
// plus a fixed-size addendum; addenda never stack across attempts. Oracle
// transport errors consume an attempt like any decode failure; the loop
// never returns an error.
func (s *Session) Complete(ctx context.Context, inst *core.PromptInstance, temperature float64) Completion {
	base := inst.Template
	schema := inst.Schema()
	current := inst
	var lastRaw string

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := errs.CheckContext(ctx, "decode session"); err != nil {
			s.logger.Warn(ctx, "%v", err)
			break
		}

		genOpts := []core.GenerateOption{
			core.WithSystemPrompt(current.SystemPrompt()),
			core.WithTemperature(temperature),
		}
		if s.maxTokens > 0 {
			genOpts = append(genOpts, core.WithMaxTokens(s.maxTokens))
		}
		resp, err := s.oracle.Generate(ctx, current.UserPrompt(), genOpts...)
		if err != nil {
			s.logger.Warn(ctx, "oracle call failed (attempt %d/%d): %v", attempt, s.maxRetries, err)
			continue
		}
		lastRaw = resp.Content

		result := Decode(lastRaw, current.Schema())
		switch result.Outcome {
		case Matched:
			value := result.Value
			if attempt > 0 {
				value = autoFillDiagnostics(value, attempt+1)
			}
			return Completion{Value: value, Raw: lastRaw, Attempts: attempt + 1}

		case Unparsable:
			s.logger.Warn(ctx, "no JSON candidate found (attempt %d/%d)", attempt, s.maxRetries)
			rc := retryContext{Attempt: attempt, Reason: reasonNoCandidate}
			current = core.NewPromptInstance(tightenTemplate(base, schema, rc), inst.Fields...)

		case PartialMatch:
			missing := result.MissingKeys(schema)
			if len(missing) == 0 {
				missing = result.Violations
			}
			s.logger.Warn(ctx, "schema violations (attempt %d/%d): %v", attempt, s.maxRetries, missing)
			rc := retryContext{Attempt: attempt, Reason: reasonMissingKeys, MissingKeys: missing}
			current = core.NewPromptInstance(tightenTemplate(base, schema, rc), inst.Fields...)
		}
	}

	degraded := Completion{Raw: lastRaw, Attempts: s.maxRetries + 1}
	s.logger.Error(ctx, "%v", degraded.Err())
	return degraded
}

// tightenTemplate derives an escalated template from the base one: explicit
// formatting rules, the exact missing keys, a minimal placeholder example and
// the retry diagnostics requirement. The base template is never modified.
func tightenTemplate(base core.PromptTemplate, shape core.Shape, rc retryContext) core.PromptTemplate {
	effective := AugmentWithDiagnostics(shape)

	principles := []string{
		"Output EXACTLY ONE JSON object (no prose, no code fences).",
		"Keys and value types MUST match <output_schema> exactly.",
		"Do NOT invent content; if unknown/forbidden, use empty string or empty array.",
		fmt.Sprintf("Populate '%s' with concise diagnostics.", DiagnosticsKey),
	}
	instructions := []string{
		"Produce the JSON directly without any preface or explanation.",
		"Ensure every required key from <output_schema> is present.",
		"For arrays, use [] if no safe content. For strings, use \"\" if content cannot be provided safely.",
	}
	validation := []string{
		"The final answer MUST parse as JSON.",
		"All required top-level keys exist; no extra top-level keys.",
		"All value types match exactly.",
		fmt.Sprintf("Include '%s' with root_cause and attempts incremented.", DiagnosticsKey),
	}
	examples := []any{}

	if len(rc.MissingKeys) > 0 {
		instructions = append(instructions, fmt.Sprintf("Add the missing keys exactly as listed: %v.", rc.MissingKeys))
		validation = append(validation, fmt.Sprintf("Confirm the following keys now exist: %v.", rc.MissingKeys))
	}

	examples = append(examples, minimalExample(effective, rc))
	examples = append(examples, map[string]any{"retry_reason": rc.Reason})
	if len(rc.MissingKeys) > 0 {
		examples = append(examples, map[string]any{"missing_keys": rc.MissingKeys})
	}

	return base.WithAddendum(principles, instructions, validation, examples, effective)
}

// minimalExample renders the smallest schema-conformant placeholder object:
// empty string/array/object per key's expected type, with the diagnostics
// block pre-filled from the retry context.
func minimalExample(shape core.Shape, rc retryContext) map[string]any {
	example := make(map[string]any, len(shape.Fields))
	for key, field := range shape.Fields {
		switch field.Kind {
		case core.KindArray:
			example[key] = []any{}
		case core.KindObject:
			example[key] = map[string]any{}
		case core.KindString:
			example[key] = ""
		case core.KindInteger:
			example[key] = 0
		case core.KindNumber:
			example[key] = 0.0
		case core.KindBoolean:
			example[key] = false
		default:
			example[key] = nil
		}
	}
	missing := rc.MissingKeys
	if missing == nil {
		missing = []string{}
	}
	example[DiagnosticsKey] = map[string]any{
		"attempts":         rc.Attempt + 1,
		"root_cause":       rc.Reason,
		"parser_errors":    []any{},
		"missing_keys":     missing,
		"extra_keys_after": 0,
		"smells":           []any{},
		"selected_fix":     "schema_enforced_retry",
		"applied_patches":  []any{},
		"notes":            []any{"auto example"},
	}
	return example
}
