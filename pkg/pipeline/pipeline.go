// Package pipeline contains the oracle-backed stages of a refinement run:
// the evaluation pipeline (security, quality and formatter critics), the
// action pipeline (planner and composer), and the initial draft writer.
// Every stage wraps a decoding session in its own temperature-escalation
// sweep so the search engine always receives structured results.
package pipeline

import (
	"context"
	"encoding/json"
	"math"

	"github.com/shwatanab/steward-go/pkg/core"
	"github.com/shwatanab/steward-go/pkg/decoding"
	"github.com/shwatanab/steward-go/pkg/logging"
	"github.com/shwatanab/steward-go/pkg/search"
)

// Request carries the per-refinement inputs threaded unmodified through every
// critic and action call. The allowed and forbidden context blobs are opaque;
// the pipelines never inspect their structure.
type Request struct {
	Questions        []string
	AllowedContext   string
	ForbiddenContext string
	Lang             string
}

// Sweep is a temperature-escalation schedule: start at Base, retry a fixed
// number of times per level, then increase by Step up to Max.
type Sweep struct {
	Base           float64
	Max            float64
	Step           float64
	RetriesPerTemp int
}

// tryStructured runs one decode session under a sweep and returns the first
// structured result, or nil once every temperature level is exhausted.
func tryStructured(ctx context.Context, session *decoding.Session, inst *core.PromptInstance, sweep Sweep) map[string]any {
	logger := logging.GetLogger()
	retries := sweep.RetriesPerTemp
	if retries <= 0 {
		retries = 2
	}
	for t := sweep.Base; t <= sweep.Max+1e-9; t = math.Round((t+sweep.Step)*1e6) / 1e6 {
		for i := 0; i < retries; i++ {
			if ctx.Err() != nil {
				return nil
			}
			if c := session.Complete(ctx, inst, t); !c.Degraded() {
				return c.Value
			}
		}
		if sweep.Step <= 0 {
			break
		}
	}
	logger.Warn(ctx, "failed to get structured result after temperature sweep (base=%.2f max=%.2f)", sweep.Base, sweep.Max)
	return nil
}

// mustJSON marshals a value for embedding into a prompt field. Marshaling a
// metrics/plan map cannot realistically fail; on the off chance it does, the
// field degrades to an empty object rather than aborting the call.
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// parseDocumentState pulls a composer-style payload (draft, citations,
// escalation suggestions) out of a structured result. Unknown or missing
// fields degrade to zero values; malformed entries are dropped.
func parseDocumentState(value map[string]any) search.DocumentState {
	state := search.DocumentState{}
	if draft, ok := value["draft"].(string); ok {
		state.Draft = draft
	}
	if raw, ok := value["citations"].([]any); ok {
		for _, c := range raw {
			if s, ok := c.(string); ok {
				state.Citations = append(state.Citations, s)
			}
		}
	}
	if raw, ok := value["escalation_suggestions"].([]any); ok {
		for _, e := range raw {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			state.Escalations = append(state.Escalations, search.EscalationSuggestion{
				Topic:          stringField(entry, "topic"),
				ForbiddenDocID: stringField(entry, "forbidden_doc_id"),
				URL:            stringField(entry, "url"),
				OwnerName:      stringField(entry, "owner_name"),
				OwnerEmail:     stringField(entry, "owner_email"),
			})
		}
	}
	return state
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func boolField(m map[string]any, key string, fallback bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}

func mapField(m map[string]any, key string) map[string]any {
	if nested, ok := m[key].(map[string]any); ok {
		return nested
	}
	return map[string]any{}
}
