package decoding

import "github.com/shwatanab/steward-go/pkg/core"

const (
	// thinkingPrefix marks keys of the internal reasoning bucket.
	thinkingPrefix = "thinkings"

	// DiagnosticsKey is the reasoning-bucket key carrying decode-retry
	// diagnostics back from the oracle.
	DiagnosticsKey = "thinkings_json_error"
)

// DiagnosticsShape describes the retry-diagnostics block an escalated prompt
// asks the oracle to fill in alongside the required payload.
func DiagnosticsShape() core.Shape {
	return core.Object(map[string]core.Shape{
		"attempts":         core.Integer(),
		"root_cause":       core.String(),
		"parser_errors":    core.Array(core.String()),
		"missing_keys":     core.Array(core.String()),
		"extra_keys_after": core.Integer(),
		"smells":           core.Array(core.String()),
		"selected_fix":     core.String(),
		"applied_patches": core.Array(core.Object(map[string]core.Shape{
			"rule":   core.String(),
			"effect": core.String(),
		})),
		"notes": core.Array(core.String()),
	})
}

// AugmentWithDiagnostics returns a copy of an object shape that additionally
// requires the diagnostics block. Shapes already carrying the block, and
// non-object shapes, are returned unchanged. The input is never mutated.
func AugmentWithDiagnostics(shape core.Shape) core.Shape {
	if shape.Kind != core.KindObject {
		return shape
	}
	if _, ok := shape.Fields[DiagnosticsKey]; ok {
		return shape
	}
	return shape.WithField(DiagnosticsKey, DiagnosticsShape())
}

// autoFillDiagnostics records that an answer needed retries when the oracle
// produced a matching payload without volunteering the diagnostics block.
func autoFillDiagnostics(value map[string]any, attempts int) map[string]any {
	if _, ok := value[DiagnosticsKey]; ok {
		return value
	}
	filled := make(map[string]any, len(value)+1)
	for k, v := range value {
		filled[k] = v
	}
	filled[DiagnosticsKey] = map[string]any{
		"attempts":         attempts,
		"root_cause":       "not_provided",
		"parser_errors":    []any{},
		"missing_keys":     []any{},
		"extra_keys_after": 0,
		"smells":           []any{},
		"selected_fix":     "not_provided",
		"applied_patches":  []any{},
		"notes":            []any{"auto-filled"},
	}
	return filled
}
