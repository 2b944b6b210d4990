// Package decoding extracts, repairs and schema-validates JSON-shaped answers
// from raw oracle text, and drives the escalating-prompt retry loop around a
// single oracle call. Every critic, planner and composer call in the system
// goes through this package; its job is to guarantee the search engine a
// structured result or an explicit, non-fatal degradation.
package decoding

import "github.com/shwatanab/steward-go/pkg/core"

// Outcome tags the result of decoding one raw oracle response.
type Outcome int

const (
	// Unparsable means no candidate span parsed as JSON at all.
	Unparsable Outcome = iota
	// PartialMatch means a candidate parsed but violated the schema.
	PartialMatch
	// Matched means a candidate parsed and satisfied the schema exactly.
	Matched
)

// String provides a readable outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case PartialMatch:
		return "partial_match"
	default:
		return "unparsable"
	}
}

// Result is the explicit, tagged outcome of a decode pass. Value is nil when
// Outcome is Unparsable; Violations is empty when Outcome is Matched.
type Result struct {
	Outcome    Outcome
	Value      map[string]any
	Violations []string
}

// MissingKeys extracts the top-level required keys named in the violation
// list, in violation order. Used to build the escalated retry prompt.
func (r Result) MissingKeys(shape core.Shape) []string {
	if r.Outcome != PartialMatch || shape.Kind != core.KindObject {
		return nil
	}
	present := map[string]bool{}
	for k := range r.Value {
		present[normalizeKey(k)] = true
	}
	var missing []string
	for _, k := range shape.SortedKeys() {
		if isThinkingKey(k) {
			continue
		}
		if !present[normalizeKey(k)] {
			missing = append(missing, k)
		}
	}
	return missing
}
