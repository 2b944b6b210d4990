package decoding

import (
	"encoding/json"

	"github.com/shwatanab/steward-go/pkg/core"
)

const (
	// topShapePenalty dominates every structural violation so a candidate of
	// the wrong top-level shape never beats one of the right shape.
	topShapePenalty = 1000
	// missingKeyWeight makes each absent required top-level key outweigh any
	// number of nested violations.
	missingKeyWeight = 1000
)

type scoredCandidate struct {
	value      map[string]any
	violations []string
	penalty    int
	rawLen     int
	repaired   bool
}

// betterThan orders candidates by penalty, breaking ties by longer raw text,
// then by preferring the unrepaired variant.
func (c scoredCandidate) betterThan(other scoredCandidate) bool {
	if c.penalty != other.penalty {
		return c.penalty < other.penalty
	}
	if c.rawLen != other.rawLen {
		return c.rawLen > other.rawLen
	}
	return !c.repaired && other.repaired
}

// Decode coerces raw oracle text into a structured value matching the shape.
// It returns immediately on the first zero-violation candidate; otherwise it
// returns the lowest-penalty candidate together with its violation list, or
// an Unparsable result when nothing parses at all.
func Decode(raw string, shape core.Shape) Result {
	candidates := extractCandidates(raw)
	if len(candidates) == 0 {
		return Result{Outcome: Unparsable}
	}

	var best *scoredCandidate

	for _, cand := range candidates {
		for variant, js := range []string{cand, lightRepair(cand)} {
			var parsed map[string]any
			if err := json.Unmarshal([]byte(js), &parsed); err != nil {
				continue
			}

			topPenalty := 0
			if shape.Kind == core.KindArray {
				// All extracted candidates are object spans; an array schema
				// can never match one.
				topPenalty = topShapePenalty
			}

			missing := missingRequiredCount(parsed, shape)
			violations := compareShape(parsed, shape, nil)

			if topPenalty == 0 && missing == 0 && len(violations) == 0 {
				return Result{Outcome: Matched, Value: parsed}
			}

			if len(violations) == 0 {
				violations = []string{"top-level shape mismatch"}
			}
			scored := scoredCandidate{
				value:      parsed,
				violations: violations,
				penalty:    missingKeyWeight*missing + len(violations) + topPenalty,
				rawLen:     len(js),
				repaired:   variant == 1,
			}
			if best == nil || scored.betterThan(*best) {
				copied := scored
				best = &copied
			}
		}
	}

	if best == nil {
		return Result{Outcome: Unparsable}
	}
	return Result{Outcome: PartialMatch, Value: best.value, Violations: best.violations}
}
