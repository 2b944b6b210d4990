package decoding

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/shwatanab/steward-go/pkg/core"
)

// normalizeKey applies Unicode NFKC so visually-equivalent key forms
// (full-width characters, compatibility ligatures) compare equal.
func normalizeKey(k string) string {
	return norm.NFKC.String(k)
}

// isThinkingKey reports whether a key belongs to the internal reasoning
// bucket. Those keys are exempt from required-key checks so the oracle is
// never forced to justify reasoning it skipped.
func isThinkingKey(k string) bool {
	return strings.Contains(k, thinkingPrefix)
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, ".")
}

// compareShape computes the recursive structural diff of a parsed value
// against a schema shape. Object keys are matched after NFKC normalization;
// every array entry is checked against the shape's single prototype element;
// primitive leaves are checked by JSON type. Empty arrays on either side are
// considered satisfied.
func compareShape(target any, shape core.Shape, path []string) []string {
	switch shape.Kind {
	case core.KindObject:
		obj, ok := target.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("%s should be object but is %T", joinPath(path), target)}
		}
		normIndex := make(map[string]string, len(obj))
		for k := range obj {
			normIndex[normalizeKey(k)] = k
		}
		var violations []string
		for _, k := range shape.SortedKeys() {
			if isThinkingKey(k) {
				continue
			}
			realKey, ok := normIndex[normalizeKey(k)]
			if !ok {
				violations = append(violations, fmt.Sprintf("missing key: %s", joinPath(append(path, k))))
				continue
			}
			violations = append(violations, compareShape(obj[realKey], shape.Fields[k], append(path, k))...)
		}
		return violations

	case core.KindArray:
		arr, ok := target.([]any)
		if !ok {
			return []string{fmt.Sprintf("%s should be array but is %T", joinPath(path), target)}
		}
		if shape.Elem == nil || len(arr) == 0 {
			return nil
		}
		var violations []string
		for i, el := range arr {
			violations = append(violations, compareShape(el, *shape.Elem, append(path, fmt.Sprintf("[%d]", i)))...)
		}
		return violations

	case core.KindString:
		if _, ok := target.(string); !ok {
			return []string{typeMismatch(path, "string", target)}
		}
	case core.KindNumber:
		if _, ok := target.(float64); !ok {
			return []string{typeMismatch(path, "number", target)}
		}
	case core.KindInteger:
		// encoding/json decodes all numbers as float64; accept integral values.
		f, ok := target.(float64)
		if !ok || f != float64(int64(f)) {
			return []string{typeMismatch(path, "integer", target)}
		}
	case core.KindBoolean:
		if _, ok := target.(bool); !ok {
			return []string{typeMismatch(path, "boolean", target)}
		}
	}
	return nil
}

func typeMismatch(path []string, expected string, got any) string {
	return fmt.Sprintf("type mismatch at %s: expected %s, got %T", joinPath(path), expected, got)
}

// missingRequiredCount counts top-level schema keys absent from the parsed
// object, comparing under NFKC and skipping the reasoning bucket.
func missingRequiredCount(parsed map[string]any, shape core.Shape) int {
	if shape.Kind != core.KindObject {
		return 0
	}
	present := make(map[string]bool, len(parsed))
	for k := range parsed {
		present[normalizeKey(k)] = true
	}
	missing := 0
	for k := range shape.Fields {
		if isThinkingKey(k) {
			continue
		}
		if !present[normalizeKey(k)] {
			missing++
		}
	}
	return missing
}
