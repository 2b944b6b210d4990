package decoding

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// jsonFenceRe matches ```json ... ``` blocks. (?s) enables DOTALL mode.
	jsonFenceRe = regexp.MustCompile("(?is)```json\\s+([\\s\\S]*?)```")

	// bareFenceRe matches untagged ``` ... ``` blocks.
	bareFenceRe = regexp.MustCompile("(?s)```\\s+([\\s\\S]*?)```")

	// jsonTagRe matches <json> ... </json> wrapper tags.
	jsonTagRe = regexp.MustCompile(`(?is)<json>([\s\S]*?)</json>`)

	// labeledRe matches a whole-text `json: {...}` / `json = {...}` span.
	labeledRe = regexp.MustCompile(`(?is)^\s*json\s*[:=]?\s*(\{[\s\S]*\})\s*$`)
)

func stripBOMAndSpace(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}

func isBraceSpan(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// extractCandidates scans raw oracle text for JSON-looking object spans.
// When the text has more opening braces than closing ones the tail is padded
// before extraction, since truncated completions usually lose the closers.
// Candidates are deduplicated by (content prefix, length) and ordered longest
// first so the most complete span is tried before fragments.
func extractCandidates(text string) []string {
	if open, closed := strings.Count(text, "{"), strings.Count(text, "}"); open > closed {
		text += strings.Repeat("}", open-closed)
	}
	text = stripBOMAndSpace(text)

	var cands []string

	for _, m := range jsonFenceRe.FindAllStringSubmatch(text, -1) {
		if block := stripBOMAndSpace(m[1]); isBraceSpan(block) {
			cands = append(cands, block)
		}
	}
	for _, m := range bareFenceRe.FindAllStringSubmatch(text, -1) {
		if block := stripBOMAndSpace(m[1]); isBraceSpan(block) {
			cands = append(cands, block)
		}
	}
	for _, m := range jsonTagRe.FindAllStringSubmatch(text, -1) {
		if block := stripBOMAndSpace(m[1]); isBraceSpan(block) {
			cands = append(cands, block)
		}
	}
	if isBraceSpan(text) {
		cands = append(cands, text)
	}
	if m := labeledRe.FindStringSubmatch(text); m != nil {
		if block := stripBOMAndSpace(m[1]); isBraceSpan(block) {
			cands = append(cands, block)
		}
	}

	// Longest first, then dedupe by (prefix, length).
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i]) > len(cands[j])
	})

	type key struct {
		prefix string
		length int
	}
	seen := map[key]bool{}
	uniq := cands[:0]
	for _, c := range cands {
		prefix := c
		if len(prefix) > 512 {
			prefix = prefix[:512]
		}
		k := key{prefix, len(c)}
		if seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, c)
	}
	return uniq
}
