package decoding

import "regexp"

var (
	controlCharRe  = regexp.MustCompile("[\x00-\x1F\x7F]")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	bareObjectKey  = regexp.MustCompile(`(?m)(^|[{,\s])([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuoteRep = regexp.MustCompile(`'`)
)

// lightRepair applies the minimal, mechanical fixes that recover the most
// common oracle JSON defects: stray control characters, trailing commas
// before a closing bracket, single-quoted strings, and unquoted object keys.
// Anything beyond this is left to the escalated retry prompt.
func lightRepair(js string) string {
	js = controlCharRe.ReplaceAllString(js, "")
	js = trailingComma.ReplaceAllString(js, "$1")
	js = singleQuoteRep.ReplaceAllString(js, `"`)
	js = bareObjectKey.ReplaceAllString(js, `$1"$2":`)
	return js
}
