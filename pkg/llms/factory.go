package llms

import (
	"strings"

	"github.com/shwatanab/steward-go/pkg/core"
	errs "github.com/shwatanab/steward-go/pkg/errors"
)

// wellKnownBaseURLs maps model ID prefixes of OpenAI-compatible vendors to
// their chat-completions endpoints. An explicit baseURL always wins.
var wellKnownBaseURLs = []struct {
	prefix  string
	baseURL string
}{
	{"deepseek", "https://api.deepseek.com/v1"},
	{"openrouter/", "https://openrouter.ai/api/v1"},
	{"gemini", "https://generativelanguage.googleapis.com/v1beta/openai"},
	{"local/", "http://localhost:8000/v1"},
}

// NewOracle routes a model ID to the matching vendor client. Claude models
// go to the Anthropic SDK; everything else speaks the OpenAI chat protocol,
// optionally against a compatible third-party or local endpoint.
func NewOracle(model, apiKey, baseURL string) (core.Oracle, error) {
	if model == "" {
		return nil, errs.New(errs.InvalidInput, "model is required")
	}
	lower := strings.ToLower(model)

	if strings.HasPrefix(lower, "claude") || strings.Contains(lower, "anthropic") {
		return NewAnthropicOracle(apiKey, model)
	}

	if baseURL == "" {
		for _, vendor := range wellKnownBaseURLs {
			if strings.HasPrefix(lower, vendor.prefix) {
				baseURL = vendor.baseURL
				break
			}
		}
	}
	if name, ok := strings.CutPrefix(model, "openrouter/"); ok {
		model = name
	} else if name, ok := strings.CutPrefix(model, "local/"); ok {
		model = name
	}
	return NewOpenAIOracle(apiKey, model, baseURL)
}
