package llms

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shwatanab/steward-go/pkg/core"
	errs "github.com/shwatanab/steward-go/pkg/errors"
	"github.com/shwatanab/steward-go/pkg/logging"
)

// AnthropicOracle implements core.Oracle for Anthropic's models.
type AnthropicOracle struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicOracle creates an Anthropic-backed oracle.
func NewAnthropicOracle(apiKey string, model string) (*AnthropicOracle, error) {
	if apiKey == "" {
		return nil, errs.New(errs.InvalidInput, "API key is required")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicOracle{
		client: &client,
		model:  anthropic.Model(model),
	}, nil
}

// ModelID implements core.Oracle.
func (a *AnthropicOracle) ModelID() string {
	return string(a.model)
}

// Generate implements core.Oracle.
func (a *AnthropicOracle) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.OracleResponse, error) {
	logger := logging.GetLogger()
	opts := core.NewGenerateOptions(options...)

	params := anthropic.MessageNewParams{
		Model: a.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(opts.Temperature),
	}
	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: opts.SystemPrompt},
		}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return nil, errs.WithFields(
			errs.Wrap(err, errs.OracleGenerationFailed, "failed to generate response"),
			errs.Fields{
				"model":      string(a.model),
				"max_tokens": opts.MaxTokens,
			})
	}

	if message == nil || len(message.Content) == 0 {
		return nil, errs.New(errs.InvalidResponse, "received empty content from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	usage := &core.TokenInfo{
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
		TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}

	tokens := &logging.TokenInfo{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	callCtx := logging.WithTokenInfo(logging.WithModelID(ctx, string(a.model)), tokens)
	logger.OracleCall(callCtx, prompt, responseText, tokens)

	return &core.OracleResponse{Content: responseText, Usage: usage}, nil
}
