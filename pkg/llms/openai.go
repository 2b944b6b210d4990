package llms

import (
	"context"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/shwatanab/steward-go/pkg/core"
	errs "github.com/shwatanab/steward-go/pkg/errors"
	"github.com/shwatanab/steward-go/pkg/logging"
)

// OpenAIOracle implements core.Oracle through the official openai-go SDK.
// With a custom base URL it also covers the OpenAI-compatible endpoints the
// system routes through: DeepSeek, OpenRouter, the Gemini proxy and local
// servers.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

// NewOpenAIOracle creates an OpenAI-compatible oracle. baseURL may be empty
// for the default endpoint.
func NewOpenAIOracle(apiKey, model, baseURL string) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, errs.New(errs.InvalidInput, "API key is required")
	}
	if model == "" {
		return nil, errs.New(errs.InvalidInput, "model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIOracle{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// ModelID implements core.Oracle.
func (o *OpenAIOracle) ModelID() string {
	return o.model
}

// Generate implements core.Oracle.
func (o *OpenAIOracle) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.OracleResponse, error) {
	logger := logging.GetLogger()
	opts := core.NewGenerateOptions(options...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if opts.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(opts.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(opts.Temperature),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
	})
	if err != nil {
		return nil, errs.WithFields(
			errs.Wrap(err, errs.OracleGenerationFailed, "failed to generate response"),
			errs.Fields{
				"model":      o.model,
				"max_tokens": opts.MaxTokens,
			})
	}
	if len(resp.Choices) == 0 {
		return nil, errs.New(errs.InvalidResponse, "received empty choices from OpenAI-compatible API")
	}

	usage := &core.TokenInfo{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}

	content := resp.Choices[0].Message.Content
	tokens := &logging.TokenInfo{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	callCtx := logging.WithTokenInfo(logging.WithModelID(ctx, o.model), tokens)
	logger.OracleCall(callCtx, prompt, content, tokens)

	return &core.OracleResponse{Content: content, Usage: usage}, nil
}
