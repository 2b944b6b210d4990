package decoding

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shwatanab/steward-go/pkg/core"
	errs "github.com/shwatanab/steward-go/pkg/errors"
)

// fakeOracle replays a scripted sequence of responses; the last entry repeats
// once the script runs out. An empty response string simulates a transport
// error.
type fakeOracle struct {
	responses []string
	calls     int
	systems   []string
	users     []string
	maxTokens []int
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.OracleResponse, error) {
	opts := core.NewGenerateOptions(options...)
	f.systems = append(f.systems, opts.SystemPrompt)
	f.users = append(f.users, prompt)
	f.maxTokens = append(f.maxTokens, opts.MaxTokens)

	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++

	content := f.responses[idx]
	if content == "" {
		return nil, errs.New(errs.OracleGenerationFailed, "scripted transport failure")
	}
	return &core.OracleResponse{Content: content}, nil
}

func (f *fakeOracle) ModelID() string { return "fake-model" }

func answerTemplate() core.PromptTemplate {
	return core.PromptTemplate{
		Role:    "You are a test responder.",
		Purpose: "Answer with structured JSON.",
		OutputSchema: core.Object(map[string]core.Shape{
			"answer": core.String(),
		}),
	}
}

func answerInstance() *core.PromptInstance {
	return core.NewPromptInstance(answerTemplate(),
		core.UserField{Tag: "question", Value: "what is up"},
	)
}

func TestCompleteFirstAttempt(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{"answer": "ok"}`}}
	session := NewSession(oracle)

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.False(t, c.Degraded())
	assert.Equal(t, 1, c.Attempts)
	assert.Equal(t, "ok", c.Value["answer"])
	assert.NoError(t, c.Err())
	// No retry happened, so no diagnostics are injected.
	assert.NotContains(t, c.Value, DiagnosticsKey)
	// The first attempt uses the untightened template.
	assert.NotContains(t, oracle.systems[0], "EXACTLY ONE JSON object")
}

func TestCompleteEscalatesAfterUnparsable(t *testing.T) {
	oracle := &fakeOracle{responses: []string{
		"I cannot answer in that format.",
		`{"answer": "ok"}`,
	}}
	session := NewSession(oracle)

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.False(t, c.Degraded())
	assert.Equal(t, 2, c.Attempts)
	assert.Equal(t, "ok", c.Value["answer"])

	// The retried answer gets the diagnostics block auto-filled.
	diag, ok := c.Value[DiagnosticsKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, diag["attempts"])

	// The second prompt carries the escalated formatting rules.
	require.Len(t, oracle.systems, 2)
	assert.Contains(t, oracle.systems[1], "EXACTLY ONE JSON object")
	assert.Contains(t, oracle.systems[1], reasonNoCandidate)
	assert.Contains(t, oracle.systems[1], DiagnosticsKey)
}

func TestCompleteEscalatesWithMissingKeys(t *testing.T) {
	oracle := &fakeOracle{responses: []string{
		`{"other": "x"}`,
		`{"answer": "ok"}`,
	}}
	session := NewSession(oracle)

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.False(t, c.Degraded())
	assert.Contains(t, oracle.systems[1], reasonMissingKeys)
	assert.Contains(t, oracle.systems[1], "answer")
}

func TestCompleteAddendaNeverStack(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"garbage", "garbage", `{"answer": "ok"}`}}
	session := NewSession(oracle)

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.False(t, c.Degraded())
	require.Len(t, oracle.systems, 3)
	// Each escalation derives fresh from the base template.
	assert.Equal(t, 1, strings.Count(oracle.systems[2], "EXACTLY ONE JSON object"))
}

func TestCompleteDegradedFallback(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"still not json"}}
	session := NewSession(oracle, WithMaxRetries(2))

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.True(t, c.Degraded())
	assert.Nil(t, c.Value)
	assert.Equal(t, "still not json", c.Raw)
	assert.Equal(t, 3, c.Attempts)
	assert.Equal(t, 3, oracle.calls)
}

func TestCompleteForwardsMaxTokens(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"garbage", `{"answer": "ok"}`}}
	session := NewSession(oracle, WithMaxTokens(4096))

	session.Complete(context.Background(), answerInstance(), 0.0)

	require.Len(t, oracle.maxTokens, 2)
	assert.Equal(t, 4096, oracle.maxTokens[0])
	// The cap applies to escalated attempts too.
	assert.Equal(t, 4096, oracle.maxTokens[1])
}

func TestCompleteLeavesOracleDefaultMaxTokens(t *testing.T) {
	oracle := &fakeOracle{responses: []string{`{"answer": "ok"}`}}
	session := NewSession(oracle)

	session.Complete(context.Background(), answerInstance(), 0.0)

	require.Len(t, oracle.maxTokens, 1)
	assert.Equal(t, 8192, oracle.maxTokens[0])
}

func TestCompletionErrTagsBudgetExhaustion(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"still not json"}}
	session := NewSession(oracle, WithMaxRetries(1))

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.True(t, c.Degraded())
	require.Error(t, c.Err())
	assert.ErrorIs(t, c.Err(), errs.New(errs.BudgetExhausted, ""))
	assert.Contains(t, c.Err().Error(), "schema-enforced retries")
}

func TestCompleteOracleErrorConsumesAttempt(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"", `{"answer": "ok"}`}}
	session := NewSession(oracle)

	c := session.Complete(context.Background(), answerInstance(), 0.0)

	require.False(t, c.Degraded())
	assert.Equal(t, 2, c.Attempts)
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	oracle := &fakeOracle{responses: []string{`{"answer": "ok"}`}}
	session := NewSession(oracle)

	c := session.Complete(ctx, answerInstance(), 0.0)

	assert.True(t, c.Degraded())
	assert.Zero(t, oracle.calls)
}

func TestCompleteKeepsUserFieldsAcrossRetries(t *testing.T) {
	oracle := &fakeOracle{responses: []string{"garbage", `{"answer": "ok"}`}}
	session := NewSession(oracle)

	session.Complete(context.Background(), answerInstance(), 0.0)

	require.Len(t, oracle.users, 2)
	assert.Contains(t, oracle.users[1], "what is up")
}
