package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOracleRoutesClaudeToAnthropic(t *testing.T) {
	oracle, err := NewOracle("claude-sonnet-4-20250514", "key", "")
	require.NoError(t, err)

	_, ok := oracle.(*AnthropicOracle)
	assert.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-20250514", oracle.ModelID())
}

func TestNewOracleRoutesGPTToOpenAI(t *testing.T) {
	oracle, err := NewOracle("gpt-4o", "key", "")
	require.NoError(t, err)

	_, ok := oracle.(*OpenAIOracle)
	assert.True(t, ok)
}

func TestNewOracleStripsVendorPrefix(t *testing.T) {
	oracle, err := NewOracle("openrouter/meta-llama/llama-3-70b", "key", "")
	require.NoError(t, err)

	assert.Equal(t, "meta-llama/llama-3-70b", oracle.ModelID())
}

func TestNewOracleHonorsExplicitBaseURL(t *testing.T) {
	oracle, err := NewOracle("deepseek-chat", "key", "http://localhost:9999/v1")
	require.NoError(t, err)

	_, ok := oracle.(*OpenAIOracle)
	assert.True(t, ok)
}

func TestNewOracleRequiresModel(t *testing.T) {
	_, err := NewOracle("", "key", "")
	assert.Error(t, err)
}

func TestNewOracleRequiresAPIKey(t *testing.T) {
	_, err := NewOracle("claude-sonnet-4-20250514", "", "")
	assert.Error(t, err)

	_, err = NewOracle("gpt-4o", "", "")
	assert.Error(t, err)
}
