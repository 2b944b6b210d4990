package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shwatanab/steward-go/pkg/core"
)

// KeyGenerator produces deterministic cache keys for oracle requests.
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a generator with the given key prefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	if prefix == "" {
		prefix = "steward_"
	}
	return &KeyGenerator{prefix: prefix}
}

// GenerateKey digests everything that changes a completion: model, sampling
// parameters, system prompt and user prompt. Two requests with the same key
// are interchangeable.
func (g *KeyGenerator) GenerateKey(modelID, prompt string, opts *core.GenerateOptions) string {
	keyData := strings.Join([]string{
		modelID,
		fmt.Sprintf("temp:%.2f", opts.Temperature),
		fmt.Sprintf("max:%d", opts.MaxTokens),
		opts.SystemPrompt,
		prompt,
	}, "|")

	h := sha256.Sum256([]byte(keyData))
	hash := hex.EncodeToString(h[:])

	return fmt.Sprintf("%s%s_%s", g.prefix, modelID, hash[:16])
}
