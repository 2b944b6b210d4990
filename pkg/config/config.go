package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	errs "github.com/shwatanab/steward-go/pkg/errors"
)

// Config is the complete runtime configuration of the refiner.
type Config struct {
	Oracle     OracleConfig     `yaml:"oracle" validate:"required"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	Search     SearchConfig     `yaml:"search,omitempty"`
	Decoder    DecoderConfig    `yaml:"decoder,omitempty"`
	Evaluation EvaluationConfig `yaml:"evaluation,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`

	// Lang is the output language critics and composers are instructed
	// to answer in.
	Lang string `yaml:"lang,omitempty"`
}

// OracleConfig selects and authenticates the backing model.
type OracleConfig struct {
	// Model ID, e.g. claude-sonnet-4-20250514 or gpt-4o. The vendor is
	// inferred from the ID unless BaseURL points elsewhere.
	Model string `yaml:"model" validate:"required"`

	// APIKey may be left empty to fall back to STEWARD_API_KEY,
	// ANTHROPIC_API_KEY or OPENAI_API_KEY.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the vendor endpoint for OpenAI-compatible servers.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	MaxTokens int `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
}

// CacheConfig controls the on-disk oracle response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Path    string        `yaml:"path,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty" validate:"omitempty,min=0"`
}

// SearchConfig bounds the refinement tree search.
type SearchConfig struct {
	MaxDepth       int     `yaml:"max_depth,omitempty" validate:"omitempty,min=1"`
	BeamWidth      int     `yaml:"beam_width,omitempty" validate:"omitempty,min=1"`
	MaxTrials      int     `yaml:"max_trials,omitempty" validate:"omitempty,min=1"`
	ExploreTopK    int     `yaml:"explore_top_k,omitempty" validate:"omitempty,min=1"`
	Epsilon        float64 `yaml:"epsilon" validate:"min=0,max=1"`
	RevisitPenalty float64 `yaml:"revisit_penalty,omitempty" validate:"omitempty,min=0"`
	Seed           int64   `yaml:"seed,omitempty"`
}

// DecoderConfig controls structured decoding retries.
type DecoderConfig struct {
	MaxRetries int `yaml:"max_retries,omitempty" validate:"omitempty,min=1"`
}

// EvaluationConfig controls the critic pipeline.
type EvaluationConfig struct {
	// Parallel runs the security and quality critics concurrently.
	Parallel bool `yaml:"parallel"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error fatal"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Oracle: OracleConfig{
			MaxTokens: 8192,
		},
		Cache: CacheConfig{
			Path: "steward_cache.db",
			TTL:  24 * time.Hour,
		},
		Search: SearchConfig{
			MaxDepth:       3,
			BeamWidth:      5,
			MaxTrials:      12,
			ExploreTopK:    3,
			Epsilon:        0.2,
			RevisitPenalty: 0.05,
		},
		Decoder: DecoderConfig{
			MaxRetries: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Lang: "English",
	}
}

// Load reads a YAML configuration file, layering it over the defaults and
// the environment. An empty path returns the defaults. Callers apply their
// own overrides and then Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(err, errs.InvalidInput, "failed to parse config file")
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Validate checks struct-level constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(err, errs.ValidationFailed, "invalid configuration")
	}
	return nil
}

func (c *Config) applyEnv() {
	if c.Oracle.Model == "" {
		c.Oracle.Model = os.Getenv("STEWARD_MODEL")
	}
	if c.Oracle.APIKey != "" {
		return
	}
	for _, name := range []string{"STEWARD_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.Oracle.APIKey = v
			return
		}
	}
}
