package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shwatanab/steward-go/pkg/cache"
	"github.com/shwatanab/steward-go/pkg/config"
	"github.com/shwatanab/steward-go/pkg/decoding"
	"github.com/shwatanab/steward-go/pkg/llms"
	"github.com/shwatanab/steward-go/pkg/logging"
	"github.com/shwatanab/steward-go/pkg/pipeline"
	"github.com/shwatanab/steward-go/pkg/search"
)

var (
	configPath    string
	question      string
	model         string
	allowedPath   string
	forbiddenPath string
	outputJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Stochastic tree-search document refiner",
	Long: `steward drafts an answer to a question from an allowed context corpus,
then iteratively critiques and rewrites it under a leak-audited quality
score until the trial budget runs out. The best draft found wins.`,
	RunE: runRefine,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	rootCmd.Flags().StringVarP(&question, "question", "q", "", "question to answer (required)")
	rootCmd.Flags().StringVarP(&model, "model", "m", "", "model ID (overrides config)")
	rootCmd.Flags().StringVar(&allowedPath, "allowed-context", "", "file with citable source material")
	rootCmd.Flags().StringVar(&forbiddenPath, "forbidden-context", "", "file with material that must not leak")
	rootCmd.Flags().BoolVar(&outputJSON, "json", false, "emit the full result as JSON")
	_ = rootCmd.MarkFlagRequired("question")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRefine(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Oracle.Model = model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg)
	logger := logging.GetLogger()

	oracle, err := llms.NewOracle(cfg.Oracle.Model, cfg.Oracle.APIKey, cfg.Oracle.BaseURL)
	if err != nil {
		return err
	}
	if cfg.Cache.Enabled {
		store, err := cache.NewSQLiteCache(cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer store.Close()
		oracle = cache.NewCachedOracle(oracle, store, cfg.Cache.TTL)
	}

	allowed, err := readOptionalFile(allowedPath)
	if err != nil {
		return err
	}
	forbidden, err := readOptionalFile(forbiddenPath)
	if err != nil {
		return err
	}

	session := decoding.NewSession(oracle,
		decoding.WithMaxRetries(cfg.Decoder.MaxRetries),
		decoding.WithMaxTokens(cfg.Oracle.MaxTokens),
	)
	req := pipeline.Request{
		Questions:        []string{question},
		AllowedContext:   allowed,
		ForbiddenContext: forbidden,
		Lang:             cfg.Lang,
	}

	writer := pipeline.NewDraftWriter(session, req, pipeline.DefaultDraftConfig())
	initial, ok := writer.Write(ctx, question)
	if !ok {
		logger.Warn(ctx, "draft writer degraded; refining the raw draft")
	}

	evalCfg := pipeline.DefaultEvalConfig()
	evalCfg.Parallel = cfg.Evaluation.Parallel
	evaluator := pipeline.NewEvaluationPipeline(session, req, evalCfg)
	expander := pipeline.NewActionPipeline(session, req, pipeline.DefaultActionConfig())

	var engineOpts []search.Option
	if cfg.Search.Seed != 0 {
		engineOpts = append(engineOpts, search.WithSeed(cfg.Search.Seed))
	}
	engine := search.NewEngine(expander, evaluator, search.Config{
		MaxDepth:       cfg.Search.MaxDepth,
		BeamWidth:      cfg.Search.BeamWidth,
		MaxTrials:      cfg.Search.MaxTrials,
		ExploreTopK:    cfg.Search.ExploreTopK,
		Epsilon:        cfg.Search.Epsilon,
		RevisitPenalty: cfg.Search.RevisitPenalty,
	}, engineOpts...)

	best := engine.Run(ctx, initial)
	return printResult(best)
}

func setupLogging(cfg *config.Config) {
	severity := logging.ParseSeverity(cfg.Logging.Level)
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.Logging.File != "" {
		if f, err := logging.NewFileOutput(cfg.Logging.File); err == nil {
			outputs = append(outputs, f)
		}
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: severity,
		Outputs:  outputs,
	}))
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printResult(best *search.DraftNode) error {
	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"draft":                  best.Draft,
			"citations":              best.Citations,
			"escalation_suggestions": best.Escalations,
			"score":                  best.Metrics.Score(),
			"depth":                  best.Depth,
			"metrics":                best.Metrics,
		})
	}

	fmt.Println(best.Draft)
	if len(best.Citations) > 0 {
		fmt.Println("\nCitations:")
		for _, c := range best.Citations {
			fmt.Printf("  - %s\n", c)
		}
	}
	if len(best.Escalations) > 0 {
		fmt.Println("\nEscalation suggestions:")
		for _, e := range best.Escalations {
			line := e.Topic
			if e.OwnerName != "" {
				line += " (owner: " + e.OwnerName
				if e.OwnerEmail != "" {
					line += " <" + e.OwnerEmail + ">"
				}
				line += ")"
			}
			fmt.Printf("  - %s\n", strings.TrimSpace(line))
		}
	}
	fmt.Printf("\nScore: %.4f (depth %d)\n", best.Metrics.Score(), best.Depth)
	return nil
}
