package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cvmatch/cv-match/internal/ai"
	"github.com/cvmatch/cv-match/internal/ai/gemini"
	"github.com/cvmatch/cv-match/internal/export"
	logging "github.com/cvmatch/cv-match/internal/logger"
	"github.com/cvmatch/cv-match/internal/pipeline"
	"github.com/cvmatch/cv-match/internal/scoring"
	"github.com/cvmatch/cv-match/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultResumesDir     = "data/cvs"
	defaultJobsDir        = "data/jds"
	defaultExtractedDir   = "outputs/extracted"
	defaultScoresDir      = "outputs/scores"
	defaultEvaluationsDir = "outputs/evaluations"
)

var prompt = promptui.Select{
	Label: "Evaluate every scored pair with the LLM (one request per pair)?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cv-match main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before the LLM evaluation stage")
	runCmd.Flags().BoolP("skip-evaluation", "s", false, "stop after the similarity stage, do not call the LLM per pair")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	config = withDefaults(config)

	logger.Info("starting the cv-match", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	weights, err := decodeWeights(config.Scoring)
	if err != nil {
		logger.Fatal("decoding scoring weights", zap.Error(err))
	}

	evaluate := cmd.Flag("skip-evaluation").Value.String() == "false"
	if evaluate && cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		evaluate = action == PromptYes
	}

	scorer, assessor, err := newGeminiStages(ctx, config.AI, weights, logger)
	if err != nil {
		logger.Fatal(
			"building the gemini stages",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
	}

	coordinator := pipeline.New(&pipeline.Config{
		ResumesDir: config.Inputs.Resumes,
		JobsDir:    config.Inputs.Jobs,
		Outputs: pipeline.OutputDirs{
			Extracted:   config.Outputs.Extracted,
			Scores:      config.Outputs.Scores,
			Evaluations: config.Outputs.Evaluations,
		},
	}, &pipeline.Deps{
		Scorer:   scorer,
		Assessor: assessor,
		Logger:   logger,
	})

	summary, err := coordinator.Run(ctx, pipeline.RunOptions{Evaluate: evaluate})
	if err != nil {
		logger.Fatal("running the batch", zap.Error(err))
	}

	printSummary(logger, summary)

	if config.Outputs.Report != "" {
		if err := export.WriteReport(summary, config.Outputs.Report); err != nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
		logger.Info("report written", zap.String("filename", config.Outputs.Report))
	}
}

func printSummary(logger *zap.Logger, summary *pipeline.Summary) {
	type entry struct {
		Rank       int     `json:"rank"`
		Resume     string  `json:"resume"`
		TotalScore float64 `json:"total_score"`
		Level      string  `json:"match_level,omitempty"`
	}

	report := make(map[string][]entry)
	for jobID, results := range summary.RankedByJob() {
		for i, result := range results {
			e := entry{
				Rank:       i + 1,
				Resume:     result.Similarity.ResumeID,
				TotalScore: result.Similarity.TotalScore,
			}
			if result.Assessment != nil {
				e.Level = string(result.Assessment.Level)
			}
			report[jobID] = append(report[jobID], e)
		}
	}

	pretty, _ := json.MarshalIndent(report, "", "  ")
	logger.Info(string(pretty),
		zap.Int("resumes", summary.Resumes),
		zap.Int("jobs", summary.Jobs),
		zap.Int("completed pairs", len(summary.Results)),
		zap.Int("skipped documents", len(summary.DocumentFailures)),
		zap.Int("skipped pairs", len(summary.PairFailures)),
	)

	for _, failure := range summary.DocumentFailures {
		logger.Warn("document skipped",
			zap.String("resume", failure.ResumeID),
			zap.String("job", failure.JobID),
			zap.String("stage", string(failure.Kind)),
			zap.String("reason", failure.Reason),
		)
	}

	for _, failure := range summary.PairFailures {
		logger.Warn("pair skipped",
			zap.String("resume", failure.ResumeID),
			zap.String("job", failure.JobID),
			zap.String("stage", string(failure.Kind)),
			zap.String("reason", failure.Reason),
		)
	}
}

// newGeminiStages builds the scorer and the assessor on a shared client.
// Scoring needs the embedding model, so the api key is required even when
// the evaluation stage is skipped.
func newGeminiStages(ctx context.Context, cfg *AIConfig, weights scoring.Weights, logger *zap.Logger) (*scoring.Scorer, ai.Assessor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, err
	}

	genLogger := logging.WithCommonFields(logger, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.EmbeddingModel, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, nil, err
	}

	scorer := scoring.New(generator, weights, logger)
	evaluator := gemini.NewEvaluator(generator, cfg.Gemini.MaxLogLength, genLogger)

	return scorer, evaluator, nil
}

func decodeWeights(cfg *ScoringConfig) (scoring.Weights, error) {
	if cfg == nil || len(cfg.Weights) == 0 {
		return scoring.DefaultWeights(), nil
	}

	var weights scoring.Weights
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &weights,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(cfg.Weights); err != nil {
		return nil, fmt.Errorf("decoding scoring weights: %w", err)
	}

	return weights, nil
}

func withDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}

	if config.Inputs == nil {
		config.Inputs = &InputsConfig{}
	}
	if config.Inputs.Resumes == "" {
		config.Inputs.Resumes = defaultResumesDir
	}
	if config.Inputs.Jobs == "" {
		config.Inputs.Jobs = defaultJobsDir
	}

	if config.Outputs == nil {
		config.Outputs = &OutputsConfig{}
	}
	if config.Outputs.Extracted == "" {
		config.Outputs.Extracted = defaultExtractedDir
	}
	if config.Outputs.Scores == "" {
		config.Outputs.Scores = defaultScoresDir
	}
	if config.Outputs.Evaluations == "" {
		config.Outputs.Evaluations = defaultEvaluationsDir
	}

	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{}
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config
}
