package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/coaching"
	"github.com/fyrsmithlabs/coachd/internal/compression"
	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/embeddings"
	"github.com/fyrsmithlabs/coachd/internal/evaluation"
	"github.com/fyrsmithlabs/coachd/internal/extractors"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/memory"
	"github.com/fyrsmithlabs/coachd/internal/orchestrator"
	"github.com/fyrsmithlabs/coachd/internal/search"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

const tracerName = "github.com/fyrsmithlabs/coachd"

// app holds the capabilities shared by the commands.
type app struct {
	cfg          *config.Config
	logger       *logging.Logger
	telemetry    *telemetry.Telemetry
	embedder     embeddings.Provider
	store        memory.Store
	orchestrator *orchestrator.Orchestrator
}

type appOptions struct {
	quiet    bool
	progress orchestrator.ProgressCallback
}

// loadConfig loads configuration and checks the model credential.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredential(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp initializes logging, telemetry and every capability, then wires
// the orchestrator:
//  1. logger and telemetry
//  2. extractors, compactor and analysis pipeline
//  3. embeddings, exercise search and coaching stage
//  4. progress store and recorder
//  5. quality evaluator
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	a.telemetry, err = telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return nil, err
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	if opts.quiet {
		logCfg.Level = zapcore.ErrorLevel
	}
	a.logger, err = logging.NewLogger(logCfg, a.telemetry.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if health := a.telemetry.Health(); !health.Healthy || health.Degraded {
		a.logger.Warn(ctx, "telemetry degraded", zap.String("reason", health.Reason))
	}
	zl := a.logger.Underlying()
	tracer := a.telemetry.Tracer(tracerName)

	pipeline, err := newPipeline(cfg, a.logger, zl)
	if err != nil {
		return nil, err
	}

	stage, err := a.newCoachingStage(ctx, cfg, zl)
	if err != nil {
		return nil, err
	}

	a.store, err = memory.NewStore(cfg.Memory, zl)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress store: %w", err)
	}
	modalities, err := memory.ParseModalities(cfg.Memory.DeltaModalities)
	if err != nil {
		return nil, err
	}
	recorder, err := memory.NewRecorder(a.store, a.logger.Named("memory"), modalities...)
	if err != nil {
		return nil, err
	}

	evaluator, err := evaluation.New(cfg.Evaluation, cfg.Credentials.GeminiAPIKey.Value(), zl)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}

	a.orchestrator, err = orchestrator.New(pipeline, stage, recorder,
		orchestrator.WithEvaluator(evaluator),
		orchestrator.WithRubric(evaluation.RubricFromSettings(cfg.Evaluation)),
		orchestrator.WithProgress(opts.progress),
		orchestrator.WithLogger(a.logger.Named("orchestrator")),
		orchestrator.WithTracer(tracer),
	)
	if err != nil {
		return nil, err
	}

	a.logger.Debug(ctx, "capabilities initialized",
		zap.String("vision_url", cfg.Extractors.VisionURL),
		zap.String("speech_url", cfg.Extractors.SpeechURL),
		zap.String("embeddings", cfg.Embeddings.Provider),
		zap.String("memory", cfg.Memory.Backend),
		zap.String("evaluation", cfg.Evaluation.Provider),
	)
	return a, nil
}

func newPipeline(cfg *config.Config, logger *logging.Logger, zl *zap.Logger) (*analysis.Pipeline, error) {
	fillers, err := extractors.NewFillerCounter(nil)
	if err != nil {
		return nil, err
	}
	vision, err := extractors.NewVisionClient(
		extractors.ClientConfigFromSettings(cfg.Extractors.VisionURL, cfg.Extractors),
		cfg.Extractors.FramesSampled, zl)
	if err != nil {
		return nil, err
	}
	speech, err := extractors.NewSpeechClient(
		extractors.ClientConfigFromSettings(cfg.Extractors.SpeechURL, cfg.Extractors),
		fillers, zl)
	if err != nil {
		return nil, err
	}
	text, err := extractors.NewTextAnalyzer(fillers)
	if err != nil {
		return nil, err
	}

	compactCfg := compression.DefaultConfig()
	compactCfg.ThresholdTokens = cfg.Analysis.CompactionThresholdTokens
	compactCfg.TargetRatio = cfg.Analysis.CompactionRatio
	if err := compactCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compaction settings: %w", err)
	}

	return analysis.NewPipeline(vision, speech, text,
		analysis.WithCompactor(compression.NewExtractiveCompactor(compactCfg)),
		analysis.WithLogger(logger.Named("analysis")),
	)
}

func (a *app) newCoachingStage(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*coaching.Stage, error) {
	embedCfg := embeddings.ProviderConfigFromSettings(cfg.Embeddings)
	if embedCfg.Provider == "openai" && embedCfg.APIKey == "" {
		embedCfg.APIKey = cfg.Credentials.GeminiAPIKey.Value()
	}
	var err error
	a.embedder, err = embeddings.NewProvider(embedCfg, zl)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	searcher, err := search.NewCatalogSearcher(ctx, search.ConfigFromSettings(cfg.Search),
		a.embedder, search.DefaultCatalog(), zl)
	if err != nil {
		return nil, fmt.Errorf("failed to index exercise catalog: %w", err)
	}

	thresholds := coaching.ThresholdsFromSettings(cfg.Coaching.Thresholds)
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coaching thresholds: %w", err)
	}
	feedback, err := coaching.NewFeedbackAggregator(thresholds, cfg.Coaching.MaxFeedback)
	if err != nil {
		return nil, err
	}
	recommender, err := coaching.NewRecommender(searcher, thresholds, cfg.Coaching.MaxRecommendations, a.logger.Named("coaching"))
	if err != nil {
		return nil, err
	}
	return coaching.NewStage(feedback, recommender,
		coaching.WithStageLogger(a.logger.Named("coaching")),
	)
}

// Close releases the store, embedder and telemetry. Safe on a partially
// initialized app.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
