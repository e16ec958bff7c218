package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/coachd/internal/analysis"

// VisualExtractor measures facial expression and gaze from a video file.
type VisualExtractor interface {
	ExtractVisual(ctx context.Context, videoPath string) (VisualMetrics, error)
}

// VocalExtractor transcribes and measures prosody of an audio source.
type VocalExtractor interface {
	ExtractVocal(ctx context.Context, audioPath string) (VocalMetrics, error)
}

// LinguisticExtractor scores a transcript. Empty input must yield
// ErrEmptyTranscript.
type LinguisticExtractor interface {
	ExtractLinguistic(ctx context.Context, transcript string) (LinguisticMetrics, error)
}

// Compactor shortens long transcripts before linguistic analysis. It returns
// its input unchanged when no compaction is needed.
type Compactor interface {
	Compact(ctx context.Context, transcript string) (string, error)
}

// MediaInput references the media for one session. AudioPath is usually the
// video container itself.
type MediaInput struct {
	VideoPath   string `json:"video_path"`
	AudioPath   string `json:"audio_path"`
	ContentType string `json:"content_type,omitempty"`
}

// NewMediaInput builds an input whose audio is read from the video container.
func NewMediaInput(videoPath string) MediaInput {
	return MediaInput{VideoPath: videoPath, AudioPath: videoPath}
}

// Pipeline runs the visual, vocal and linguistic extractors in that order.
type Pipeline struct {
	visual     VisualExtractor
	vocal      VocalExtractor
	linguistic LinguisticExtractor
	compactor  Compactor

	logger *logging.Logger
	tracer trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCompactor sets the transcript compactor used before the linguistic stage.
func WithCompactor(c Compactor) Option {
	return func(p *Pipeline) { p.compactor = c }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// NewPipeline wires the three extractors. All three are required.
func NewPipeline(visual VisualExtractor, vocal VocalExtractor, linguistic LinguisticExtractor, opts ...Option) (*Pipeline, error) {
	if visual == nil || vocal == nil || linguistic == nil {
		return nil, errors.New("visual, vocal and linguistic extractors are required")
	}
	p := &Pipeline{
		visual:     visual,
		vocal:      vocal,
		linguistic: linguistic,
		logger:     logging.NewNop(),
		tracer:     otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run extracts all three modalities. It never fails: an extractor error or
// panic becomes that modality's error variant and the next stage still runs.
// When the vocal stage fails the linguistic stage receives an empty
// transcript.
func (p *Pipeline) Run(ctx context.Context, media MediaInput) CombinedMetrics {
	ctx, span := p.tracer.Start(ctx, "analysis.pipeline")
	defer span.End()

	audioPath := media.AudioPath
	if audioPath == "" {
		audioPath = media.VideoPath
	}

	var out CombinedMetrics

	out.Vision = runStage(ctx, p, "visual", func(ctx context.Context) (VisualMetrics, error) {
		m, err := p.visual.ExtractVisual(ctx, media.VideoPath)
		return m.Normalized(), err
	}, VisualError)

	out.Voice = runStage(ctx, p, "vocal", func(ctx context.Context) (VocalMetrics, error) {
		m, err := p.vocal.ExtractVocal(ctx, audioPath)
		return m.Normalized(), err
	}, VocalError)

	transcript := p.linguisticInput(ctx, out.Voice)

	out.Language = runStage(ctx, p, "linguistic", func(ctx context.Context) (LinguisticMetrics, error) {
		m, err := p.linguistic.ExtractLinguistic(ctx, transcript)
		return m.Normalized(), err
	}, LinguisticError)

	failed := out.Errors()
	span.SetAttributes(attribute.Int("analysis.failed_modalities", len(failed)))
	if len(failed) > 0 {
		p.logger.Warn(ctx, "analysis completed with modality errors", zap.Strings("errors", failed))
	}

	return out
}

// linguisticInput threads the vocal transcript into the linguistic stage,
// compacting it when a compactor is configured. Compaction failure falls back
// to the full transcript.
func (p *Pipeline) linguisticInput(ctx context.Context, voice VocalMetrics) string {
	if voice.Failed() {
		return ""
	}
	transcript := voice.Transcript
	if p.compactor == nil || transcript == "" {
		return transcript
	}

	compacted, err := p.compactor.Compact(ctx, transcript)
	if err != nil {
		p.logger.Warn(ctx, "transcript compaction failed, using full transcript", zap.Error(err))
		return transcript
	}
	if len(compacted) < len(transcript) {
		p.logger.Debug(ctx, "transcript compacted",
			zap.Int("original_bytes", len(transcript)),
			zap.Int("compacted_bytes", len(compacted)),
		)
	}
	return compacted
}

// runStage isolates one extractor call. Errors and panics are converted with
// onErr; successful output is returned as-is.
func runStage[T any](ctx context.Context, p *Pipeline, name string, fn func(context.Context) (T, error), onErr func(error) T) (out T) {
	ctx, span := p.tracer.Start(ctx, "analysis."+name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s extractor panicked: %v", name, r)
			p.logger.Error(ctx, "extractor panic recovered",
				zap.String("stage", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			out = onErr(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		p.logger.Debug(ctx, "analysis stage finished",
			zap.String("stage", name),
			zap.Duration("duration", time.Since(start)),
		)
		span.End()
	}()

	result, err := fn(ctx)
	if err != nil {
		p.logger.Warn(ctx, "extractor failed", zap.String("stage", name), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return onErr(err)
	}
	return result
}
