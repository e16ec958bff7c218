package coaching

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/search"
)

const instrumentationName = "github.com/fyrsmithlabs/coachd/internal/coaching"

// Record is the merged output of the coaching stage.
type Record struct {
	Feedback        []FeedbackItem        `json:"feedback"`
	Recommendations []search.ExerciseItem `json:"recommendations"`
	Strengths       []string              `json:"strengths"`
	Priorities      []string              `json:"priorities"`
}

// FeedbackBuilder produces feedback from metrics alone.
type FeedbackBuilder interface {
	Build(ctx context.Context, m analysis.CombinedMetrics) (Feedback, error)
}

// RecommendationSource produces exercises for the weaknesses in metrics.
type RecommendationSource interface {
	Recommend(ctx context.Context, m analysis.CombinedMetrics) ([]search.ExerciseItem, error)
}

// Stage runs the feedback and recommendation branches concurrently.
type Stage struct {
	feedback        FeedbackBuilder
	recommendations RecommendationSource

	logger *logging.Logger
	tracer trace.Tracer
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithStageLogger sets the stage logger.
func WithStageLogger(l *logging.Logger) StageOption {
	return func(s *Stage) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStageTracer overrides the global tracer.
func WithStageTracer(t trace.Tracer) StageOption {
	return func(s *Stage) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewStage wires the two branches. Both are required.
func NewStage(fb FeedbackBuilder, rec RecommendationSource, opts ...StageOption) (*Stage, error) {
	if fb == nil || rec == nil {
		return nil, errors.New("feedback builder and recommendation source are required")
	}
	s := &Stage{
		feedback:        fb,
		recommendations: rec,
		logger:          logging.NewNop(),
		tracer:          otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run produces the coaching record. Recommendation failure or an empty result
// yields empty recommendations; feedback failure fails the stage and wraps
// ErrNoFeedback.
func (s *Stage) Run(ctx context.Context, m analysis.CombinedMetrics) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "coaching.stage")
	defer span.End()

	var (
		fb   Feedback
		recs []search.ExerciseItem
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		func() {
			defer recoverBranch("feedback", &err)
			fb, err = s.feedback.Build(gctx, m)
		}()
		if err != nil && ctx.Err() == nil && !errors.Is(err, ErrNoFeedback) {
			err = fmt.Errorf("%w: %v", ErrNoFeedback, err)
		}
		return err
	})

	g.Go(func() error {
		var err error
		func() {
			defer recoverBranch("recommendations", &err)
			recs, err = s.recommendations.Recommend(gctx, m)
		}()
		if err != nil {
			s.logger.Warn(ctx, "recommendation search failed, continuing without recommendations", zap.Error(err))
			recs = nil
		} else if len(recs) == 0 {
			s.logger.Warn(ctx, "recommendation search returned no exercises")
		}
		// Never fails the group.
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Record{}, err
	}

	if recs == nil {
		recs = []search.ExerciseItem{}
	}
	rec := Record{
		Feedback:        fb.Items,
		Recommendations: recs,
		Strengths:       fb.Strengths,
		Priorities:      fb.Priorities,
	}
	span.SetAttributes(
		attribute.Int("coaching.feedback_items", len(rec.Feedback)),
		attribute.Int("coaching.recommendations", len(rec.Recommendations)),
	)
	s.logger.Debug(ctx, "coaching stage finished",
		zap.Int("feedback_items", len(rec.Feedback)),
		zap.Int("recommendations", len(rec.Recommendations)),
		zap.Strings("priorities", rec.Priorities),
	)
	return rec, nil
}

func recoverBranch(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s branch panicked: %v", name, r)
	}
}
