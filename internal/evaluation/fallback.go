package evaluation

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/coaching"
)

// FallbackEvaluator tries primary and uses secondary when it fails.
type FallbackEvaluator struct {
	primary   Evaluator
	secondary Evaluator
	logger    *zap.Logger
}

// NewFallbackEvaluator chains two evaluators.
func NewFallbackEvaluator(primary, secondary Evaluator, logger *zap.Logger) *FallbackEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackEvaluator{primary: primary, secondary: secondary, logger: logger}
}

// Evaluate implements Evaluator.
func (f *FallbackEvaluator) Evaluate(ctx context.Context, record coaching.Record, rubric Rubric) (float64, error) {
	score, err := f.primary.Evaluate(ctx, record, rubric)
	if err == nil {
		return score, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	f.logger.Warn("primary evaluator failed, using fallback", zap.Error(err))
	return f.secondary.Evaluate(ctx, record, rubric)
}
