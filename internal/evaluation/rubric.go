package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/coachd/internal/coaching"
)

// RubricEvaluator scores records locally.
//
// relevance_score is the share of feedback items whose message embeds their
// metric value. actionability is the mean of three checks: recommendations
// present, priorities present, and 3-5 feedback items.
type RubricEvaluator struct{}

// NewRubricEvaluator returns a local evaluator.
func NewRubricEvaluator() *RubricEvaluator { return &RubricEvaluator{} }

// Evaluate averages the known criteria selected by the rubric. Unknown
// criteria are ignored.
func (e *RubricEvaluator) Evaluate(ctx context.Context, record coaching.Record, rubric Rubric) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for _, c := range rubric.Criteria {
		switch c {
		case CriterionRelevance:
			sum += relevance(record)
		case CriterionActionability:
			sum += actionability(record)
		default:
			continue
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %v", ErrNoCriteria, rubric.Criteria)
	}
	return sum / float64(n), nil
}

func relevance(r coaching.Record) float64 {
	if len(r.Feedback) == 0 {
		return 0
	}
	specific := 0
	for _, f := range r.Feedback {
		if strings.Contains(f.Message, coaching.FormatValue(f.Metric, f.Value)) {
			specific++
		}
	}
	return float64(specific) / float64(len(r.Feedback))
}

func actionability(r coaching.Record) float64 {
	var score float64
	if len(r.Recommendations) > 0 {
		score++
	}
	if len(r.Priorities) > 0 {
		score++
	}
	if n := len(r.Feedback); n >= coaching.MinFeedbackItems && n <= coaching.MaxFeedbackItems {
		score++
	}
	return score / 3
}
