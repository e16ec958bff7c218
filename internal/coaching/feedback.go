package coaching

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

// ErrNoFeedback is returned when no modality produced usable metrics.
var ErrNoFeedback = errors.New("no feedback could be produced")

// Feedback limits.
const (
	MinFeedbackItems   = 3
	MaxFeedbackItems   = 5
	MaxStrengths       = 3
	MaxPriorities      = 3
	MaxRecommendations = 5
)

// FeedbackItem is one prioritized coaching point. Message always embeds
// Value as rendered by FormatValue.
type FeedbackItem struct {
	Metric  string  `json:"metric"`
	Tier    Tier    `json:"tier"`
	Kind    Kind    `json:"kind"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// Feedback is the output of the feedback branch.
type Feedback struct {
	Items      []FeedbackItem
	Strengths  []string
	Priorities []string
}

// FeedbackAggregator ranks metric assessments into feedback.
type FeedbackAggregator struct {
	thresholds Thresholds
	maxItems   int
}

// NewFeedbackAggregator returns an aggregator emitting at most maxItems
// feedback items. maxItems is clamped to 3-5.
func NewFeedbackAggregator(t Thresholds, maxItems int) (*FeedbackAggregator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if maxItems <= 0 {
		maxItems = MaxFeedbackItems
	}
	return &FeedbackAggregator{
		thresholds: t,
		maxItems:   min(max(maxItems, MinFeedbackItems), MaxFeedbackItems),
	}, nil
}

// Build produces tier-ordered feedback, the top strengths and the top
// improvement areas.
func (a *FeedbackAggregator) Build(ctx context.Context, m analysis.CombinedMetrics) (Feedback, error) {
	if err := ctx.Err(); err != nil {
		return Feedback{}, err
	}
	if m.AllFailed() {
		return Feedback{}, fmt.Errorf("%w: %v", ErrNoFeedback, m.Errors())
	}

	ranked := Assess(m, a.thresholds)
	if len(ranked) == 0 {
		return Feedback{}, ErrNoFeedback
	}
	slices.SortStableFunc(ranked, func(x, y Assessment) int {
		return x.Tier.rank() - y.Tier.rank()
	})

	items := lo.Map(ranked[:min(len(ranked), a.maxItems)], func(x Assessment, _ int) FeedbackItem {
		return FeedbackItem(x)
	})

	strengths := lo.FilterMap(ranked, func(x Assessment, _ int) (string, bool) {
		return x.Message, x.Kind == KindStrength
	})
	priorities := lo.FilterMap(ranked, func(x Assessment, _ int) (string, bool) {
		return Label(x.Metric), x.Kind == KindImprovement
	})

	return Feedback{
		Items:      items,
		Strengths:  lo.Slice(strengths, 0, MaxStrengths),
		Priorities: lo.Slice(priorities, 0, MaxPriorities),
	}, nil
}

// Weaknesses returns the improvement assessments in tier order.
func Weaknesses(m analysis.CombinedMetrics, t Thresholds) []Assessment {
	ranked := Assess(m, t)
	slices.SortStableFunc(ranked, func(x, y Assessment) int {
		return x.Tier.rank() - y.Tier.rank()
	})
	return lo.Filter(ranked, func(x Assessment, _ int) bool {
		return x.Kind == KindImprovement
	})
}
