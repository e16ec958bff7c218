package coaching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/search"
)

// Search queries per weakness area.
const (
	QueryFillers    = "interview exercises reduce filler words"
	QueryEyeContact = "techniques improve eye contact video interviews"
	QueryPace       = "exercises control speaking rate presentations"
	QueryEnergy     = "vocal energy projection exercises public speaking"
	QueryConfidence = "build confident language interview answers"
	QueryStructure  = "structure concise interview answers STAR method"
	QueryGeneral    = "interview communication practice exercises"
)

var weaknessQueries = map[string]string{
	MetricFillerCount:       QueryFillers,
	MetricEyeContact:        QueryEyeContact,
	MetricWPM:               QueryPace,
	MetricEnergy:            QueryEnergy,
	MetricConfidence:        QueryConfidence,
	MetricAvgSentenceLength: QueryStructure,
	MetricGrammar:           QueryStructure,
}

// QueriesFor maps weaknesses to distinct search queries, preserving order.
// With no mappable weakness it returns the general practice query.
func QueriesFor(weaknesses []Assessment) []string {
	var queries []string
	seen := make(map[string]bool)
	for _, w := range weaknesses {
		q, ok := weaknessQueries[w.Metric]
		if !ok || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	if len(queries) == 0 {
		return []string{QueryGeneral}
	}
	return queries
}

// Recommender finds exercises for the weaknesses in a set of metrics.
type Recommender struct {
	searcher   search.Searcher
	thresholds Thresholds
	limit      int
	logger     *logging.Logger
}

// NewRecommender returns a recommender capped at limit results (at most 5).
func NewRecommender(s search.Searcher, t Thresholds, limit int, logger *logging.Logger) (*Recommender, error) {
	if s == nil {
		return nil, errors.New("searcher is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if limit <= 0 || limit > MaxRecommendations {
		limit = MaxRecommendations
	}
	return &Recommender{searcher: s, thresholds: t, limit: limit, logger: logger}, nil
}

// Recommend searches once per weakness query and interleaves the results so
// each weakness is represented, de-duplicating by title. It fails only when
// every query fails.
func (r *Recommender) Recommend(ctx context.Context, m analysis.CombinedMetrics) ([]search.ExerciseItem, error) {
	queries := QueriesFor(Weaknesses(m, r.thresholds))

	var (
		perQuery [][]search.ExerciseItem
		errs     []error
	)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := r.searcher.Search(ctx, q, r.limit)
		if err != nil {
			r.logger.Warn(ctx, "exercise search failed", zap.String("query", q), zap.Error(err))
			errs = append(errs, fmt.Errorf("search %q: %w", q, err))
			continue
		}
		perQuery = append(perQuery, items)
	}
	if len(perQuery) == 0 {
		return nil, errors.Join(errs...)
	}

	return interleave(perQuery, r.limit), nil
}

// interleave takes the i-th result of each list in turn, skipping titles
// already taken, until limit items are collected.
func interleave(lists [][]search.ExerciseItem, limit int) []search.ExerciseItem {
	out := make([]search.ExerciseItem, 0, limit)
	seen := make(map[string]bool)
	for i := 0; len(out) < limit; i++ {
		progressed := false
		for _, l := range lists {
			if i >= len(l) {
				continue
			}
			progressed = true
			if seen[l[i].Title] {
				continue
			}
			seen[l[i].Title] = true
			out = append(out, l[i])
			if len(out) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}
