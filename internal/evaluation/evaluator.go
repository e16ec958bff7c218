package evaluation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/coaching"
	"github.com/fyrsmithlabs/coachd/internal/config"
)

var (
	// ErrUnparseableScore is returned when a model reply has no valid score.
	ErrUnparseableScore = errors.New("unparseable evaluation score")

	// ErrNoCriteria is returned when a rubric selects no known criterion.
	ErrNoCriteria = errors.New("rubric has no known criteria")
)

// Criterion names.
const (
	CriterionRelevance     = "relevance_score"
	CriterionActionability = "actionability"
)

// DefaultGroundTruth describes what good coaching output looks like.
const DefaultGroundTruth = "actionable feedback with specific metrics"

// Rubric is the criteria and ground truth handed to an evaluator.
type Rubric struct {
	Criteria    []string `json:"criteria"`
	GroundTruth string   `json:"ground_truth"`
}

// DefaultRubric returns relevance and actionability against the default
// ground truth.
func DefaultRubric() Rubric {
	return Rubric{
		Criteria:    []string{CriterionRelevance, CriterionActionability},
		GroundTruth: DefaultGroundTruth,
	}
}

// RubricFromSettings maps the evaluation config section, falling back to the
// defaults for empty fields.
func RubricFromSettings(s config.EvaluationConfig) Rubric {
	r := DefaultRubric()
	if len(s.Criteria) > 0 {
		r.Criteria = s.Criteria
	}
	if s.GroundTruth != "" {
		r.GroundTruth = s.GroundTruth
	}
	return r
}

// Evaluator scores a coaching record in [0,1].
type Evaluator interface {
	Evaluate(ctx context.Context, record coaching.Record, rubric Rubric) (float64, error)
}

// New builds the evaluator selected by cfg. apiKey is required for the llm
// and fallback providers.
func New(cfg config.EvaluationConfig, apiKey string, logger *zap.Logger) (Evaluator, error) {
	rubric := NewRubricEvaluator()
	switch cfg.Provider {
	case "rubric":
		return rubric, nil
	case "llm", "fallback", "":
		model, err := NewChatModel(ModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  apiKey,
		})
		if err != nil {
			return nil, err
		}
		llm, err := NewLLMEvaluator(model, LLMConfigFromSettings(cfg), logger)
		if err != nil {
			return nil, err
		}
		if cfg.Provider == "llm" {
			return llm, nil
		}
		return NewFallbackEvaluator(llm, rubric, logger), nil
	default:
		return nil, fmt.Errorf("unknown evaluation provider %q", cfg.Provider)
	}
}
