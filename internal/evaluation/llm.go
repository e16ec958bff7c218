package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/coachd/internal/coaching"
	"github.com/fyrsmithlabs/coachd/internal/config"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/coachd/internal/evaluation")

// ModelConfig selects the chat model endpoint.
type ModelConfig struct {
	// BaseURL is an OpenAI-compatible root, e.g. Gemini's
	// https://generativelanguage.googleapis.com/v1beta/openai/.
	BaseURL string
	Model   string
	APIKey  string
}

// NewChatModel returns a langchaingo model for cfg.
func NewChatModel(cfg ModelConfig) (llms.Model, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, errors.New("evaluation model requires base URL and model")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for evaluation model", config.ErrMissingCredential)
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return llm, nil
}

// LLMConfig tunes request pacing.
type LLMConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RequestsPerSec float64
	BaseBackoff    time.Duration
}

// LLMConfigFromSettings maps the evaluation config section.
func LLMConfigFromSettings(s config.EvaluationConfig) LLMConfig {
	return LLMConfig{
		Timeout:        s.Timeout.Duration(),
		MaxRetries:     s.MaxRetries,
		RequestsPerSec: s.RequestsPerSec,
	}
}

// LLMEvaluator grades records with a chat model.
type LLMEvaluator struct {
	model       llms.Model
	limiter     *rate.Limiter
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// NewLLMEvaluator wraps model with rate limiting and retries.
func NewLLMEvaluator(model llms.Model, cfg LLMConfig, logger *zap.Logger) (*LLMEvaluator, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.BaseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &LLMEvaluator{
		model:       model,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		timeout:     timeout,
		maxRetries:  max(cfg.MaxRetries, 0),
		baseBackoff: backoff,
		logger:      logger.Named("llm_evaluator"),
	}, nil
}

type scoreReply struct {
	Score     *float64 `json:"score"`
	Reasoning string   `json:"reasoning"`
}

// Evaluate asks the model for a JSON score. Generation errors are retried
// with exponential backoff; a reply without a score in [0,1] fails with
// ErrUnparseableScore and is not retried.
func (e *LLMEvaluator) Evaluate(ctx context.Context, record coaching.Record, rubric Rubric) (float64, error) {
	ctx, span := tracer.Start(ctx, "evaluation.llm")
	defer span.End()

	prompt, err := buildPrompt(record, rubric)
	if err != nil {
		return 0, err
	}

	var reply string
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.baseBackoff * time.Duration(1<<(attempt-1))
			e.logger.Debug("retrying evaluation",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limiter error: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		reply, lastErr = llms.GenerateFromSinglePrompt(callCtx, e.model, prompt, llms.WithTemperature(0))
		cancel()
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, lastErr.Error())
		return 0, fmt.Errorf("evaluation model failed after %d attempts: %w", e.maxRetries+1, lastErr)
	}

	score, reasoning, err := parseScore(reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Float64("evaluation.score", score))
	e.logger.Debug("evaluation scored", zap.Float64("score", score), zap.String("reasoning", reasoning))
	return score, nil
}

func buildPrompt(record coaching.Record, rubric Rubric) (string, error) {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	var b strings.Builder
	b.WriteString("You are grading interview coaching output.\n")
	fmt.Fprintf(&b, "Criteria: %s\n", strings.Join(rubric.Criteria, ", "))
	fmt.Fprintf(&b, "Expected: %s\n\n", rubric.GroundTruth)
	b.WriteString("Coaching output:\n")
	b.Write(payload)
	b.WriteString("\n\nReply with only a JSON object of the form ")
	b.WriteString(`{"score": <number between 0 and 1>, "reasoning": "<one sentence>"}`)
	return b.String(), nil
}

// parseScore extracts {"score":x,"reasoning":"..."} from a model reply that
// may be wrapped in a markdown fence or surrounding prose.
func parseScore(reply string) (float64, string, error) {
	text := extractJSON(reply)
	if text == "" {
		return 0, "", fmt.Errorf("%w: no JSON object in reply", ErrUnparseableScore)
	}
	var r scoreReply
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrUnparseableScore, err)
	}
	if r.Score == nil {
		return 0, "", fmt.Errorf("%w: missing score", ErrUnparseableScore)
	}
	if *r.Score < 0 || *r.Score > 1 {
		return 0, "", fmt.Errorf("%w: score %v outside [0,1]", ErrUnparseableScore, *r.Score)
	}
	return *r.Score, r.Reasoning, nil
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
