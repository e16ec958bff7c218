package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/coaching"
	"github.com/fyrsmithlabs/coachd/internal/evaluation"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/memory"
)

const instrumentationName = "github.com/fyrsmithlabs/coachd/internal/orchestrator"

// Analyzer extracts combined metrics from media. It never fails.
type Analyzer interface {
	Run(ctx context.Context, media analysis.MediaInput) analysis.CombinedMetrics
}

// Coach turns combined metrics into a coaching record.
type Coach interface {
	Run(ctx context.Context, m analysis.CombinedMetrics) (coaching.Record, error)
}

// SessionRecorder appends a snapshot and returns the prior snapshot and deltas.
type SessionRecorder interface {
	Record(ctx context.Context, snap memory.SessionSnapshot) (*memory.SessionSnapshot, []memory.ProgressDelta, error)
}

// Orchestrator sequences the phases of a coaching session.
type Orchestrator struct {
	analyzer  Analyzer
	coach     Coach
	recorder  SessionRecorder
	evaluator evaluation.Evaluator
	rubric    evaluation.Rubric
	gates     []Gate

	validate *validator.Validate
	progress ProgressCallback
	now      func() time.Time
	logger   *logging.Logger
	tracer   trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvaluator sets the quality evaluator. Without one the evaluating phase
// is skipped.
func WithEvaluator(e evaluation.Evaluator) Option {
	return func(o *Orchestrator) { o.evaluator = e }
}

// WithRubric overrides evaluation.DefaultRubric.
func WithRubric(r evaluation.Rubric) Option {
	return func(o *Orchestrator) { o.rubric = r }
}

// WithGates replaces DefaultGates.
func WithGates(gates ...Gate) Option {
	return func(o *Orchestrator) { o.gates = gates }
}

// WithProgress sets the progress callback. It is called from the goroutine
// running Run.
func WithProgress(cb ProgressCallback) Option {
	return func(o *Orchestrator) { o.progress = cb }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New wires the session capabilities. analyzer, coach and recorder are
// required.
func New(analyzer Analyzer, coach Coach, recorder SessionRecorder, opts ...Option) (*Orchestrator, error) {
	if analyzer == nil || coach == nil || recorder == nil {
		return nil, errors.New("analyzer, coach and recorder are required")
	}
	o := &Orchestrator{
		analyzer: analyzer,
		coach:    coach,
		recorder: recorder,
		rubric:   evaluation.DefaultRubric(),
		gates:    DefaultGates(),
		validate: validator.New(),
		now:      time.Now,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// run carries the mutable state of one Run call.
type run struct {
	session *Session
	report  *SessionReport
	media   analysis.MediaInput
	metrics analysis.CombinedMetrics
	record  coaching.Record
}

// Run executes a session. On failure the returned report is non-nil
// (except for ErrInvalidRequest) and holds the phases completed so far in
// state FAILED.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*SessionReport, error) {
	start := o.now()
	if req.SessionID == "" {
		req.SessionID = NewSessionID(start)
	}
	if err := o.validate.Struct(req); err != nil {
		SessionsTotal.WithLabelValues(resultInvalid).Inc()
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ctx = logging.WithSessionID(ctx, req.SessionID)
	ctx = logging.WithUserID(ctx, req.UserID)
	ctx, span := o.tracer.Start(ctx, "orchestrator.Run", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("user.id", req.UserID),
	))
	defer span.End()

	r := &run{
		session: NewSession(req.SessionID, req.UserID, start),
		media:   analysis.NewMediaInput(req.VideoPath),
		report: &SessionReport{
			SessionID: req.SessionID,
			UserID:    req.UserID,
			State:     StateCreated,
			Deltas:    []memory.ProgressDelta{},
			Phases:    []PhaseResult{},
			Warnings:  []string{},
		},
	}

	o.logger.Info(ctx, "session started", zap.String("video_path", req.VideoPath))

	phases := []struct {
		state State
		fn    func(context.Context, *run) (PhaseStatus, error)
	}{
		{StateCreated, o.checkMedia},
		{StateAnalyzing, o.analyze},
		{StateCoaching, o.coachSession},
		{StateRecording, o.recordSession},
		{StateEvaluating, o.evaluate},
	}

	for i, p := range phases {
		if err := o.runPhase(ctx, r, p.state, i, len(phases), p.fn); err != nil {
			o.fail(ctx, r, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return r.report, err
		}
	}

	if err := r.session.Transition(StateDone); err != nil {
		return r.report, err
	}
	r.report.State = StateDone
	SessionsTotal.WithLabelValues(resultSuccess).Inc()
	o.reportProgress(PhaseProgress{
		Phase:      StateDone,
		Status:     StatusCompleted,
		Message:    "Session complete",
		Percentage: 100,
	})

	span.SetAttributes(
		attribute.Bool("session.baseline", r.report.Baseline),
		attribute.Int("session.warnings", len(r.report.Warnings)),
	)
	o.logger.Info(ctx, "session complete",
		zap.Duration("duration", o.now().Sub(start)),
		zap.Int("warnings", len(r.report.Warnings)),
	)
	return r.report, nil
}

// runPhase moves the session into state and runs fn under a span and timer.
func (o *Orchestrator) runPhase(ctx context.Context, r *run, state State, idx, total int, fn func(context.Context, *run) (PhaseStatus, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("session cancelled before %s: %w", state, err)
	}
	if state != r.session.State {
		if err := r.session.Transition(state); err != nil {
			return err
		}
	}
	r.report.State = state

	o.reportProgress(PhaseProgress{
		Phase:      state,
		Status:     StatusInProgress,
		Message:    fmt.Sprintf("Starting phase: %s", state),
		Percentage: idx * 100 / total,
	})

	ctx, span := o.tracer.Start(ctx, "orchestrator."+string(state))
	defer span.End()

	result := PhaseResult{Phase: state, StartedAt: o.now()}
	status, err := fn(ctx, r)
	result.CompletedAt = o.now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	PhaseDuration.WithLabelValues(string(state)).Observe(result.Duration.Seconds())

	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		r.report.Phases = append(r.report.Phases, result)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.reportProgress(PhaseProgress{
			Phase:      state,
			Status:     StatusFailed,
			Message:    err.Error(),
			Percentage: idx * 100 / total,
		})
		return err
	}

	result.Status = status
	r.report.Phases = append(r.report.Phases, result)
	span.SetAttributes(attribute.String("phase.status", string(status)))
	o.reportProgress(PhaseProgress{
		Phase:      state,
		Status:     status,
		Message:    fmt.Sprintf("Completed phase: %s", state),
		Percentage: (idx + 1) * 100 / total,
	})
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, r *run, err error) {
	result := resultFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result = resultCancelled
	}
	from := r.session.State
	if !r.session.State.Terminal() {
		_ = r.session.Transition(StateFailed)
	}
	r.report.State = StateFailed
	SessionsTotal.WithLabelValues(result).Inc()
	o.logger.Error(ctx, "session failed", zap.String("phase", string(from)), zap.Error(err))
}

func (o *Orchestrator) checkMedia(ctx context.Context, r *run) (PhaseStatus, error) {
	for _, g := range o.gates {
		violations, err := g.Check(ctx, &r.media)
		if err != nil {
			return "", fmt.Errorf("gate %s check failed: %w", g.Name(), err)
		}
		if v, ok := firstCritical(violations); ok {
			if v.Err != nil {
				return "", v.Err
			}
			return "", fmt.Errorf("gate %s: %s", v.Gate, v.Description)
		}
		for _, v := range violations {
			o.warn(ctx, r, v.Description)
		}
	}
	return StatusCompleted, nil
}

func (o *Orchestrator) analyze(ctx context.Context, r *run) (PhaseStatus, error) {
	r.metrics = o.analyzer.Run(ctx, r.media)
	for _, e := range r.metrics.Errors() {
		r.report.Warnings = append(r.report.Warnings, "analysis "+e)
	}
	return StatusCompleted, nil
}

func (o *Orchestrator) coachSession(ctx context.Context, r *run) (PhaseStatus, error) {
	record, err := o.coach.Run(ctx, r.metrics)
	if err != nil {
		return "", fmt.Errorf("coaching: %w", err)
	}
	if len(record.Recommendations) == 0 {
		o.warn(ctx, r, "no exercise recommendations available")
	}
	r.record = record
	return StatusCompleted, nil
}

func (o *Orchestrator) recordSession(ctx context.Context, r *run) (PhaseStatus, error) {
	snap := memory.SessionSnapshot{
		SessionID: r.session.ID,
		UserID:    r.session.UserID,
		Metrics:   r.metrics,
		Feedback:  r.record,
		CreatedAt: o.now().UTC(),
	}
	r.report.Snapshot = snap

	prior, deltas, err := o.recorder.Record(ctx, snap)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		o.warn(ctx, r, fmt.Sprintf("progress not saved: %v", err))
	}

	r.report.Baseline = prior == nil
	if deltas != nil {
		r.report.Deltas = deltas
	}
	r.report.ProgressNote = memory.ProgressNote(r.report.Deltas, r.report.Baseline)
	if err != nil {
		return StatusFailed, nil
	}
	return StatusCompleted, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, r *run) (PhaseStatus, error) {
	if o.evaluator == nil {
		return StatusSkipped, nil
	}
	score, err := o.evaluator.Evaluate(ctx, r.record, o.rubric)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.report.QualityError = err.Error()
		o.warn(ctx, r, fmt.Sprintf("quality evaluation failed: %v", err))
		return StatusFailed, nil
	}
	r.report.QualityScore = lo.ToPtr(score)
	return StatusCompleted, nil
}

func (o *Orchestrator) warn(ctx context.Context, r *run, msg string) {
	r.report.Warnings = append(r.report.Warnings, msg)
	o.logger.Warn(ctx, msg, zap.String("phase", string(r.session.State)))
}

func (o *Orchestrator) reportProgress(p PhaseProgress) {
	if o.progress != nil {
		o.progress(p)
	}
}
