package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/coachd/internal/memory"
)

var (
	// ErrInvalidRequest is returned when a Request fails validation.
	ErrInvalidRequest = errors.New("invalid session request")

	// ErrInvalidTransition is returned by Session.Transition for out-of-order moves.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// State is a session lifecycle state.
type State string

const (
	StateCreated    State = "created"
	StateAnalyzing  State = "analyzing"
	StateCoaching   State = "coaching"
	StateRecording  State = "recording"
	StateEvaluating State = "evaluating"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// WorkingStates returns the states that do work, in execution order.
func WorkingStates() []State {
	return []State{StateCreated, StateAnalyzing, StateCoaching, StateRecording, StateEvaluating}
}

var nextState = map[State]State{
	StateCreated:    StateAnalyzing,
	StateAnalyzing:  StateCoaching,
	StateCoaching:   StateRecording,
	StateRecording:  StateEvaluating,
	StateEvaluating: StateDone,
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Session tracks the lifecycle of one run. It is owned by a single Run call.
type Session struct {
	ID        string
	UserID    string
	State     State
	StartedAt time.Time

	history []State
}

// NewSession returns a session in StateCreated.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		State:     StateCreated,
		StartedAt: now,
		history:   []State{StateCreated},
	}
}

// Transition moves the session to next. Only the successor of the current
// state is accepted, plus StateFailed from any non-terminal state.
func (s *Session) Transition(next State) error {
	if s.State.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, s.State)
	}
	if next != StateFailed && nextState[s.State] != next {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, next)
	}
	s.State = next
	s.history = append(s.history, next)
	return nil
}

// History returns every state the session has been in.
func (s *Session) History() []State {
	return append([]State(nil), s.history...)
}

// PhaseStatus is the outcome of one phase.
type PhaseStatus string

const (
	StatusInProgress PhaseStatus = "in_progress"
	StatusCompleted  PhaseStatus = "completed"
	StatusFailed     PhaseStatus = "failed"
	StatusSkipped    PhaseStatus = "skipped"
)

// PhaseResult captures the outcome of a phase execution.
type PhaseResult struct {
	Phase       State         `json:"phase"`
	Status      PhaseStatus   `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// PhaseProgress reports progress during execution.
type PhaseProgress struct {
	Phase      State       `json:"phase"`
	Status     PhaseStatus `json:"status"`
	Message    string      `json:"message"`
	Percentage int         `json:"percentage"`
}

// ProgressCallback receives progress updates during execution.
type ProgressCallback func(progress PhaseProgress)

// Request starts a session. SessionID defaults to NewSessionID.
type Request struct {
	VideoPath string `json:"video_path" validate:"required"`
	UserID    string `json:"user_id" validate:"required,max=128"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// NewSessionID returns session_YYYYMMDD_HHMMSS for t followed by eight hex
// characters, so sessions started in the same second get distinct ids.
func NewSessionID(t time.Time) string {
	return "session_" + t.Format("20060102_150405") + "_" + uuid.NewString()[:8]
}

// SessionReport is the result of a run. On failure it holds whatever the
// completed phases produced.
type SessionReport struct {
	SessionID    string                 `json:"session_id"`
	UserID       string                 `json:"user_id"`
	State        State                  `json:"state"`
	Snapshot     memory.SessionSnapshot `json:"snapshot"`
	Deltas       []memory.ProgressDelta `json:"deltas"`
	Baseline     bool                   `json:"baseline"`
	ProgressNote string                 `json:"progress_note"`
	QualityScore *float64               `json:"quality_score"`
	QualityError string                 `json:"quality_error,omitempty"`
	Phases       []PhaseResult          `json:"phases"`
	Warnings     []string               `json:"warnings"`
}
