package memory

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/coaching"
)

// ErrEmptyUserID is returned when a snapshot or lookup has no user.
var ErrEmptyUserID = errors.New("user id is required")

// ErrDuplicateSession is returned by Append when the user already has a
// snapshot with the same session id.
var ErrDuplicateSession = errors.New("session id already recorded")

// SessionSnapshot is one session's persisted metrics and coaching record.
type SessionSnapshot struct {
	SessionID string                   `json:"session_id"`
	UserID    string                   `json:"user_id"`
	Metrics   analysis.CombinedMetrics `json:"metrics"`
	Feedback  coaching.Record          `json:"feedback"`
	CreatedAt time.Time                `json:"created_at"`
}

// Direction is the sign of a metric change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// ProgressDelta is the change of one metric between two sessions.
type ProgressDelta struct {
	Metric    string    `json:"metric"`
	Prior     float64   `json:"prior"`
	Current   float64   `json:"current"`
	Change    float64   `json:"change"`
	Direction Direction `json:"direction"`
}

// Modality selects which metric group ComputeDelta compares.
type Modality string

const (
	ModalityVoice    Modality = "voice"
	ModalityVision   Modality = "vision"
	ModalityLanguage Modality = "language"
)

// ParseModalities converts config strings, rejecting unknown names.
func ParseModalities(names []string) ([]Modality, error) {
	out := make([]Modality, 0, len(names))
	for _, n := range names {
		switch m := Modality(n); m {
		case ModalityVoice, ModalityVision, ModalityLanguage:
			out = append(out, m)
		default:
			return nil, fmt.Errorf("unknown modality %q", n)
		}
	}
	return out, nil
}
