package http

import (
	"github.com/fyrsmithlabs/coachd/internal/memory"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SessionRequest is the request body for POST /api/v1/sessions.
type SessionRequest struct {
	VideoPath string `json:"video_path"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

// ProgressResponse is the response body for GET /api/v1/users/:user_id/progress.
type ProgressResponse struct {
	UserID    string                   `json:"user_id"`
	Snapshots []memory.SessionSnapshot `json:"snapshots"`
}
