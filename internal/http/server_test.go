package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/memory"
	"github.com/fyrsmithlabs/coachd/internal/orchestrator"
)

// MockSessionRunner is a mock implementation of SessionRunner
type MockSessionRunner struct {
	mock.Mock
}

func (m *MockSessionRunner) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.SessionReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*orchestrator.SessionReport)
	return report, args.Error(1)
}

type failingHistory struct{}

func (failingHistory) Latest(context.Context, string) (*memory.SessionSnapshot, error) {
	return nil, errors.New("badger closed")
}

func (failingHistory) History(context.Context, string, int) ([]memory.SessionSnapshot, error) {
	return nil, errors.New("badger closed")
}

func setupTestServer(t *testing.T, runner SessionRunner, history HistoryReader) *Server {
	t.Helper()
	if runner == nil {
		runner = &MockSessionRunner{}
	}
	if history == nil {
		history = memory.NewInMemoryStore()
	}
	server, err := NewServer(runner, history, zap.NewNop(), nil)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	runner := &MockSessionRunner{}
	store := memory.NewInMemoryStore()

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(runner, store, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost:8080", server.addr)
	})

	t.Run("uses settings", func(t *testing.T) {
		cfg := ConfigFromSettings(config.ServerConfig{Host: "0.0.0.0", Port: 9000})
		server, err := NewServer(runner, store, zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", server.addr)
	})

	t.Run("rejects missing dependencies", func(t *testing.T) {
		_, err := NewServer(nil, store, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "session runner cannot be nil")
		_, err = NewServer(runner, nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "history reader cannot be nil")
		_, err = NewServer(runner, store, nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})
}

func TestHandleHealth(t *testing.T) {
	rec := doJSON(t, setupTestServer(t, nil, nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleMetrics(t *testing.T) {
	rec := doJSON(t, setupTestServer(t, nil, nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandleRunSession(t *testing.T) {
	score := 0.75
	report := &orchestrator.SessionReport{
		SessionID:    "s1",
		UserID:       "ana",
		State:        orchestrator.StateDone,
		Baseline:     true,
		ProgressNote: memory.BaselineNote,
		QualityScore: &score,
	}
	missing := fmt.Errorf("%w: /videos/nope.mp4", orchestrator.ErrMediaNotFound)
	invalid := fmt.Errorf("%w: user_id is required", orchestrator.ErrInvalidRequest)

	tests := []struct {
		name       string
		report     *orchestrator.SessionReport
		err        error
		wantStatus int
	}{
		{"success", report, nil, http.StatusOK},
		{"invalid request", nil, invalid, http.StatusBadRequest},
		{"missing media", &orchestrator.SessionReport{State: orchestrator.StateFailed}, missing, http.StatusNotFound},
		{"pipeline failure", &orchestrator.SessionReport{State: orchestrator.StateFailed}, errors.New("coaching: no feedback"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockSessionRunner{}
			want := orchestrator.Request{VideoPath: "/videos/a.mp4", UserID: "ana", SessionID: "s1"}
			runner.On("Run", mock.Anything, want).Return(tt.report, tt.err).Once()

			rec := doJSON(t, setupTestServer(t, runner, nil), http.MethodPost, "/api/v1/sessions",
				SessionRequest{VideoPath: "/videos/a.mp4", UserID: "ana", SessionID: "s1"})
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			runner.AssertExpectations(t)

			if tt.err == nil {
				var got orchestrator.SessionReport
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, "s1", got.SessionID)
				assert.Equal(t, orchestrator.StateDone, got.State)
				require.NotNil(t, got.QualityScore)
				assert.Equal(t, 0.75, *got.QualityScore)
			}
		})
	}
}

func TestHandleRunSession_BadBody(t *testing.T) {
	runner := &MockSessionRunner{}
	server := setupTestServer(t, runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func seedStore(t *testing.T, userID string, n int) *memory.InMemoryStore {
	t.Helper()
	store := memory.NewInMemoryStore()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		require.NoError(t, store.Append(context.Background(), memory.SessionSnapshot{
			SessionID: fmt.Sprintf("s%d", i),
			UserID:    userID,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	return store
}

func TestHandleLatest(t *testing.T) {
	server := setupTestServer(t, nil, seedStore(t, "ana", 3))

	rec := doJSON(t, server, http.MethodGet, "/api/v1/users/ana/progress/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap memory.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "s3", snap.SessionID)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/users/bo/progress/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing := setupTestServer(t, nil, failingHistory{})
	rec = doJSON(t, failing, http.MethodGet, "/api/v1/users/ana/progress/latest", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "badger closed")
}

func TestHandleHistory(t *testing.T) {
	server := setupTestServer(t, nil, seedStore(t, "ana", 4))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{"default limit", "", http.StatusOK, []string{"s4", "s3", "s2", "s1"}},
		{"limit 2", "?limit=2", http.StatusOK, []string{"s4", "s3"}},
		{"zero", "?limit=0", http.StatusBadRequest, nil},
		{"not a number", "?limit=lots", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodGet, "/api/v1/users/ana/progress"+tt.query, nil)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantIDs == nil {
				return
			}
			var resp ProgressResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "ana", resp.UserID)
			ids := make([]string, 0, len(resp.Snapshots))
			for _, s := range resp.Snapshots {
				ids = append(ids, s.SessionID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	rec := doJSON(t, server, http.MethodGet, "/api/v1/users/bo/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"bo","snapshots":[]}`, rec.Body.String())
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	server, err := NewServer(&MockSessionRunner{}, memory.NewInMemoryStore(), zap.New(core), nil)
	require.NoError(t, err)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/users/bo/progress/latest", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, fields["request_id"], rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestIDReachesHandlerContext(t *testing.T) {
	runner := &MockSessionRunner{}
	var seen string
	runner.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen = logging.RequestIDFromContext(args.Get(0).(context.Context))
		}).
		Return(&orchestrator.SessionReport{SessionID: "s1"}, nil)

	rec := doJSON(t, setupTestServer(t, runner, nil), http.MethodPost, "/api/v1/sessions",
		SessionRequest{VideoPath: "/videos/a.mp4", UserID: "ana"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}
