// Package http provides the coachd HTTP API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/memory"
	"github.com/fyrsmithlabs/coachd/internal/orchestrator"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// SessionRunner runs one coaching session.
type SessionRunner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.SessionReport, error)
}

// HistoryReader reads stored session snapshots.
type HistoryReader interface {
	Latest(ctx context.Context, userID string) (*memory.SessionSnapshot, error)
	History(ctx context.Context, userID string, limit int) ([]memory.SessionSnapshot, error)
}

// Server exposes session runs and progress history over echo.
type Server struct {
	echo     *echo.Echo
	sessions SessionRunner
	history  HistoryReader
	logger   *zap.Logger
	addr     string
}

// Config is the listen address. A nil Config means localhost:8080.
type Config struct {
	Host string
	Port int
}

func ConfigFromSettings(s config.ServerConfig) *Config {
	return &Config{Host: s.Host, Port: s.Port}
}

// NewServer wires middleware and routes. The logger is required: request
// logs are the only record of API calls.
func NewServer(sessions SessionRunner, history HistoryReader, logger *zap.Logger, cfg *Config) (*Server, error) {
	switch {
	case sessions == nil:
		return nil, errors.New("session runner cannot be nil")
	case history == nil:
		return nil, errors.New("history reader cannot be nil")
	case logger == nil:
		return nil, errors.New("logger is required")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}

	s := &Server{
		echo:     echo.New(),
		sessions: sessions,
		history:  history,
		logger:   logger,
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	metrics, err := newRequestMetrics(otel.Meter(httpInstrumentationName))
	if err != nil {
		logger.Warn("http metrics disabled", zap.Error(err))
	}
	s.echo.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		metrics.middleware(),
		s.logRequests,
	)
	s.registerRoutes()
	return s, nil
}

// logRequests copies the request id onto the request context and writes one
// entry per request once the error handler has set the status.
func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request().WithContext(logging.WithRequestID(c.Request().Context(), id))
		c.SetRequest(req)

		if err := next(c); err != nil {
			c.Error(err)
		}
		s.logger.Info("http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", id),
		)
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sessions", s.handleRunSession)
	v1.GET("/users/:user_id/progress/latest", s.handleLatest)
	v1.GET("/users/:user_id/progress", s.handleHistory)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRunSession runs a session synchronously and returns its report.
func (s *Server) handleRunSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid session request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := s.sessions.Run(c.Request().Context(), orchestrator.Request{
		VideoPath: req.VideoPath,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func sessionError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrator.ErrMediaNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

// handleLatest returns the most recent snapshot for a user.
func (s *Server) handleLatest(c echo.Context) error {
	userID := c.Param("user_id")
	snap, err := s.history.Latest(c.Request().Context(), userID)
	if err != nil {
		return historyError(err)
	}
	if snap == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no sessions recorded for %s", userID))
	}
	return c.JSON(http.StatusOK, snap)
}

// handleHistory returns up to limit snapshots for a user, newest first.
func (s *Server) handleHistory(c echo.Context) error {
	userID := c.Param("user_id")

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxHistoryLimit)
	}

	snaps, err := s.history.History(c.Request().Context(), userID, limit)
	if err != nil {
		return historyError(err)
	}
	return c.JSON(http.StatusOK, ProgressResponse{UserID: userID, Snapshots: snaps})
}

func historyError(err error) *echo.HTTPError {
	if errors.Is(err, memory.ErrEmptyUserID) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "history lookup failed").SetInternal(err)
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving until Shutdown, then returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("api listening", zap.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api draining")
	return s.echo.Shutdown(ctx)
}
