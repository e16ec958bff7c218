package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/coachd/internal/config"
)

const instrumentationName = "github.com/fyrsmithlabs/coachd/internal/extractors"

// Defaults for model service clients.
const (
	defaultTimeout     = 60 * time.Second
	defaultBaseBackoff = 500 * time.Millisecond
	defaultRateLimit   = 5.0
	defaultBurst       = 5
	maxErrorBody       = 4 << 10
)

// ClientConfig configures one model service endpoint.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RequestsPerSec float64
	Burst          int
	BaseBackoff    time.Duration
}

// ClientConfigFromSettings builds a ClientConfig for baseURL from the
// extractors config section.
func ClientConfigFromSettings(baseURL string, s config.ExtractorsConfig) ClientConfig {
	return ClientConfig{
		BaseURL:        baseURL,
		Timeout:        s.Timeout.Duration(),
		MaxRetries:     s.MaxRetries,
		RequestsPerSec: s.RequestsPerSec,
		Burst:          s.Burst,
	}
}

// serviceClient is the HTTP plumbing shared by the vision and speech clients.
type serviceClient struct {
	name        string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
}

func newServiceClient(name string, cfg ClientConfig, logger *zap.Logger) (*serviceClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL required", name)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	maxRetries := max(cfg.MaxRetries, 0)
	rps := defaultRateLimit
	if cfg.RequestsPerSec > 0 {
		rps = cfg.RequestsPerSec
	}
	burst := defaultBurst
	if cfg.Burst > 0 {
		burst = cfg.Burst
	}
	backoff := defaultBaseBackoff
	if cfg.BaseBackoff > 0 {
		backoff = cfg.BaseBackoff
	}

	return &serviceClient{
		name:        name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries:  maxRetries,
		baseBackoff: backoff,
		logger:      logger.Named(name),
		tracer:      otel.Tracer(instrumentationName),
	}, nil
}

// postFile uploads filePath as the multipart field "file" together with the
// given form fields and decodes the JSON response into out. Transport errors,
// 429 and 5xx responses are retried with exponential backoff.
func (c *serviceClient) postFile(ctx context.Context, endpoint, filePath string, fields map[string]string, out any) error {
	ctx, span := c.tracer.Start(ctx, c.name+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("extractor.service", c.name),
		attribute.String("extractor.endpoint", endpoint),
	)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying model service call",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		err := c.doUpload(ctx, endpoint, filePath, fields, out)
		if err == nil {
			span.SetAttributes(attribute.Int("extractor.attempts", attempt+1))
			return nil
		}
		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	if isRetryableError(lastErr) {
		return fmt.Errorf("%s%s: max retries exceeded: %w", c.name, endpoint, lastErr)
	}
	return fmt.Errorf("%s%s: %w", c.name, endpoint, lastErr)
}

func (c *serviceClient) doUpload(ctx context.Context, endpoint, filePath string, fields map[string]string, out any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	fw, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	fd, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open media: %w", err)
	}
	defer fd.Close()

	if _, err := io.Copy(fw, fd); err != nil {
		return fmt.Errorf("failed to read media: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// retryableError marks an error as safe to retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
