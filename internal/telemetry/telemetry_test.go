package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/coachd/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, tel.Tracer("coachd.analysis"))
	assert.NotNil(t, tel.Meter("coachd.analysis"))
	assert.False(t, tel.Enabled())
	assert.Nil(t, tel.LoggerProvider())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
}

func TestNew_InvalidConfig(t *testing.T) {
	tel, err := New(context.Background(), &Config{Enabled: true})
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_EnabledWithoutCollector(t *testing.T) {
	// OTLP exporters connect lazily, so startup succeeds with no collector.
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "127.0.0.1:1"

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, tel.Enabled())
	assert.NotNil(t, tel.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tel.Shutdown(ctx)
	assert.False(t, tel.Health().Healthy)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		_ = tel.Tracer("x")
		_ = tel.Meter("x")
		_ = tel.LoggerProvider()
		_ = tel.Enabled()
		_ = tel.Shutdown(context.Background())
	})
	assert.True(t, tel.Health().Degraded)
}

func TestTelemetry_Shutdown(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	var order []string
	tel.shutdowns = []func(context.Context) error{
		func(context.Context) error { order = append(order, "traces"); return nil },
		func(context.Context) error { order = append(order, "metrics"); return errors.New("flush failed") },
	}

	err = tel.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")
	assert.Equal(t, []string{"metrics", "traces"}, order)
	assert.False(t, tel.Health().Healthy)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestTelemetry_Degrade(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	tel.degrade("traces", errors.New("dial tcp"))
	tel.degrade("metrics", errors.New("bad endpoint"))

	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.True(t, health.Degraded)
	assert.Equal(t, "traces export disabled: dial tcp; metrics export disabled: bad endpoint", health.Reason)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Endpoint = "" }},
		{name: "enabled local", mutate: func(c *Config) { c.Enabled = true }},
		{name: "missing endpoint", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "" }, wantErr: "endpoint is required"},
		{name: "missing service", mutate: func(c *Config) { c.Enabled = true; c.ServiceName = "" }, wantErr: "service_name is required"},
		{name: "bad protocol", mutate: func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, wantErr: "protocol must be"},
		{name: "insecure remote", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, wantErr: "insecure export"},
		{name: "secure remote", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317"; c.Insecure = false }},
		{name: "ipv6 loopback", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }},
		{name: "http scheme loopback", mutate: func(c *Config) {
			c.Enabled = true
			c.Protocol = ProtocolHTTP
			c.Endpoint = "http://127.0.0.1:4318"
		}},
		{name: "sample rate", mutate: func(c *Config) { c.Enabled = true; c.Sampling.Rate = 1.5 }, wantErr: "sampling rate"},
		{name: "export interval", mutate: func(c *Config) { c.Enabled = true; c.Metrics.ExportInterval = 0 }, wantErr: "export interval"},
		{name: "shutdown timeout", mutate: func(c *Config) { c.Enabled = true; c.Shutdown.Timeout = 0 }, wantErr: "shutdown timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "collector:4317",
		Protocol:    ProtocolHTTP,
		ServiceName: "coachd-test",
		SampleRate:  0.25,
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4317", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, "coachd-test", cfg.ServiceName)
	assert.False(t, cfg.Insecure)
	assert.InDelta(t, 0.25, cfg.Sampling.Rate, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval.Duration())

	empty := FromSettings(config.TelemetryConfig{})
	assert.Equal(t, "coachd", empty.ServiceName)
	assert.Equal(t, ProtocolGRPC, empty.Protocol)
}

func TestNewResource(t *testing.T) {
	res := newResource(NewDefaultConfig())

	name, ok := res.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "coachd", name.AsString())
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "host:4318", hostPort("https://host:4318"))
	assert.Equal(t, "host:4318", hostPort("http://host:4318"))
	assert.Equal(t, "host:4317", hostPort("host:4317"))
}

func TestIsLoopback(t *testing.T) {
	for endpoint, want := range map[string]bool{
		"localhost:4317":        true,
		"127.0.0.1:4317":        true,
		"http://127.0.0.2:4318": true,
		"[::1]:4317":            true,
		"collector:4317":        false,
		"10.0.0.5:4317":         false,
	} {
		assert.Equal(t, want, isLoopback(endpoint), endpoint)
	}
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("coachd.test").Start(ctx, "analysis.vocal")
	span.SetAttributes(attribute.String("modality", "voice"), attribute.Int64("words", 42))
	span.End()

	tt.AssertSpanExists(t, "analysis.vocal")
	tt.AssertSpanAttribute(t, "analysis.vocal", "modality", "voice")
	tt.AssertSpanAttribute(t, "analysis.vocal", "words", int64(42))
	assert.Nil(t, tt.FindSpan("missing"))

	counter, err := tt.Meter("coachd.test").Int64Counter("sessions")
	require.NoError(t, err)
	counter.Add(ctx, 2)
	counter.Add(ctx, 3, metric.WithAttributes(attribute.String("result", "done")))

	total, found := tt.Int64Sum(ctx, "sessions")
	assert.True(t, found)
	assert.Equal(t, int64(5), total)

	_, found = tt.Int64Sum(ctx, "nope")
	assert.False(t, found)
}
