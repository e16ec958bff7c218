package logging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, cfg, logger.config)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewLogger_OTELOnlyWithoutProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Console = false
	cfg.Output.OTEL = true

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "trace", Format: "console"})
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	cfg, err = FromSettings(config.LoggingConfig{})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level)

	_, err = FromSettings(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestRedactionPatternLengthLimit(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	long := strings.Repeat("a", maxPatternLen+1)
	cfg.Redaction.Patterns = append(cfg.Redaction.Patterns, long)

	_, err = NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), cfg.Redaction)
	assert.ErrorContains(t, err, "too long")

	cfg.Redaction.Patterns = []string{strings.Repeat("a", maxPatternLen)}
	_, err = NewLogger(cfg, nil)
	assert.NoError(t, err)
}

func TestLogger_LevelsAndContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithSessionID(context.Background(), "session_20250101_120000")
	ctx = WithUserID(ctx, "user1")
	ctx = WithRequestID(ctx, "req-1")

	tl.Trace(ctx, "trace message")
	tl.Debug(ctx, "debug message")
	tl.Info(ctx, "info message", zap.Int("wpm", 135))
	tl.Warn(ctx, "warn message")
	tl.Error(ctx, "error message")

	require.Len(t, tl.All(), 5)
	tl.AssertLogged(t, TraceLevel, "trace message")
	tl.AssertLogged(t, zapcore.WarnLevel, "warn message")
	tl.AssertField(t, "info message", "session.id", "session_20250101_120000")
	tl.AssertField(t, "info message", "user.id", "user1")
	tl.AssertField(t, "info message", "request.id", "req-1")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "info message")

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestContextFields_TraceCorrelation(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"trace_id", "span_id"}, keys)
}

func TestContext_EmptyIDsIgnored(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	ctx = WithUserID(ctx, "")
	assert.Empty(t, ContextFields(ctx))
}

func TestContext_RequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
	assert.Empty(t, SessionIDFromContext(ctx))
	assert.Equal(t, "req-42", ContextFields(ctx)[0].String)
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	child := tl.With(zap.String("stage", "coaching")).Named("orchestrator")
	child.Info(context.Background(), "child entry")

	entries := tl.FilterMessage("child entry").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "orchestrator", entries[0].LoggerName)
	tl.AssertField(t, "child entry", "stage", "coaching")
}

func TestRedaction_FieldsAndPatterns(t *testing.T) {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	enc, err := NewRedactingEncoder(base, NewDefaultConfig().Redaction)
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "calling evaluator", Time: time.Unix(0, 0)}, []zapcore.Field{
		zap.String("gemini_api_key", "AIzaSyA-very-secret"),
		zap.String("header", "Bearer abc.def"),
		zap.String("user", "user1"),
	})
	require.NoError(t, err)
	out := buf.String()

	assert.NotContains(t, out, "very-secret")
	assert.NotContains(t, out, "abc.def")
	assert.Contains(t, out, `"gemini_api_key":"[REDACTED]"`)
	assert.Contains(t, out, `"header":"[REDACTED:pattern]"`)
	assert.Contains(t, out, `"user":"user1"`)
}

func TestRedaction_InvalidPattern(t *testing.T) {
	_, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"("},
	})
	assert.Error(t, err)
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "credential loaded", Secret("key", config.Secret("abcdef")))

	entries := tl.FilterMessage("credential loaded").All()
	require.Len(t, entries, 1)
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range entries[0].Context {
		f.AddTo(enc)
	}
	assert.Equal(t, map[string]interface{}{"key": "[REDACTED:6]"}, enc.Fields["key"])

	f := RedactedString("token", "12345")
	assert.Equal(t, "[REDACTED:5]", f.String)
}

func TestSampledCore(t *testing.T) {
	t.Run("disabled returns core unchanged", func(t *testing.T) {
		core, _ := observer.New(zapcore.InfoLevel)
		assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
	})

	t.Run("errors never sampled", func(t *testing.T) {
		core, observed := observer.New(zapcore.InfoLevel)
		sampled := newSampledCore(core, SamplingConfig{
			Enabled: true,
			Tick:    config.Duration(time.Minute),
			Levels: map[zapcore.Level]LevelSamplingConfig{
				zapcore.InfoLevel: {Initial: 2, Thereafter: 0},
			},
		})
		logger := NewFromZap(zap.New(sampled))
		ctx := context.Background()
		for i := 0; i < 20; i++ {
			logger.Error(ctx, "extractor failed")
			logger.Info(ctx, "stage done")
		}
		assert.Len(t, observed.FilterMessage("extractor failed").All(), 20)
		assert.Len(t, observed.FilterMessage("stage done").All(), 2)
	})
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"trace": TraceLevel,
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range tests {
		got, err := LevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := LevelFromString("verbose")
	assert.Error(t, err)
}

func TestRedaction_TranscriptMasked(t *testing.T) {
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "vocal stage", Time: time.Unix(0, 0)}, []zapcore.Field{
		zap.String("Transcript", "I am, um, very confident"),
		zap.Int("word_count", 5),
	})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "confident")
	assert.Contains(t, buf.String(), `"word_count":5`)
}

func TestEncodeLevel_Trace(t *testing.T) {
	enc := newEncoder("json")
	buf, err := enc.EncodeEntry(zapcore.Entry{Level: TraceLevel, Message: "payload", Time: time.Unix(0, 0)}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"trace"`)

	buf, err = enc.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Message: "slow", Time: time.Unix(0, 0)}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSampledCore_WithKeepsBypass(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 1, Thereafter: 0},
		},
	})
	logger := NewFromZap(zap.New(sampled)).With(zap.String("stage", "coaching"))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		logger.Error(ctx, "branch failed")
	}
	entries := observed.FilterMessage("branch failed").All()
	require.Len(t, entries, 5)
	assert.Equal(t, "coaching", entries[0].ContextMap()["stage"])
}
