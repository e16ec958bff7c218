package logging

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"go.uber.org/zap/zapcore"
)

// Config is the resolved logger setup. Build it with NewDefaultConfig or
// FromSettings.
type Config struct {
	Level      zapcore.Level
	Format     string
	Output     OutputConfig
	Sampling   SamplingConfig
	Caller     CallerConfig
	Stacktrace StacktraceConfig
	// Fields are attached to every entry.
	Fields    map[string]string
	Redaction RedactionConfig
}

// OutputConfig selects sinks. Console writes to stderr so stdout stays free
// for command output.
type OutputConfig struct {
	Console bool
	OTEL    bool
}

type SamplingConfig struct {
	Enabled bool
	Tick    config.Duration
	Levels  map[zapcore.Level]LevelSamplingConfig
}

// LevelSamplingConfig keeps the first Initial entries per tick and then every
// Thereafter-th. Thereafter 0 drops the rest.
type LevelSamplingConfig struct {
	Initial    int
	Thereafter int
}

type CallerConfig struct {
	Enabled bool
	Skip    int
}

type StacktraceConfig struct {
	Level zapcore.Level
}

// RedactionConfig lists field keys to mask and regexps scrubbed from values.
type RedactionConfig struct {
	Enabled  bool
	Fields   []string
	Patterns []string
}

var (
	sensitiveKeys = []string{
		"password", "secret", "token", "api_key", "gemini_api_key",
		"authorization", "bearer", "credential", "transcript",
	}
	sensitivePatterns = []string{
		`(?i)bearer\s+\S+`,
		`(?i)api[_-]?key[=:]\s*\S+`,
		`AIza[0-9A-Za-z_\-]{35}`,
	}
)

// NewDefaultConfig logs JSON at info to stderr with sampling and redaction on.
func NewDefaultConfig() *Config {
	return &Config{
		Level:      zapcore.InfoLevel,
		Format:     "json",
		Output:     OutputConfig{Console: true},
		Sampling:   SamplingConfig{Enabled: true, Tick: config.Duration(time.Second), Levels: DefaultLevelSamplingConfig()},
		Caller:     CallerConfig{Enabled: true, Skip: 1},
		Stacktrace: StacktraceConfig{Level: zapcore.ErrorLevel},
		Fields:     map[string]string{"service": "coachd"},
		Redaction: RedactionConfig{
			Enabled:  true,
			Fields:   append([]string(nil), sensitiveKeys...),
			Patterns: append([]string(nil), sensitivePatterns...),
		},
	}
}

// FromSettings overlays the logging section on the defaults.
func FromSettings(s config.LoggingConfig) (*Config, error) {
	level, err := LevelFromString(s.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level %q: %w", s.Level, err)
	}
	cfg := NewDefaultConfig()
	cfg.Level = level
	cfg.Output.OTEL = s.OTEL
	if s.Format != "" {
		cfg.Format = s.Format
	}
	return cfg, cfg.Validate()
}

// DefaultLevelSamplingConfig samples chatty levels harder. Error and above are
// never sampled.
func DefaultLevelSamplingConfig() map[zapcore.Level]LevelSamplingConfig {
	return map[zapcore.Level]LevelSamplingConfig{
		TraceLevel:         {Initial: 1},
		zapcore.DebugLevel: {Initial: 10},
		zapcore.InfoLevel:  {Initial: 100, Thereafter: 10},
		zapcore.WarnLevel:  {Initial: 100, Thereafter: 100},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Format != "json" && c.Format != "console":
		return fmt.Errorf("logging format %q: want json or console", c.Format)
	case !c.Output.Console && !c.Output.OTEL:
		return errors.New("logging needs console or otel output")
	case c.Sampling.Enabled && c.Sampling.Tick.Duration() <= 0:
		return errors.New("sampling tick must be positive")
	case c.Caller.Enabled && c.Caller.Skip < 0:
		return fmt.Errorf("negative caller skip %d", c.Caller.Skip)
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("static field %q=%q: key and value required", k, v)
		}
	}
	if !c.Redaction.Enabled {
		return nil
	}
	for _, p := range c.Redaction.Patterns {
		if len(p) > maxPatternLen {
			return fmt.Errorf("redaction pattern longer than %d chars: %q", maxPatternLen, p)
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("redaction pattern %q: %w", p, err)
		}
	}
	return nil
}
