// Package config provides configuration loading for coachd.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then COACHD_* environment variables. The model credential is read from
// GEMINI_API_KEY when not set explicitly.
package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrMissingCredential is returned when the model-access credential is absent.
var ErrMissingCredential = errors.New("missing model credential")

// CredentialEnvVar is the environment variable holding the model-access key.
const CredentialEnvVar = "GEMINI_API_KEY"

// Config holds the complete coachd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Extractors  ExtractorsConfig  `koanf:"extractors"`
	Analysis    AnalysisConfig    `koanf:"analysis"`
	Coaching    CoachingConfig    `koanf:"coaching"`
	Search      SearchConfig      `koanf:"search"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Memory      MemoryConfig      `koanf:"memory"`
	Evaluation  EvaluationConfig  `koanf:"evaluation"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	ServiceName string  `koanf:"service_name"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CredentialsConfig holds secrets for external model access.
type CredentialsConfig struct {
	GeminiAPIKey Secret `koanf:"gemini_api_key"`
}

// ExtractorsConfig points at the model services backing each modality.
type ExtractorsConfig struct {
	VisionURL      string   `koanf:"vision_url"`
	SpeechURL      string   `koanf:"speech_url"`
	FramesSampled  int      `koanf:"frames_sampled"`
	Timeout        Duration `koanf:"timeout"`
	MaxRetries     int      `koanf:"max_retries"`
	RequestsPerSec float64  `koanf:"requests_per_sec"`
	Burst          int      `koanf:"burst"`
}

// AnalysisConfig tunes the analysis pipeline.
type AnalysisConfig struct {
	CompactionThresholdTokens int     `koanf:"compaction_threshold_tokens"`
	CompactionRatio           float64 `koanf:"compaction_ratio"`
}

// Band is an inclusive target range.
type Band struct {
	Min float64 `koanf:"min"`
	Max float64 `koanf:"max"`
}

// ThresholdsConfig defines the target band for each coached metric.
type ThresholdsConfig struct {
	WPM            Band    `koanf:"wpm"`
	MaxFillers     int     `koanf:"max_fillers"`
	EyeContact     float64 `koanf:"eye_contact"`
	Energy         float64 `koanf:"energy"`
	SentenceLength Band    `koanf:"sentence_length"`
	Confidence     float64 `koanf:"confidence"`
	Grammar        float64 `koanf:"grammar"`
	Joy            float64 `koanf:"joy"`
	PitchHz        Band    `koanf:"pitch_hz"`
	SmileRatio     float64 `koanf:"smile_ratio"`
	VocabDiversity float64 `koanf:"vocab_diversity"`
}

// CoachingConfig tunes feedback and recommendation output.
type CoachingConfig struct {
	MaxFeedback        int              `koanf:"max_feedback"`
	MaxRecommendations int              `koanf:"max_recommendations"`
	Thresholds         ThresholdsConfig `koanf:"thresholds"`
}

// SearchConfig configures the exercise catalog search.
type SearchConfig struct {
	Collection string  `koanf:"collection"`
	MinScore   float32 `koanf:"min_score"`
}

// EmbeddingsConfig selects the embedding provider used by search.
type EmbeddingsConfig struct {
	Provider  string `koanf:"provider"`
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	Dimension int    `koanf:"dimension"`
}

// MemoryConfig selects the progress history backend.
type MemoryConfig struct {
	Backend         string       `koanf:"backend"`
	DeltaModalities []string     `koanf:"delta_modalities"`
	Badger          BadgerConfig `koanf:"badger"`
}

// BadgerConfig holds on-disk history settings.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// EvaluationConfig selects and tunes the quality evaluator.
type EvaluationConfig struct {
	Provider       string   `koanf:"provider"`
	BaseURL        string   `koanf:"base_url"`
	Model          string   `koanf:"model"`
	Criteria       []string `koanf:"criteria"`
	GroundTruth    string   `koanf:"ground_truth"`
	Timeout        Duration `koanf:"timeout"`
	MaxRetries     int      `koanf:"max_retries"`
	RequestsPerSec float64  `koanf:"requests_per_sec"`
}

// Validate checks the configuration for errors.
//
// The credential is not checked here; commands that need it call
// RequireCredential so that offline subcommands keep working without a key.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	for name, raw := range map[string]string{
		"extractors.vision_url": c.Extractors.VisionURL,
		"extractors.speech_url": c.Extractors.SpeechURL,
	} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
	}
	if c.Extractors.Timeout.Duration() <= 0 {
		return errors.New("extractors.timeout must be positive")
	}
	if c.Extractors.RequestsPerSec <= 0 {
		return errors.New("extractors.requests_per_sec must be positive")
	}
	if c.Analysis.CompactionThresholdTokens <= 0 {
		return errors.New("analysis.compaction_threshold_tokens must be positive")
	}
	if c.Analysis.CompactionRatio <= 1 {
		return fmt.Errorf("analysis.compaction_ratio must be > 1, got %v", c.Analysis.CompactionRatio)
	}
	if c.Coaching.MaxFeedback < 3 || c.Coaching.MaxFeedback > 5 {
		return fmt.Errorf("coaching.max_feedback must be within 3-5, got %d", c.Coaching.MaxFeedback)
	}
	if c.Coaching.MaxRecommendations < 3 || c.Coaching.MaxRecommendations > 5 {
		return fmt.Errorf("coaching.max_recommendations must be within 3-5, got %d", c.Coaching.MaxRecommendations)
	}
	switch c.Embeddings.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("embeddings.provider must be 'hash' or 'openai', got %q", c.Embeddings.Provider)
	}
	switch c.Memory.Backend {
	case "memory":
	case "badger":
		if c.Memory.Badger.Path == "" && !c.Memory.Badger.InMemory {
			return errors.New("memory.badger.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("memory.backend must be 'memory' or 'badger', got %q", c.Memory.Backend)
	}
	for _, m := range c.Memory.DeltaModalities {
		if m != "voice" && m != "language" && m != "vision" {
			return fmt.Errorf("memory.delta_modalities: unknown modality %q", m)
		}
	}
	switch c.Evaluation.Provider {
	case "rubric", "llm", "fallback":
	default:
		return fmt.Errorf("evaluation.provider must be 'rubric', 'llm' or 'fallback', got %q", c.Evaluation.Provider)
	}
	return nil
}

// RequireCredential returns ErrMissingCredential with setup guidance when the
// model-access key is not configured.
func (c *Config) RequireCredential() error {
	if c.Credentials.GeminiAPIKey.IsSet() {
		return nil
	}
	return fmt.Errorf("%w: %s is not set\n"+
		"  get a key at https://aistudio.google.com/app/apikey\n"+
		"  then run: export %s=your-key (or add it to a .env file)",
		ErrMissingCredential, CredentialEnvVar, CredentialEnvVar)
}
