package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix scopes coachd environment overrides.
	EnvPrefix = "COACHD_"
)

// defaultYAML is loaded first so that every key has a value before the file
// and environment layers are applied.
const defaultYAML = `
server:
  host: localhost
  port: 9090
  shutdown_timeout: 10s
logging:
  level: info
  format: console
  otel: false
telemetry:
  enabled: false
  endpoint: localhost:4317
  protocol: grpc
  service_name: coachd
  insecure: true
  sample_rate: 1.0
extractors:
  vision_url: http://localhost:8001
  speech_url: http://localhost:8002
  frames_sampled: 20
  timeout: 60s
  max_retries: 2
  requests_per_sec: 5
  burst: 5
analysis:
  compaction_threshold_tokens: 2000
  compaction_ratio: 2.0
coaching:
  max_feedback: 5
  max_recommendations: 5
  thresholds:
    wpm: {min: 120, max: 160}
    max_fillers: 3
    eye_contact: 0.6
    energy: 0.02
    sentence_length: {min: 8, max: 25}
    confidence: 0.6
    grammar: 0.7
    joy: 0.4
    pitch_hz: {min: 85, max: 255}
    smile_ratio: 0.3
    vocab_diversity: 0.4
search:
  collection: interview_exercises
  min_score: 0.0
embeddings:
  provider: hash
  base_url: http://localhost:8080/v1
  model: BAAI/bge-small-en-v1.5
  dimension: 256
memory:
  backend: badger
  delta_modalities: [voice]
  badger:
    path: ""
    in_memory: false
evaluation:
  provider: fallback
  base_url: https://generativelanguage.googleapis.com/v1beta/openai/
  model: gemini-2.0-flash
  criteria: [relevance_score, actionability]
  ground_truth: actionable feedback with specific metrics
  timeout: 30s
  max_retries: 2
  requests_per_sec: 1
`

// Load loads configuration from defaults, an optional YAML file and the
// environment.
//
// Precedence (highest to lowest):
//  1. COACHD_* environment variables (COACHD_SERVER_PORT -> server.port)
//  2. YAML config file at configPath, when non-empty
//  3. Built-in defaults
//
// Nested keys below the section use a double underscore:
// COACHD_MEMORY_BADGER__PATH -> memory.badger.path.
//
// The credential is taken from GEMINI_API_KEY when the layers above leave
// credentials.gemini_api_key empty.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !cfg.Credentials.GeminiAPIKey.IsSet() {
		cfg.Credentials.GeminiAPIKey = Secret(os.Getenv(CredentialEnvVar))
	}
	applyHistoryPath(&cfg.Memory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// DefaultHistoryPath is the badger directory used when memory.badger.path is
// unset: $XDG_DATA_HOME/coachd/history, else ~/.local/share/coachd/history.
// It returns "" when neither can be resolved.
func DefaultHistoryPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "coachd", "history")
}

// applyHistoryPath points an unset badger path at DefaultHistoryPath so that
// progress survives across CLI runs. Without a resolvable home directory it
// falls back to the in-process backend.
func applyHistoryPath(m *MemoryConfig) {
	if m.Backend != "badger" || m.Badger.Path != "" || m.Badger.InMemory {
		return
	}
	if m.Badger.Path = DefaultHistoryPath(); m.Badger.Path == "" {
		m.Backend = "memory"
	}
}

// envKey maps COACHD_SECTION_FIELD_NAME to section.field_name.
// Split happens on the first underscore only; "__" marks deeper nesting.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + strings.ReplaceAll(parts[1], "__", ".")
}

// readConfigFile opens the file once and validates it through the same
// descriptor to avoid a stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties rejects oversized or group/world-writable files.
// The file may hold the model credential.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("config path is a directory")
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group/world writable)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
