package embeddings

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
)

// Embedder generates vectors for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is an Embedder with a known dimension.
type Provider interface {
	Embedder
	// Dimension is the vector size, or 0 when the remote model is unknown.
	Dimension() int
	Close() error
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	// Provider is "hash" (default) or "openai".
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Dimension int
}

// ProviderConfigFromSettings maps the embeddings config section.
func ProviderConfigFromSettings(s config.EmbeddingsConfig) ProviderConfig {
	return ProviderConfig{
		Provider:  s.Provider,
		Model:     s.Model,
		BaseURL:   s.BaseURL,
		APIKey:    s.APIKey.Value(),
		Dimension: s.Dimension,
	}
}

// NewProvider builds the configured provider, instrumented on the global
// meter provider.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		p     Provider
		model string
	)
	switch cfg.Provider {
	case "hash", "":
		p, model = NewHashEmbedder(cfg.Dimension), hashModelName
	case "openai":
		remote, err := NewRemoteEmbedder(RemoteConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		p, model = remote, cfg.Model
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}

	p, err := instrument(p, model, otel.Meter(instrumentationName))
	if err != nil {
		logger.Warn("embedding metrics disabled", zap.Error(err))
	}
	logger.Debug("embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", model),
		zap.Int("dimension", p.Dimension()),
	)
	return p, nil
}
