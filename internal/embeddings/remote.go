package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	ErrEmptyInput      = errors.New("empty or nil input texts")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// RemoteConfig points at an OpenAI-compatible embeddings endpoint such as
// TEI or the Gemini compatibility API.
type RemoteConfig struct {
	BaseURL   string
	Model     string
	APIKey    string
	Dimension int
}

// Validate requires BaseURL and Model.
func (c RemoteConfig) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	case c.Model == "":
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// RemoteEmbedder embeds through langchaingo's OpenAI client.
type RemoteEmbedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

// NewRemoteEmbedder validates cfg and builds the client. No request is made.
func NewRemoteEmbedder(cfg RemoteConfig) (*RemoteEmbedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token := cfg.APIKey
	if token == "" {
		// the client refuses an empty token; self-hosted servers ignore it
		token = "unused"
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &RemoteEmbedder{impl: impl, dimension: cfg.Dimension}, nil
}

// EmbedDocuments returns one vector per text.
func (r *RemoteEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	vectors, err := r.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery embeds one search query.
func (r *RemoteEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	vector, err := r.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// Dimension returns the configured dimension; 0 means unknown.
func (r *RemoteEmbedder) Dimension() int { return r.dimension }

// Close is a no-op.
func (r *RemoteEmbedder) Close() error { return nil }
