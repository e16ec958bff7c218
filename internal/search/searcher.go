package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/embeddings"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/coachd/internal/search")

var (
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyCatalog is returned when indexing no exercises.
	ErrEmptyCatalog = errors.New("exercise catalog is empty")
)

// DefaultCollection is the chromem collection holding the catalog.
const DefaultCollection = "interview_exercises"

// ExerciseItem is a recommended practice exercise.
type ExerciseItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceLink  string `json:"source_link"`
}

// Searcher finds exercises relevant to a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]ExerciseItem, error)
}

// Config holds catalog search settings.
type Config struct {
	// Collection is the chromem collection name.
	Collection string
	// MinScore drops results below this cosine similarity.
	MinScore float32
}

// ConfigFromSettings maps the search config section.
func ConfigFromSettings(s config.SearchConfig) Config {
	return Config{Collection: s.Collection, MinScore: s.MinScore}
}

// CatalogSearcher implements Searcher over an in-memory chromem collection.
type CatalogSearcher struct {
	collection *chromem.Collection
	embedder   embeddings.Embedder
	config     Config
	logger     *zap.Logger
}

// NewCatalogSearcher embeds the exercises and indexes them.
func NewCatalogSearcher(ctx context.Context, cfg Config, embedder embeddings.Embedder, exercises []Exercise, logger *zap.Logger) (*CatalogSearcher, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if len(exercises) == 0 {
		return nil, ErrEmptyCatalog
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	db := chromem.NewDB()
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", cfg.Collection, err)
	}

	texts := make([]string, len(exercises))
	for i, e := range exercises {
		texts[i] = e.document()
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding catalog: %w", err)
	}
	if len(vectors) != len(exercises) {
		return nil, fmt.Errorf("embedding catalog: got %d vectors for %d exercises", len(vectors), len(exercises))
	}

	docs := make([]chromem.Document, len(exercises))
	for i, e := range exercises {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("exercise_%d", i)
		}
		docs[i] = chromem.Document{
			ID:      id,
			Content: texts[i],
			Metadata: map[string]string{
				"title":       e.Title,
				"description": e.Description,
				"source_link": e.SourceLink,
				"topic":       e.Topic,
			},
			Embedding: vectors[i],
		}
	}

	// Embeddings are precomputed, so a single worker suffices.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("indexing catalog: %w", err)
	}

	logger.Info("exercise catalog indexed",
		zap.String("collection", cfg.Collection),
		zap.Int("exercises", len(docs)),
	)

	return &CatalogSearcher{
		collection: collection,
		embedder:   embedder,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Search returns up to limit exercises ordered by similarity.
func (s *CatalogSearcher) Search(ctx context.Context, query string, limit int) ([]ExerciseItem, error) {
	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("limit", limit),
	)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	// chromem requires nResults <= document count.
	k := min(limit, s.collection.Count())
	if k == 0 {
		return []ExerciseItem{}, nil
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	items := make([]ExerciseItem, 0, len(results))
	for _, r := range results {
		if r.Similarity < s.config.MinScore {
			continue
		}
		items = append(items, ExerciseItem{
			Title:       r.Metadata["title"],
			Description: r.Metadata["description"],
			SourceLink:  r.Metadata["source_link"],
		})
	}

	span.SetAttributes(attribute.Int("results_count", len(items)))
	s.logger.Debug("searched exercise catalog",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("results", len(items)),
	)
	return items, nil
}
