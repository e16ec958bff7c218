package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/embeddings"
)

func newTestSearcher(t *testing.T) *CatalogSearcher {
	t.Helper()
	s, err := NewCatalogSearcher(context.Background(), Config{},
		embeddings.NewHashEmbedder(512), DefaultCatalog(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestCatalogSearcher_TopicQueries(t *testing.T) {
	s := newTestSearcher(t)

	tests := []struct {
		query string
		want  map[string]bool
	}{
		{
			query: "interview exercises reduce filler words",
			want: map[string]bool{
				"Pause Instead of Filling":        true,
				"Filler Word Awareness Recording": true,
				"Filler Tally With a Partner":     true,
			},
		},
		{
			query: "techniques improve eye contact video interviews",
			want: map[string]bool{
				"Look at the Lens":          true,
				"Eye Contact Sentence Drill": true,
				"Camera Height Setup":       true,
			},
		},
		{
			query: "structure concise interview answers STAR method",
			want: map[string]bool{
				"STAR Method Drill":   true,
				"Sentence Trimming":   true,
				"Three-Point Outline": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			items, err := s.Search(context.Background(), tt.query, 3)
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.True(t, tt.want[items[0].Title], "unexpected top result %q", items[0].Title)
			for _, it := range items {
				assert.NotEmpty(t, it.Description)
				assert.NotEmpty(t, it.SourceLink)
			}
		})
	}
}

func TestCatalogSearcher_LimitCappedAtCatalogSize(t *testing.T) {
	catalog := DefaultCatalog()[:2]
	s, err := NewCatalogSearcher(context.Background(), Config{Collection: "small"},
		embeddings.NewHashEmbedder(64), catalog, nil)
	require.NoError(t, err)

	items, err := s.Search(context.Background(), "filler words", 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCatalogSearcher_MinScore(t *testing.T) {
	s, err := NewCatalogSearcher(context.Background(), Config{MinScore: 1.5},
		embeddings.NewHashEmbedder(64), DefaultCatalog(), nil)
	require.NoError(t, err)

	items, err := s.Search(context.Background(), "filler words", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCatalogSearcher_InvalidInput(t *testing.T) {
	s := newTestSearcher(t)

	_, err := s.Search(context.Background(), "  ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Search(context.Background(), "eye contact", 0)
	assert.Error(t, err)
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model offline")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("model offline")
}

func TestNewCatalogSearcher_Errors(t *testing.T) {
	_, err := NewCatalogSearcher(context.Background(), Config{}, nil, DefaultCatalog(), nil)
	assert.Error(t, err)

	_, err = NewCatalogSearcher(context.Background(), Config{}, embeddings.NewHashEmbedder(32), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = NewCatalogSearcher(context.Background(), Config{}, failingEmbedder{}, DefaultCatalog(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestDefaultCatalog_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range DefaultCatalog() {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
		assert.NotEmpty(t, e.Title)
	}
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.SearchConfig{Collection: "c", MinScore: 0.2})
	assert.Equal(t, "c", cfg.Collection)
	assert.Equal(t, float32(0.2), cfg.MinScore)
}
