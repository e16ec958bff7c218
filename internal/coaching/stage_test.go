package coaching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/search"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

func newTestStage(t *testing.T, s search.Searcher, opts ...StageOption) *Stage {
	t.Helper()
	agg, err := NewFeedbackAggregator(DefaultThresholds(), 5)
	require.NoError(t, err)
	rec, err := NewRecommender(s, DefaultThresholds(), 5, nil)
	require.NoError(t, err)
	stage, err := NewStage(agg, rec, opts...)
	require.NoError(t, err)
	return stage
}

func TestStage_Run(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, 5).Return(ex("lens", "metronome", "pause"), nil)

	tel := telemetry.NewTestTelemetry()
	stage := newTestStage(t, s, WithStageTracer(tel.Tracer("test")))

	rec, err := stage.Run(context.Background(), mixedMetrics())
	require.NoError(t, err)

	assert.Len(t, rec.Feedback, 5)
	assert.Equal(t, []string{"lens", "metronome", "pause"}, titles(rec.Recommendations))
	assert.Equal(t, []string{"eye contact", "speaking pace", "filler words"}, rec.Priorities)
	assert.Len(t, rec.Strengths, 3)

	tel.AssertSpanExists(t, "coaching.stage")
	tel.AssertSpanAttribute(t, "coaching.stage", "coaching.recommendations", int64(3))
}

func TestStage_SearchFailureKeepsFeedback(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, 5).Return(nil, errors.New("search backend down"))

	logger := logging.NewTestLogger()
	stage := newTestStage(t, s, WithStageLogger(logger.Logger))

	rec, err := stage.Run(context.Background(), mixedMetrics())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Feedback)
	assert.NotNil(t, rec.Recommendations)
	assert.Empty(t, rec.Recommendations)
	logger.AssertLogged(t, zapcore.WarnLevel, "recommendation search failed")
}

func TestStage_EmptySearchResult(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, 5).Return(ex(), nil)

	logger := logging.NewTestLogger()
	stage := newTestStage(t, s, WithStageLogger(logger.Logger))

	rec, err := stage.Run(context.Background(), strongMetrics())
	require.NoError(t, err)
	assert.Empty(t, rec.Recommendations)
	logger.AssertLogged(t, zapcore.WarnLevel, "returned no exercises")
}

func TestStage_NoFeedback(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(ex("general"), nil).Maybe()

	m := analysis.CombinedMetrics{
		Vision:   analysis.VisualError(errors.New("no face")),
		Voice:    analysis.VocalError(errors.New("no audio")),
		Language: analysis.LinguisticError(analysis.ErrEmptyTranscript),
	}
	_, err := newTestStage(t, s).Run(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoFeedback)
}

type panickingRecommendations struct{}

func (panickingRecommendations) Recommend(context.Context, analysis.CombinedMetrics) ([]search.ExerciseItem, error) {
	panic("nil index")
}

type panickingFeedback struct{}

func (panickingFeedback) Build(context.Context, analysis.CombinedMetrics) (Feedback, error) {
	panic("bad thresholds")
}

func TestStage_PanicIsolation(t *testing.T) {
	agg, err := NewFeedbackAggregator(DefaultThresholds(), 5)
	require.NoError(t, err)

	stage, err := NewStage(agg, panickingRecommendations{})
	require.NoError(t, err)
	rec, err := stage.Run(context.Background(), mixedMetrics())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Feedback)
	assert.Empty(t, rec.Recommendations)

	stage, err = NewStage(panickingFeedback{}, panickingRecommendations{})
	require.NoError(t, err)
	_, err = stage.Run(context.Background(), mixedMetrics())
	assert.ErrorIs(t, err, ErrNoFeedback)
}

// rendezvousFeedback only succeeds if the recommendation branch starts while
// it is still running.
type rendezvousFeedback struct {
	started <-chan struct{}
	inner   FeedbackBuilder
}

func (r rendezvousFeedback) Build(ctx context.Context, m analysis.CombinedMetrics) (Feedback, error) {
	select {
	case <-r.started:
		return r.inner.Build(ctx, m)
	case <-time.After(2 * time.Second):
		return Feedback{}, errors.New("branches did not overlap")
	}
}

type signallingRecommendations struct {
	started chan<- struct{}
}

func (s signallingRecommendations) Recommend(context.Context, analysis.CombinedMetrics) ([]search.ExerciseItem, error) {
	close(s.started)
	return ex("a", "b", "c"), nil
}

func TestStage_BranchesRunConcurrently(t *testing.T) {
	agg, err := NewFeedbackAggregator(DefaultThresholds(), 5)
	require.NoError(t, err)

	started := make(chan struct{})
	stage, err := NewStage(
		rendezvousFeedback{started: started, inner: agg},
		signallingRecommendations{started: started},
	)
	require.NoError(t, err)

	rec, err := stage.Run(context.Background(), mixedMetrics())
	require.NoError(t, err)
	assert.Len(t, rec.Recommendations, 3)
}

func TestStage_Cancelled(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(ex(), nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestStage(t, s).Run(ctx, mixedMetrics())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNoFeedback)
}

func TestNewStage_Requires(t *testing.T) {
	_, err := NewStage(nil, panickingRecommendations{})
	assert.Error(t, err)
}
