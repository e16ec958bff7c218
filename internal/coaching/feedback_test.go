package coaching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/config"
)

func newAggregator(t *testing.T) *FeedbackAggregator {
	t.Helper()
	a, err := NewFeedbackAggregator(DefaultThresholds(), 5)
	require.NoError(t, err)
	return a
}

func metricsOf(items []FeedbackItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Metric
	}
	return out
}

func TestFeedbackAggregator_TierOrdering(t *testing.T) {
	fb, err := newAggregator(t).Build(context.Background(), mixedMetrics())
	require.NoError(t, err)

	assert.Equal(t, []string{
		MetricEyeContact, MetricWPM, MetricFillerCount,
		MetricEnergy, MetricGrammar,
	}, metricsOf(fb.Items))

	for i := 1; i < len(fb.Items); i++ {
		assert.LessOrEqual(t, fb.Items[i-1].Tier.rank(), fb.Items[i].Tier.rank())
	}

	assert.Equal(t, KindImprovement, fb.Items[0].Kind)
	assert.Equal(t, KindStrength, fb.Items[3].Kind)
	assert.Equal(t, []string{"eye contact", "speaking pace", "filler words"}, fb.Priorities)
	require.Len(t, fb.Strengths, 3)
	assert.Contains(t, fb.Strengths[0], "0.050")
}

func TestFeedbackAggregator_MessagesEmbedValues(t *testing.T) {
	fb, err := newAggregator(t).Build(context.Background(), mixedMetrics())
	require.NoError(t, err)

	for _, it := range fb.Items {
		assert.Contains(t, it.Message, FormatValue(it.Metric, it.Value), it.Metric)
	}
	assert.Equal(t, "Eye contact in 45% of frames; aim for at least 60% by looking at the camera lens.", fb.Items[0].Message)
	assert.Equal(t, "Speaking pace of 95 WPM is slow; aim for 120-160 WPM.", fb.Items[1].Message)
	assert.Equal(t, "Used 7 filler words; aim for 3 or fewer by pausing instead.", fb.Items[2].Message)
}

func TestFeedbackAggregator_PartialModalities(t *testing.T) {
	m := mixedMetrics()
	m.Voice = analysis.VocalError(errors.New("speech service down"))
	m.Language = analysis.LinguisticError(analysis.ErrEmptyTranscript)

	fb, err := newAggregator(t).Build(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{MetricEyeContact, MetricJoy, MetricSmileRatio}, metricsOf(fb.Items))
}

func TestFeedbackAggregator_AllFailed(t *testing.T) {
	m := analysis.CombinedMetrics{
		Vision:   analysis.VisualError(errors.New("no face")),
		Voice:    analysis.VocalError(errors.New("no audio")),
		Language: analysis.LinguisticError(analysis.ErrEmptyTranscript),
	}
	_, err := newAggregator(t).Build(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoFeedback)
}

func TestFeedbackAggregator_NoWeaknesses(t *testing.T) {
	fb, err := newAggregator(t).Build(context.Background(), strongMetrics())
	require.NoError(t, err)
	assert.Len(t, fb.Items, 5)
	assert.Empty(t, fb.Priorities)
	assert.Len(t, fb.Strengths, 3)
	for _, it := range fb.Items {
		assert.Equal(t, KindStrength, it.Kind)
	}
}

func TestFeedbackAggregator_FastSpeech(t *testing.T) {
	m := strongMetrics()
	m.Voice.WPM = 190
	fb, err := newAggregator(t).Build(context.Background(), m)
	require.NoError(t, err)

	var wpm FeedbackItem
	for _, it := range fb.Items {
		if it.Metric == MetricWPM {
			wpm = it
		}
	}
	assert.Equal(t, KindImprovement, wpm.Kind)
	assert.True(t, strings.Contains(wpm.Message, "190 WPM is fast"))
}

func TestNewFeedbackAggregator_ClampsItems(t *testing.T) {
	a, err := NewFeedbackAggregator(DefaultThresholds(), 9)
	require.NoError(t, err)
	assert.Equal(t, MaxFeedbackItems, a.maxItems)

	a, err = NewFeedbackAggregator(DefaultThresholds(), 1)
	require.NoError(t, err)
	assert.Equal(t, MinFeedbackItems, a.maxItems)

	bad := DefaultThresholds()
	bad.WPM = Band{Min: 160, Max: 120}
	_, err = NewFeedbackAggregator(bad, 5)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		metric string
		value  float64
		want   string
	}{
		{MetricEyeContact, 0.756, "76%"},
		{MetricFillerCount, 4, "4"},
		{MetricWPM, 132.4, "132"},
		{MetricEnergy, 0.0213, "0.021"},
		{MetricAvgSentenceLength, 12.345, "12.3"},
		{MetricConfidence, 0.5, "0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.metric, tt.value))
		})
	}
}

func TestThresholdsFromSettings(t *testing.T) {
	th := ThresholdsFromSettings(config.ThresholdsConfig{
		WPM:        config.Band{Min: 110, Max: 150},
		MaxFillers: 2,
		EyeContact: 0.7,
	})
	assert.Equal(t, Band{Min: 110, Max: 150}, th.WPM)
	assert.Equal(t, 2, th.MaxFillers)
	assert.Equal(t, 0.7, th.EyeContact)
	assert.NoError(t, DefaultThresholds().Validate())
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierHigh, TierOf(MetricEyeContact))
	assert.Equal(t, TierMedium, TierOf(MetricEnergy))
	assert.Equal(t, TierContext, TierOf(MetricPitch))
	assert.Equal(t, TierContext, TierOf("unknown"))
	assert.Equal(t, "unknown", Label("unknown"))
}
