package compression

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longAnswer(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		b.WriteString("In my last role I led the migration of our billing platform and reduced incident volume considerably. ")
		b.WriteString("The team learned to own deployments end to end. ")
	}
	return b.String()
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 3, EstimateTokens("hi there"))
	// Words dominate for short words.
	assert.Equal(t, 4, EstimateTokens("a b c"))
	assert.Greater(t, EstimateTokens(longAnswer(60)), 2000)
}

func TestCompact_UnderThresholdPassesThrough(t *testing.T) {
	c := NewExtractiveCompactor(DefaultConfig())
	text := "I am, um, very confident and, uh, prepared for this role."

	res, err := c.Compress(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, res.Compacted)
	assert.Equal(t, text, res.Content)
	assert.Equal(t, 1.0, res.CompressionRatio)
}

func TestCompact_OverThresholdShrinks(t *testing.T) {
	c := NewExtractiveCompactor(Config{ThresholdTokens: 100, TargetRatio: 2.0})
	text := longAnswer(20)

	res, err := c.Compress(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, res.Compacted)
	assert.NotEmpty(t, res.Content)
	assert.Less(t, len(res.Content), len(text))
	assert.Less(t, res.CompactedTokens, res.OriginalTokens)
	assert.Equal(t, 40, res.SentencesTotal)
	assert.Greater(t, res.CompressionRatio, 1.0)

	out, err := c.Compact(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, res.Content, out)
}

func TestCompact_UnpunctuatedUsesWindows(t *testing.T) {
	c := NewExtractiveCompactor(Config{ThresholdTokens: 50, TargetRatio: 3.0, WindowWords: 10})
	text := strings.Repeat("so basically we shipped the feature and then we measured adoption ", 20)

	res, err := c.Compress(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, res.Compacted)
	assert.Equal(t, 22, res.SentencesTotal)
	assert.Less(t, len(res.Content), len(text))
}

func TestCompact_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractiveCompactor(DefaultConfig()).Compact(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectSentences_KeepsOrderAndSkipsLong(t *testing.T) {
	sentences := []string{
		"This is a very long first sentence that has the best position score but will not fit in the budget at all.",
		"Short one.",
		"Tiny two.",
	}
	scores := []float64{0.9, 0.2, 0.5}

	selected := selectSentences(sentences, scores, 25)
	assert.Equal(t, []string{"Short one.", "Tiny two."}, selected)
}

func TestSelectSentences_NeverEmpty(t *testing.T) {
	sentences := []string{"A sentence that is longer than the budget allows."}

	selected := selectSentences(sentences, scoreSentences(sentences), 5)
	assert.Equal(t, sentences, selected)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{ThresholdTokens: 0, TargetRatio: 2, WindowWords: 1}.Validate())
	assert.Error(t, Config{ThresholdTokens: 1, TargetRatio: 1, WindowWords: 1}.Validate())
	assert.Error(t, Config{ThresholdTokens: 1, TargetRatio: 2, WindowWords: 0}.Validate())
}
