package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

func newTestAnalyzer(t *testing.T) *TextAnalyzer {
	t.Helper()
	fc, err := NewFillerCounter(nil)
	require.NoError(t, err)
	a, err := NewTextAnalyzer(fc)
	require.NoError(t, err)
	return a
}

func TestFillerCounter_Count(t *testing.T) {
	fc, err := NewFillerCounter(nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "scenario transcript", text: "I am, um, very confident and, uh, prepared for this role", want: 2},
		{name: "adjacent fillers", text: "um uh um", want: 3},
		{name: "multi word phrases", text: "You know, it was sort of hard, kind of.", want: 3},
		{name: "case insensitive", text: "Basically, ACTUALLY, Like", want: 3},
		{name: "substrings ignored", text: "umbrella likely humming", want: 0},
		{name: "punctuation boundaries", text: "like...like!like?", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fc.Count(tt.text))
		})
	}
}

func TestFillerCounter_CustomList(t *testing.T) {
	fc, err := NewFillerCounter([]string{"erm"})
	require.NoError(t, err)
	assert.Equal(t, 1, fc.Count("erm, um, I think"))

	_, err = NewFillerCounter([]string{"...", " "})
	assert.Error(t, err)
}

func TestTextAnalyzer_ScenarioTranscript(t *testing.T) {
	a := newTestAnalyzer(t)

	m, err := a.ExtractLinguistic(context.Background(), "I am, um, very confident and, uh, prepared for this role")
	require.NoError(t, err)

	assert.False(t, m.Failed())
	assert.Equal(t, 2, m.FillerCount)
	assert.Equal(t, 1, m.SentenceCount)
	assert.Equal(t, 1.0, m.GrammarScore)
	assert.Equal(t, 11.0, m.AvgSentenceLength)
	assert.GreaterOrEqual(t, m.Confidence, 0.0)
	assert.LessOrEqual(t, m.Confidence, 1.0)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, 1.0, m.VocabDiversity)
}

func TestTextAnalyzer_Metrics(t *testing.T) {
	a := newTestAnalyzer(t)
	text := "I think maybe we could try it. I led the team to deliver the project on time. Yes!"

	m, err := a.ExtractLinguistic(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, 3, m.SentenceCount)
	// 7, 10 and 1 words; two sentences exceed five words.
	assert.InDelta(t, 2.0/3.0, m.GrammarScore, 1e-9)
	assert.InDelta(t, 6.0, m.AvgSentenceLength, 1e-9)
	// one assertive cue ("led") against two hedges ("i think", "maybe")
	assert.InDelta(t, 0.5+0.5*(1.0-2.0)/3.0, m.Confidence, 1e-9)
	assert.Equal(t, analysis.StatusOK, m.Status)
}

func TestTextAnalyzer_EmptyTranscript(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, in := range []string{"", "   \n\t"} {
		_, err := a.ExtractLinguistic(context.Background(), in)
		assert.ErrorIs(t, err, analysis.ErrEmptyTranscript)
	}
}

func TestTextAnalyzer_Language(t *testing.T) {
	a := newTestAnalyzer(t)
	m, err := a.ExtractLinguistic(context.Background(),
		"In my previous position I was responsible for coordinating the release of several products and I worked closely with the design and engineering teams every single week.")
	require.NoError(t, err)
	assert.Equal(t, "eng", m.Language)
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 0.5, confidenceScore(0, 0))
	assert.Equal(t, 1.0, confidenceScore(3, 0))
	assert.Equal(t, 0.0, confidenceScore(0, 4))
	assert.Equal(t, 0.5, confidenceScore(2, 2))
}

func TestVocabDiversity(t *testing.T) {
	assert.Equal(t, 0.0, vocabDiversity("123 456"))
	assert.Equal(t, 0.5, vocabDiversity("the the cat cat"))
}

func TestSplitSentences(t *testing.T) {
	assert.Equal(t, []string{"One", "Two words", "Three"}, splitSentences("One. Two words!! Three?"))
	assert.Equal(t, []string{"no punctuation here"}, splitSentences("no punctuation here"))
}
