package extractors

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

// wellFormedMinWords is the word count above which a sentence counts as
// well formed for the grammar proxy.
const wellFormedMinWords = 5

// Confidence cue lexicons. Matching is whole-word and case-insensitive.
var (
	AssertiveCues = []string{
		"i am", "confident", "certain", "definitely", "absolutely",
		"led", "built", "delivered", "achieved", "improved",
		"successfully", "i will", "prepared", "proven", "i know", "strong",
	}
	HedgeCues = []string{
		"maybe", "perhaps", "i think", "i guess", "probably", "might", "possibly",
		"hopefully", "not sure", "i feel like", "somewhat", "sort of", "kind of",
		"i suppose", "i don't know",
	}
)

// TextAnalyzer computes linguistic metrics locally from a transcript.
type TextAnalyzer struct {
	fillers   *FillerCounter
	assertive *phraseMatcher
	hedges    *phraseMatcher
}

// NewTextAnalyzer builds an analyzer sharing the given filler counter.
func NewTextAnalyzer(fillers *FillerCounter) (*TextAnalyzer, error) {
	if fillers == nil {
		return nil, fmt.Errorf("filler counter is required")
	}
	assertive, err := newPhraseMatcher(AssertiveCues)
	if err != nil {
		return nil, fmt.Errorf("assertive lexicon: %w", err)
	}
	hedges, err := newPhraseMatcher(HedgeCues)
	if err != nil {
		return nil, fmt.Errorf("hedge lexicon: %w", err)
	}
	return &TextAnalyzer{fillers: fillers, assertive: assertive, hedges: hedges}, nil
}

// ExtractLinguistic scores the transcript. Empty or whitespace-only input
// returns analysis.ErrEmptyTranscript.
func (a *TextAnalyzer) ExtractLinguistic(ctx context.Context, transcript string) (analysis.LinguisticMetrics, error) {
	if err := ctx.Err(); err != nil {
		return analysis.LinguisticMetrics{}, err
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return analysis.LinguisticMetrics{}, analysis.ErrEmptyTranscript
	}

	sentences := splitSentences(transcript)
	wellFormed := 0
	totalWords := 0
	for _, s := range sentences {
		n := len(strings.Fields(s))
		totalWords += n
		if n > wellFormedMinWords {
			wellFormed++
		}
	}

	var avgLen float64
	if len(sentences) > 0 {
		avgLen = float64(totalWords) / float64(len(sentences))
	}

	words := tokenize(transcript)
	m := analysis.LinguisticMetrics{
		GrammarScore:      float64(wellFormed) / float64(max(1, len(sentences))),
		Confidence:        confidenceScore(a.assertive.count(words), a.hedges.count(words)),
		FillerCount:       a.fillers.matcher.count(words),
		SentenceCount:     len(sentences),
		AvgSentenceLength: avgLen,
		VocabDiversity:    vocabDiversity(transcript),
		Language:          detectLanguage(transcript),
	}
	return m.Normalized(), nil
}

// splitSentences splits on terminal punctuation and drops empty fragments.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// confidenceScore maps cue counts to [0,1]: 0.5 with no cues, rising with
// assertive language and falling with hedging.
func confidenceScore(assertive, hedges int) float64 {
	total := assertive + hedges
	if total == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(assertive-hedges)/float64(total)
}

// vocabDiversity is unique alphabetic words over total alphabetic words.
func vocabDiversity(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// detectLanguage returns the ISO 639-3 code, or "" when undetermined.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if info.Lang < 0 {
		return ""
	}
	return info.Lang.Iso6393()
}
