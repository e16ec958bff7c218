package compression

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
)

// minSentenceLen keeps abbreviations like "Dr." from ending a sentence.
const minSentenceLen = 10

// Score weights. They sum to 1.
const (
	positionWeight  = 0.3
	lengthWeight    = 0.4
	frequencyWeight = 0.3
)

// ExtractiveCompactor shortens long transcripts by keeping their highest
// scoring sentences in original order.
type ExtractiveCompactor struct {
	cfg Config
}

// NewExtractiveCompactor fills zero or out-of-range fields of cfg from
// DefaultConfig.
func NewExtractiveCompactor(cfg Config) *ExtractiveCompactor {
	def := DefaultConfig()
	if cfg.ThresholdTokens <= 0 {
		cfg.ThresholdTokens = def.ThresholdTokens
	}
	if cfg.TargetRatio <= 1 {
		cfg.TargetRatio = def.TargetRatio
	}
	if cfg.WindowWords <= 0 {
		cfg.WindowWords = def.WindowWords
	}
	return &ExtractiveCompactor{cfg: cfg}
}

// Compact returns transcript unchanged at or below the token threshold and an
// extractive summary above it.
func (c *ExtractiveCompactor) Compact(ctx context.Context, transcript string) (string, error) {
	res, err := c.Compress(ctx, transcript)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Compress is Compact with statistics.
func (c *ExtractiveCompactor) Compress(ctx context.Context, content string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res := &Result{
		Content:          content,
		OriginalTokens:   EstimateTokens(content),
		CompressionRatio: 1,
	}
	if res.OriginalTokens <= c.cfg.ThresholdTokens {
		res.CompactedTokens = res.OriginalTokens
		res.ProcessingTime = time.Since(start)
		return res, nil
	}

	units := splitSentences(content)
	if len(units) < 2 {
		// speech-to-text output often has no punctuation
		units = splitWindows(content, c.cfg.WindowWords)
	}
	budget := int(float64(len(content)) / c.cfg.TargetRatio)
	kept := selectSentences(units, scoreSentences(units), budget)

	res.Content = strings.Join(kept, " ")
	res.Compacted = true
	res.CompactedTokens = EstimateTokens(res.Content)
	res.SentencesKept = len(kept)
	res.SentencesTotal = len(units)
	if len(res.Content) > 0 {
		res.CompressionRatio = float64(len(content)) / float64(len(res.Content))
	}
	res.ProcessingTime = time.Since(start)
	return res, nil
}

func splitSentences(text string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, r := range text {
		cur.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if s := strings.TrimSpace(cur.String()); len(s) > minSentenceLen {
			out = append(out, s)
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func splitWindows(text string, size int) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words)/size+1)
	for chunk := range slices.Chunk(words, size) {
		out = append(out, strings.Join(chunk, " "))
	}
	return out
}

// scoreSentences favors early sentences, sentences near 20 words, and
// sentences built from words repeated across the transcript.
func scoreSentences(sentences []string) []float64 {
	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range strings.Fields(s) {
			if w = normalizeWord(w); len(w) > 2 {
				freq[w]++
			}
		}
	}

	scores := make([]float64, len(sentences))
	for i, s := range sentences {
		words := strings.Fields(s)
		scores[i] = positionWeight/float64(i+1) +
			lengthWeight*lengthScore(len(words)) +
			frequencyWeight*frequencyScore(words, freq)
	}
	return scores
}

func lengthScore(n int) float64 {
	if n <= 20 {
		return float64(n) / 20
	}
	return math.Max(1-float64(n-20)/50, 0.1)
}

func frequencyScore(words []string, freq map[string]int) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		if f := freq[normalizeWord(w)]; f > 1 {
			sum += 1 / float64(f)
		}
	}
	return sum / float64(len(words))
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))
}

// selectSentences takes sentences best score first while they fit in budget
// bytes and returns them in transcript order. The top sentence is kept even
// when nothing fits.
func selectSentences(sentences []string, scores []float64, budget int) []string {
	if len(sentences) == 0 {
		return nil
	}
	ranked := make([]int, len(sentences))
	for i := range ranked {
		ranked[i] = i
	}
	slices.SortStableFunc(ranked, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return 0
	})

	var kept []int
	used := 0
	for _, i := range ranked {
		if used+len(sentences[i]) > budget {
			continue
		}
		kept = append(kept, i)
		used += len(sentences[i]) + 1
	}
	if len(kept) == 0 {
		kept = ranked[:1]
	}

	slices.Sort(kept)
	out := make([]string, len(kept))
	for j, i := range kept {
		out[j] = sentences[i]
	}
	return out
}
