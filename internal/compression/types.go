package compression

import (
	"fmt"
	"time"
)

// Config controls when and how aggressively transcripts are compacted.
type Config struct {
	// ThresholdTokens is the estimated token count above which compaction runs.
	ThresholdTokens int

	// TargetRatio is original/compacted size; 2.0 keeps roughly half.
	TargetRatio float64

	// WindowWords is the pseudo-sentence size used for unpunctuated text.
	WindowWords int
}

// DefaultConfig returns the thresholds used when none are configured.
func DefaultConfig() Config {
	return Config{
		ThresholdTokens: 2000,
		TargetRatio:     2.0,
		WindowWords:     25,
	}
}

// Validate checks config for errors.
func (c Config) Validate() error {
	if c.ThresholdTokens <= 0 {
		return fmt.Errorf("threshold tokens must be positive, got %d", c.ThresholdTokens)
	}
	if c.TargetRatio <= 1.0 {
		return fmt.Errorf("target ratio must be > 1.0, got %f", c.TargetRatio)
	}
	if c.WindowWords <= 0 {
		return fmt.Errorf("window words must be positive, got %d", c.WindowWords)
	}
	return nil
}

// Result describes one compaction.
type Result struct {
	Content          string
	Compacted        bool
	OriginalTokens   int
	CompactedTokens  int
	SentencesKept    int
	SentencesTotal   int
	CompressionRatio float64
	ProcessingTime   time.Duration
}
