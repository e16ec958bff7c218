// Package compression shortens long interview transcripts before linguistic
// analysis.
//
// Transcripts whose estimated token count stays under the configured threshold
// pass through untouched. Longer ones are reduced by extractive summarization:
// sentences are scored on position, length and inverse word frequency, and the
// best ones are kept in their original order until the target ratio is met.
// Spoken transcripts often lack punctuation, so text with too few sentence
// boundaries is cut into fixed word windows first.
//
// The full transcript is never modified; callers keep it and hand only the
// compacted text to the next stage.
//
//	c := compression.NewExtractiveCompactor(compression.Config{
//	    ThresholdTokens: 2000,
//	    TargetRatio:     2.0,
//	})
//	text, err := c.Compact(ctx, transcript)
package compression
