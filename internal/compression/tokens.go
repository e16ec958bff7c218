package compression

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates a BPE token count as the larger of
// characters/4 and words*4/3, which tracks English transcripts closely enough
// for a threshold decision.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byChars := (utf8.RuneCountInString(text) + 3) / 4
	byWords := (len(strings.Fields(text))*4 + 2) / 3
	if byWords > byChars {
		return byWords
	}
	return byChars
}
