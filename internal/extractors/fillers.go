package extractors

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// DefaultFillers are the disfluencies counted in transcripts.
var DefaultFillers = []string{
	"uh", "um", "like", "you know", "actually", "basically", "sort of", "kind of",
}

// phraseMatcher counts whole-word phrase occurrences with one Aho-Corasick
// pass.
//
// Text and patterns are rewritten to " w1  w2  w3 ": each word is padded by a
// space on both sides, so a pattern can only match at word boundaries and two
// adjacent matches never share a separator.
type phraseMatcher struct {
	mu      sync.Mutex // guards machine; search state is not documented as shareable
	machine *goahocorasick.Machine
}

func newPhraseMatcher(phrases []string) (*phraseMatcher, error) {
	patterns := make([][]rune, 0, len(phrases))
	for _, p := range phrases {
		words := tokenize(p)
		if len(words) == 0 {
			continue
		}
		patterns = append(patterns, []rune(padWords(words)))
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no usable phrases")
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build phrase automaton: %w", err)
	}
	return &phraseMatcher{machine: m}, nil
}

// count returns the number of phrase matches in pre-tokenized words.
func (p *phraseMatcher) count(words []string) int {
	if len(words) == 0 {
		return 0
	}
	text := []rune(padWords(words))

	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.machine.MultiPatternSearch(text, false))
}

// tokenize lowercases text and splits it into words of letters, digits and
// apostrophes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func padWords(words []string) string {
	return " " + strings.Join(words, "  ") + " "
}

// FillerCounter counts filler words and phrases in a transcript.
type FillerCounter struct {
	matcher *phraseMatcher
}

// NewFillerCounter builds a counter for fillers, or DefaultFillers when empty.
func NewFillerCounter(fillers []string) (*FillerCounter, error) {
	if len(fillers) == 0 {
		fillers = DefaultFillers
	}
	m, err := newPhraseMatcher(fillers)
	if err != nil {
		return nil, fmt.Errorf("filler counter: %w", err)
	}
	return &FillerCounter{matcher: m}, nil
}

// Count returns the number of filler occurrences in text.
func (f *FillerCounter) Count(text string) int {
	return f.matcher.count(tokenize(text))
}
