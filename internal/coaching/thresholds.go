package coaching

import (
	"fmt"

	"github.com/fyrsmithlabs/coachd/internal/config"
)

// Band is an inclusive target range.
type Band struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the band.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Thresholds defines the target value for each coached metric.
type Thresholds struct {
	WPM            Band
	MaxFillers     int
	EyeContact     float64
	Energy         float64
	SentenceLength Band
	Confidence     float64
	Grammar        float64
	Joy            float64
	PitchHz        Band
	SmileRatio     float64
	VocabDiversity float64
}

// DefaultThresholds returns the stock targets.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WPM:            Band{Min: 120, Max: 160},
		MaxFillers:     3,
		EyeContact:     0.6,
		Energy:         0.02,
		SentenceLength: Band{Min: 8, Max: 25},
		Confidence:     0.6,
		Grammar:        0.7,
		Joy:            0.4,
		PitchHz:        Band{Min: 85, Max: 255},
		SmileRatio:     0.3,
		VocabDiversity: 0.4,
	}
}

// ThresholdsFromSettings maps the coaching.thresholds config section.
func ThresholdsFromSettings(s config.ThresholdsConfig) Thresholds {
	return Thresholds{
		WPM:            Band(s.WPM),
		MaxFillers:     s.MaxFillers,
		EyeContact:     s.EyeContact,
		Energy:         s.Energy,
		SentenceLength: Band(s.SentenceLength),
		Confidence:     s.Confidence,
		Grammar:        s.Grammar,
		Joy:            s.Joy,
		PitchHz:        Band(s.PitchHz),
		SmileRatio:     s.SmileRatio,
		VocabDiversity: s.VocabDiversity,
	}
}

// Validate rejects inverted bands and negative targets.
func (t Thresholds) Validate() error {
	for name, b := range map[string]Band{
		"wpm":             t.WPM,
		"sentence_length": t.SentenceLength,
		"pitch_hz":        t.PitchHz,
	} {
		if b.Min < 0 || b.Max < b.Min {
			return fmt.Errorf("threshold %s: invalid band %v-%v", name, b.Min, b.Max)
		}
	}
	if t.MaxFillers < 0 {
		return fmt.Errorf("threshold max_fillers must be >= 0, got %d", t.MaxFillers)
	}
	for name, v := range map[string]float64{
		"eye_contact":     t.EyeContact,
		"confidence":      t.Confidence,
		"grammar":         t.Grammar,
		"joy":             t.Joy,
		"smile_ratio":     t.SmileRatio,
		"vocab_diversity": t.VocabDiversity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %s must be within [0,1], got %v", name, v)
		}
	}
	if t.Energy < 0 {
		return fmt.Errorf("threshold energy must be >= 0, got %v", t.Energy)
	}
	return nil
}
