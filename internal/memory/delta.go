package memory

import (
	"fmt"
	"math"
	"slices"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

// Progress notes used when no pace change can be reported.
const (
	// BaselineNote is the note for a user's first recorded session.
	BaselineNote = "First session - baseline established"
	// NoPaceNote is the note when a prior session exists but one of the two
	// sessions has no usable speaking pace.
	NoPaceNote = "Speaking pace: no comparison with the previous session"
)

type metricValue struct {
	name  string
	value float64
}

func voiceValues(m analysis.VocalMetrics) []metricValue {
	return []metricValue{
		{"wpm", m.WPM},
		{"pitch_hz", m.PitchHz},
		{"energy", m.Energy},
		{"filler_count", float64(m.FillerCount)},
		{"duration_seconds", m.DurationSeconds},
		{"word_count", float64(m.WordCount)},
	}
}

func visionValues(m analysis.VisualMetrics) []metricValue {
	return []metricValue{
		{"eye_contact_proxy", m.EyeContactProxy},
		{"smile_ratio", m.SmileRatio},
		{"joy", m.ExpressionScores.Joy},
	}
}

func languageValues(m analysis.LinguisticMetrics) []metricValue {
	return []metricValue{
		{"grammar_score", m.GrammarScore},
		{"confidence", m.Confidence},
		{"avg_sentence_length", m.AvgSentenceLength},
		{"vocab_diversity", m.VocabDiversity},
		{"sentence_count", float64(m.SentenceCount)},
	}
}

// ComputeDelta compares current against prior. A nil prior yields no deltas.
// Voice metrics are always compared first, starting with wpm; vision and
// language metrics follow only when listed in extra. Modalities in error on
// either side and metrics whose prior value is zero are skipped.
func ComputeDelta(prior *SessionSnapshot, current SessionSnapshot, extra ...Modality) []ProgressDelta {
	if prior == nil {
		return []ProgressDelta{}
	}

	deltas := []ProgressDelta{}
	if !prior.Metrics.Voice.Failed() && !current.Metrics.Voice.Failed() {
		deltas = appendDeltas(deltas, voiceValues(prior.Metrics.Voice), voiceValues(current.Metrics.Voice))
	}
	if slices.Contains(extra, ModalityVision) &&
		!prior.Metrics.Vision.Failed() && !current.Metrics.Vision.Failed() {
		deltas = appendDeltas(deltas, visionValues(prior.Metrics.Vision), visionValues(current.Metrics.Vision))
	}
	if slices.Contains(extra, ModalityLanguage) &&
		!prior.Metrics.Language.Failed() && !current.Metrics.Language.Failed() {
		deltas = appendDeltas(deltas, languageValues(prior.Metrics.Language), languageValues(current.Metrics.Language))
	}
	return deltas
}

func appendDeltas(out []ProgressDelta, prior, current []metricValue) []ProgressDelta {
	for i, p := range prior {
		if p.value == 0 {
			// no delta computable
			continue
		}
		c := current[i].value
		change := c - p.value
		out = append(out, ProgressDelta{
			Metric:    p.name,
			Prior:     p.value,
			Current:   c,
			Change:    change,
			Direction: directionOf(change),
		})
	}
	return out
}

func directionOf(change float64) Direction {
	switch {
	case change > 0:
		return DirectionUp
	case change < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// ProgressNote summarizes the speaking pace delta, e.g.
// "Speaking pace: 120 → 135 WPM (↑ 15)". For a baseline session it returns
// BaselineNote, and NoPaceNote when a prior exists but deltas has no wpm entry.
func ProgressNote(deltas []ProgressDelta, baseline bool) string {
	if baseline {
		return BaselineNote
	}
	for _, d := range deltas {
		if d.Metric != "wpm" {
			continue
		}
		arrow := "→"
		switch d.Direction {
		case DirectionUp:
			arrow = "↑"
		case DirectionDown:
			arrow = "↓"
		}
		return fmt.Sprintf("Speaking pace: %.0f → %.0f WPM (%s %.0f)", d.Prior, d.Current, arrow, math.Abs(d.Change))
	}
	return NoPaceNote
}
