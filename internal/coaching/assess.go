package coaching

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

// Tier is an impact class used to order feedback.
type Tier string

const (
	TierHigh    Tier = "high"
	TierMedium  Tier = "medium"
	TierContext Tier = "context"
)

func (t Tier) rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	default:
		return 2
	}
}

// Kind says whether a metric met its target.
type Kind string

const (
	KindStrength    Kind = "strength"
	KindImprovement Kind = "improvement"
)

// Metric names used in feedback items.
const (
	MetricJoy               = "joy"
	MetricEyeContact        = "eye_contact_proxy"
	MetricSmileRatio        = "smile_ratio"
	MetricWPM               = "wpm"
	MetricPitch             = "pitch_hz"
	MetricEnergy            = "energy"
	MetricFillerCount       = "filler_count"
	MetricGrammar           = "grammar_score"
	MetricConfidence        = "confidence"
	MetricAvgSentenceLength = "avg_sentence_length"
	MetricVocabDiversity    = "vocab_diversity"
)

var metricTiers = map[string]Tier{
	MetricEyeContact:        TierHigh,
	MetricFillerCount:       TierHigh,
	MetricWPM:               TierHigh,
	MetricEnergy:            TierMedium,
	MetricAvgSentenceLength: TierMedium,
	MetricConfidence:        TierMedium,
	MetricGrammar:           TierMedium,
	MetricJoy:               TierContext,
	MetricPitch:             TierContext,
	MetricSmileRatio:        TierContext,
	MetricVocabDiversity:    TierContext,
}

var metricLabels = map[string]string{
	MetricJoy:               "positive expression",
	MetricEyeContact:        "eye contact",
	MetricSmileRatio:        "smiling",
	MetricWPM:               "speaking pace",
	MetricPitch:             "pitch",
	MetricEnergy:            "vocal energy",
	MetricFillerCount:       "filler words",
	MetricGrammar:           "sentence completeness",
	MetricConfidence:        "confident language",
	MetricAvgSentenceLength: "sentence length",
	MetricVocabDiversity:    "vocabulary variety",
}

// TierOf returns the impact tier of a metric.
func TierOf(metric string) Tier {
	if t, ok := metricTiers[metric]; ok {
		return t
	}
	return TierContext
}

// Label returns a human-readable focus area for a metric.
func Label(metric string) string {
	if l, ok := metricLabels[metric]; ok {
		return l
	}
	return metric
}

// FormatValue renders a metric value the way feedback messages embed it.
func FormatValue(metric string, v float64) string {
	switch metric {
	case MetricEyeContact, MetricSmileRatio, MetricJoy:
		return fmt.Sprintf("%.0f%%", v*100)
	case MetricFillerCount:
		return fmt.Sprintf("%d", int(math.Round(v)))
	case MetricWPM, MetricPitch:
		return fmt.Sprintf("%.0f", v)
	case MetricEnergy:
		return fmt.Sprintf("%.3f", v)
	case MetricAvgSentenceLength:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// Assessment is one metric judged against its threshold.
type Assessment struct {
	Metric  string
	Tier    Tier
	Kind    Kind
	Value   float64
	Message string
}

// Assess judges every metric of each ok modality, in the order the metrics
// appear in CombinedMetrics: vision, then voice, then language.
func Assess(m analysis.CombinedMetrics, t Thresholds) []Assessment {
	var out []Assessment
	add := func(metric string, v float64, met bool, strength, improvement string) {
		a := Assessment{Metric: metric, Tier: TierOf(metric), Value: v}
		val := FormatValue(metric, v)
		if met {
			a.Kind = KindStrength
			a.Message = fmt.Sprintf(strength, val)
		} else {
			a.Kind = KindImprovement
			a.Message = fmt.Sprintf(improvement, val)
		}
		out = append(out, a)
	}

	if v := m.Vision; !v.Failed() {
		add(MetricJoy, v.ExpressionScores.Joy, v.ExpressionScores.Joy >= t.Joy,
			"Positive expression in %s of frames comes across as warm and engaged.",
			fmt.Sprintf("Positive expression in only %%s of frames; aim for %s by smiling when you greet and close.", pct(t.Joy)))
		add(MetricEyeContact, v.EyeContactProxy, v.EyeContactProxy >= t.EyeContact,
			"Strong eye contact: looking at the camera in %s of frames.",
			fmt.Sprintf("Eye contact in %%s of frames; aim for at least %s by looking at the camera lens.", pct(t.EyeContact)))
		add(MetricSmileRatio, v.SmileRatio, v.SmileRatio >= t.SmileRatio,
			"Natural smiling in %s of frames.",
			fmt.Sprintf("Smiling in %%s of frames; aim for %s to appear approachable.", pct(t.SmileRatio)))
	}

	if v := m.Voice; !v.Failed() {
		switch {
		case t.WPM.Contains(v.WPM):
			add(MetricWPM, v.WPM, true, "Speaking pace of %s WPM is in the ideal range.", "")
		case v.WPM < t.WPM.Min:
			add(MetricWPM, v.WPM, false, "",
				fmt.Sprintf("Speaking pace of %%s WPM is slow; aim for %.0f-%.0f WPM.", t.WPM.Min, t.WPM.Max))
		default:
			add(MetricWPM, v.WPM, false, "",
				fmt.Sprintf("Speaking pace of %%s WPM is fast; slow down to %.0f-%.0f WPM.", t.WPM.Min, t.WPM.Max))
		}
		add(MetricPitch, v.PitchHz, t.PitchHz.Contains(v.PitchHz),
			"Average pitch of %s Hz sounds natural.",
			fmt.Sprintf("Average pitch of %%s Hz is outside the typical %.0f-%.0f Hz range; check microphone and vary intonation.", t.PitchHz.Min, t.PitchHz.Max))
		add(MetricEnergy, v.Energy, v.Energy >= t.Energy,
			"Vocal energy of %s projects well.",
			fmt.Sprintf("Vocal energy of %%s is low; project to at least %.3f.", t.Energy))
		fillers := float64(v.FillerCount)
		add(MetricFillerCount, fillers, v.FillerCount <= t.MaxFillers,
			"Only %s filler words used.",
			fmt.Sprintf("Used %%s filler words; aim for %d or fewer by pausing instead.", t.MaxFillers))
	}

	if v := m.Language; !v.Failed() {
		add(MetricGrammar, v.GrammarScore, v.GrammarScore >= t.Grammar,
			"Sentence completeness score of %s shows well-formed answers.",
			fmt.Sprintf("Sentence completeness score of %%s; aim for %.2f with full sentences.", t.Grammar))
		add(MetricConfidence, v.Confidence, v.Confidence >= t.Confidence,
			"Confidence score of %s: language is direct and assertive.",
			fmt.Sprintf("Confidence score of %%s; aim for %.2f by cutting hedges like \"I think\" and \"maybe\".", t.Confidence))
		add(MetricAvgSentenceLength, v.AvgSentenceLength, t.SentenceLength.Contains(v.AvgSentenceLength),
			"Average sentence length of %s words keeps answers easy to follow.",
			fmt.Sprintf("Average sentence length of %%s words; aim for %.0f-%.0f words per sentence.", t.SentenceLength.Min, t.SentenceLength.Max))
		add(MetricVocabDiversity, v.VocabDiversity, v.VocabDiversity >= t.VocabDiversity,
			"Vocabulary diversity of %s shows varied word choice.",
			fmt.Sprintf("Vocabulary diversity of %%s; aim for %.2f by varying word choice.", t.VocabDiversity))
	}

	return out
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f%%%%", v*100)
}
