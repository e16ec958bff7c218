package analysis

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyTranscript is returned by linguistic extractors given no text.
var ErrEmptyTranscript = errors.New("empty transcript")

// Status tags a modality record as a real measurement or an error stand-in.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Outcome is embedded in every modality record. Consumers branch on Failed,
// never on which fields happen to be zero.
type Outcome struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the record is the error variant.
func (o Outcome) Failed() bool {
	return o.Status == StatusError
}

func okOutcome() Outcome { return Outcome{Status: StatusOK} }

func errorOutcome(err error) Outcome {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Status: StatusError, Error: msg}
}

// ExpressionScores holds mean facial expression likelihoods.
type ExpressionScores struct {
	Joy      float64 `json:"joy"`
	Sorrow   float64 `json:"sorrow"`
	Surprise float64 `json:"surprise"`
}

// VisualMetrics is the output of the visual modality.
type VisualMetrics struct {
	Outcome
	ExpressionScores ExpressionScores `json:"expression_scores"`
	EyeContactProxy  float64          `json:"eye_contact_proxy"`
	SmileRatio       float64          `json:"smile_ratio"`
	FramesAnalyzed   int              `json:"frames_analyzed"`
}

// VisualError is the zeroed error variant of VisualMetrics.
func VisualError(err error) VisualMetrics {
	return VisualMetrics{Outcome: errorOutcome(err)}
}

// Normalized clamps every field into its valid range and marks the record ok.
func (m VisualMetrics) Normalized() VisualMetrics {
	m.Outcome = okOutcome()
	m.ExpressionScores.Joy = clampUnit(m.ExpressionScores.Joy)
	m.ExpressionScores.Sorrow = clampUnit(m.ExpressionScores.Sorrow)
	m.ExpressionScores.Surprise = clampUnit(m.ExpressionScores.Surprise)
	m.EyeContactProxy = clampUnit(m.EyeContactProxy)
	m.SmileRatio = clampUnit(m.SmileRatio)
	m.FramesAnalyzed = max(m.FramesAnalyzed, 0)
	return m
}

// VocalMetrics is the output of the vocal modality. Transcript feeds the
// linguistic stage.
type VocalMetrics struct {
	Outcome
	Transcript      string  `json:"transcript"`
	WPM             float64 `json:"wpm"`
	PitchHz         float64 `json:"pitch_hz"`
	Energy          float64 `json:"energy"`
	FillerCount     int     `json:"filler_count"`
	DurationSeconds float64 `json:"duration_seconds"`
	WordCount       int     `json:"word_count"`
}

// VocalError is the zeroed error variant of VocalMetrics. Its transcript is
// empty.
func VocalError(err error) VocalMetrics {
	return VocalMetrics{Outcome: errorOutcome(err)}
}

// Normalized clamps every field into its valid range and marks the record ok.
func (m VocalMetrics) Normalized() VocalMetrics {
	m.Outcome = okOutcome()
	m.WPM = clampNonNeg(m.WPM)
	m.PitchHz = clampNonNeg(m.PitchHz)
	m.Energy = clampNonNeg(m.Energy)
	m.FillerCount = max(m.FillerCount, 0)
	m.DurationSeconds = clampNonNeg(m.DurationSeconds)
	m.WordCount = max(m.WordCount, 0)
	return m
}

// LinguisticMetrics is the output of the linguistic modality.
type LinguisticMetrics struct {
	Outcome
	GrammarScore      float64 `json:"grammar_score"`
	Confidence        float64 `json:"confidence"`
	FillerCount       int     `json:"filler_count"`
	SentenceCount     int     `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	VocabDiversity    float64 `json:"vocab_diversity"`
	Language          string  `json:"language,omitempty"`
}

// LinguisticError is the zeroed error variant of LinguisticMetrics.
func LinguisticError(err error) LinguisticMetrics {
	return LinguisticMetrics{Outcome: errorOutcome(err)}
}

// Normalized clamps every field into its valid range and marks the record ok.
func (m LinguisticMetrics) Normalized() LinguisticMetrics {
	m.Outcome = okOutcome()
	m.GrammarScore = clampUnit(m.GrammarScore)
	m.Confidence = clampUnit(m.Confidence)
	m.FillerCount = max(m.FillerCount, 0)
	m.SentenceCount = max(m.SentenceCount, 0)
	m.AvgSentenceLength = clampNonNeg(m.AvgSentenceLength)
	m.VocabDiversity = clampUnit(m.VocabDiversity)
	return m
}

// CombinedMetrics holds one record per modality. Pipeline.Run always fills
// all three.
type CombinedMetrics struct {
	Vision   VisualMetrics     `json:"vision"`
	Voice    VocalMetrics      `json:"voice"`
	Language LinguisticMetrics `json:"language"`
}

// AllFailed reports whether no modality produced a measurement.
func (c CombinedMetrics) AllFailed() bool {
	return c.Vision.Failed() && c.Voice.Failed() && c.Language.Failed()
}

// Errors lists the modality errors as "modality: message".
func (c CombinedMetrics) Errors() []string {
	var errs []string
	if c.Vision.Failed() {
		errs = append(errs, fmt.Sprintf("vision: %s", c.Vision.Error))
	}
	if c.Voice.Failed() {
		errs = append(errs, fmt.Sprintf("voice: %s", c.Voice.Error))
	}
	if c.Language.Failed() {
		errs = append(errs, fmt.Sprintf("language: %s", c.Language.Error))
	}
	return errs
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampNonNeg maps NaN, ±Inf and negatives to 0 so metrics stay JSON encodable.
func clampNonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
