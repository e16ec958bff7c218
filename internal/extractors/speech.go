package extractors

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

type transcribeResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

type prosodyResponse struct {
	PitchHz float64 `json:"pitch_hz"`
	Energy  float64 `json:"energy"`
}

// SpeechClient calls the speech-to-text and prosody model service and derives
// pace and filler metrics locally.
type SpeechClient struct {
	svc     *serviceClient
	fillers *FillerCounter
	logger  *zap.Logger
}

// NewSpeechClient creates a client for {BaseURL}/transcribe and
// {BaseURL}/prosody.
func NewSpeechClient(cfg ClientConfig, fillers *FillerCounter, logger *zap.Logger) (*SpeechClient, error) {
	if fillers == nil {
		return nil, errors.New("filler counter is required")
	}
	svc, err := newServiceClient("speech", cfg, logger)
	if err != nil {
		return nil, err
	}
	return &SpeechClient{svc: svc, fillers: fillers, logger: svc.logger}, nil
}

// ExtractVocal transcribes the audio and measures pace, prosody and fillers.
// A prosody failure zeroes pitch and energy but keeps the transcript.
func (c *SpeechClient) ExtractVocal(ctx context.Context, audioPath string) (analysis.VocalMetrics, error) {
	var tr transcribeResponse
	if err := c.svc.postFile(ctx, "/transcribe", audioPath, nil, &tr); err != nil {
		return analysis.VocalMetrics{}, err
	}

	transcript := strings.TrimSpace(tr.Text)
	words := strings.Fields(transcript)

	m := analysis.VocalMetrics{
		Transcript:      transcript,
		WPM:             wordsPerMinute(len(words), tr.Duration),
		FillerCount:     c.fillers.Count(transcript),
		DurationSeconds: tr.Duration,
		WordCount:       len(words),
	}

	var pr prosodyResponse
	if err := c.svc.postFile(ctx, "/prosody", audioPath, nil, &pr); err != nil {
		if ctx.Err() != nil {
			return analysis.VocalMetrics{}, ctx.Err()
		}
		c.logger.Warn("prosody unavailable, pitch and energy zeroed", zap.Error(err))
	} else {
		m.PitchHz = pr.PitchHz
		m.Energy = pr.Energy
	}

	return m.Normalized(), nil
}

// wordsPerMinute returns 0 for a non-positive duration.
func wordsPerMinute(words int, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return float64(words) / (durationSeconds / 60)
}
