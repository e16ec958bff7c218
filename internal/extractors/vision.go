package extractors

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

// DefaultFramesSampled is how many frames the vision service samples evenly
// across the video.
const DefaultFramesSampled = 20

// ErrNoFrames is returned when the vision service could not decode any frame.
var ErrNoFrames = errors.New("no frames could be extracted from video")

type visionResponse struct {
	ExpressionScores struct {
		Joy      float64 `json:"joy"`
		Sorrow   float64 `json:"sorrow"`
		Surprise float64 `json:"surprise"`
	} `json:"expression_scores"`
	EyeContactProxy float64 `json:"eye_contact_proxy"`
	SmileRatio      float64 `json:"smile_ratio"`
	FramesAnalyzed  int     `json:"frames_analyzed"`
}

// VisionClient calls the face/expression model service.
type VisionClient struct {
	svc    *serviceClient
	frames int
}

// NewVisionClient creates a client for {BaseURL}/analyze-video.
func NewVisionClient(cfg ClientConfig, frames int, logger *zap.Logger) (*VisionClient, error) {
	svc, err := newServiceClient("vision", cfg, logger)
	if err != nil {
		return nil, err
	}
	if frames <= 0 {
		frames = DefaultFramesSampled
	}
	return &VisionClient{svc: svc, frames: frames}, nil
}

// ExtractVisual uploads the video and maps the service response.
func (c *VisionClient) ExtractVisual(ctx context.Context, videoPath string) (analysis.VisualMetrics, error) {
	var resp visionResponse
	fields := map[string]string{"frames": strconv.Itoa(c.frames)}
	if err := c.svc.postFile(ctx, "/analyze-video", videoPath, fields, &resp); err != nil {
		return analysis.VisualMetrics{}, err
	}
	if resp.FramesAnalyzed <= 0 {
		return analysis.VisualMetrics{}, ErrNoFrames
	}

	m := analysis.VisualMetrics{
		ExpressionScores: analysis.ExpressionScores{
			Joy:      resp.ExpressionScores.Joy,
			Sorrow:   resp.ExpressionScores.Sorrow,
			Surprise: resp.ExpressionScores.Surprise,
		},
		EyeContactProxy: resp.EyeContactProxy,
		SmileRatio:      resp.SmileRatio,
		FramesAnalyzed:  resp.FramesAnalyzed,
	}
	return m.Normalized(), nil
}
