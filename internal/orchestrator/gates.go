package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
)

var (
	// ErrMediaNotFound is returned when a media path does not exist. It wraps
	// fs.ErrNotExist.
	ErrMediaNotFound = fmt.Errorf("media not found: %w", fs.ErrNotExist)

	// ErrMediaUnreadable is returned when a media path exists but cannot be read.
	ErrMediaUnreadable = errors.New("media unreadable")
)

// Severity indicates how serious a violation is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Violation is a problem found by a gate. A critical violation ends the
// session with Err.
type Violation struct {
	Gate        string   `json:"gate"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Err         error    `json:"-"`
}

// Gate validates media before analysis starts. Gates may fill in fields of
// media such as ContentType.
type Gate interface {
	// Name returns the gate identifier
	Name() string

	// Check validates gate conditions, returning violations if any
	Check(ctx context.Context, media *analysis.MediaInput) ([]Violation, error)
}

// DefaultGates returns the existence and media type gates.
func DefaultGates() []Gate {
	return []Gate{NewExistenceGate(), NewMediaTypeGate()}
}

// ExistenceGate requires every media path to be an existing regular file.
type ExistenceGate struct{}

// NewExistenceGate creates a new existence gate
func NewExistenceGate() *ExistenceGate {
	return &ExistenceGate{}
}

// Name returns the gate identifier
func (g *ExistenceGate) Name() string {
	return "media-exists"
}

// Check stats the video and audio paths.
func (g *ExistenceGate) Check(ctx context.Context, media *analysis.MediaInput) ([]Violation, error) {
	var violations []Violation
	for _, path := range mediaPaths(media) {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			violations = append(violations, Violation{
				Gate:        g.Name(),
				Description: fmt.Sprintf("%s does not exist", path),
				Severity:    SeverityCritical,
				Err:         fmt.Errorf("%w: %s", ErrMediaNotFound, path),
			})
		case err != nil:
			violations = append(violations, Violation{
				Gate:        g.Name(),
				Description: fmt.Sprintf("cannot stat %s", path),
				Severity:    SeverityCritical,
				Err:         fmt.Errorf("%w: %w", ErrMediaUnreadable, err),
			})
		case !info.Mode().IsRegular():
			violations = append(violations, Violation{
				Gate:        g.Name(),
				Description: fmt.Sprintf("%s is not a regular file", path),
				Severity:    SeverityCritical,
				Err:         fmt.Errorf("%w: %s is not a regular file", ErrMediaUnreadable, path),
			})
		}
	}
	return violations, nil
}

// MediaTypeGate sniffs the video's content type. Anything other than audio
// or video is a warning; the extractors decide whether they can use it.
type MediaTypeGate struct{}

// NewMediaTypeGate creates a new media type gate
func NewMediaTypeGate() *MediaTypeGate {
	return &MediaTypeGate{}
}

// Name returns the gate identifier
func (g *MediaTypeGate) Name() string {
	return "media-type"
}

// Check detects the content type and records it on media.
func (g *MediaTypeGate) Check(ctx context.Context, media *analysis.MediaInput) ([]Violation, error) {
	mtype, err := mimetype.DetectFile(media.VideoPath)
	if err != nil {
		return []Violation{{
			Gate:        g.Name(),
			Description: fmt.Sprintf("cannot read %s", media.VideoPath),
			Severity:    SeverityCritical,
			Err:         fmt.Errorf("%w: %w", ErrMediaUnreadable, err),
		}}, nil
	}

	media.ContentType = mtype.String()
	if isAudioVisual(mtype.String()) {
		return nil, nil
	}
	return []Violation{{
		Gate:        g.Name(),
		Description: fmt.Sprintf("%s has content type %s, expected audio or video", media.VideoPath, mtype.String()),
		Severity:    SeverityWarning,
	}}, nil
}

func isAudioVisual(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") || strings.HasPrefix(contentType, "audio/")
}

func mediaPaths(media *analysis.MediaInput) []string {
	paths := []string{media.VideoPath}
	if media.AudioPath != "" && media.AudioPath != media.VideoPath {
		paths = append(paths, media.AudioPath)
	}
	return paths
}

// firstCritical returns the first critical violation, if any.
func firstCritical(violations []Violation) (Violation, bool) {
	for _, v := range violations {
		if v.Severity == SeverityCritical {
			return v, true
		}
	}
	return Violation{}, false
}
