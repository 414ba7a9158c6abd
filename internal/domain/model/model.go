// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/posecom/internal/domain/landmark"
)

// MediaKind distinguishes a video session from a single still image.
type MediaKind string

// Media kinds.
const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

// Media describes what a session analyses.
type Media struct {
	Kind     MediaKind
	Name     string
	FPS      float64 // frames per second, video only
	Duration float64 // seconds, video only
	Width    int     // pixels
	Height   int     // pixels
}

// Validate checks the media description.
func (m Media) Validate() error {
	switch m.Kind {
	case MediaVideo:
		if m.FPS <= 0 {
			return fmt.Errorf("%w: fps must be positive", ErrInvalidMedia)
		}
		if m.Duration < 0 {
			return fmt.Errorf("%w: negative duration", ErrInvalidMedia)
		}
	case MediaImage:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMedia, m.Kind)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidMedia, m.Width, m.Height)
	}
	return nil
}

// MaxFrameIndex bounds the frame a video timestamp may map to.
const MaxFrameIndex = math.MaxInt32

// FrameIndex maps a timestamp to its frame. Images always use frame 0.
func (m Media) FrameIndex(timestamp float64) int {
	if m.Kind != MediaVideo || m.FPS <= 0 || timestamp <= 0 {
		return 0
	}
	return int(math.Floor(timestamp * m.FPS))
}

// Detection is one estimator result submitted for a session.
// Image holds 33 normalized joints; World is empty or 33 metric joints.
type Detection struct {
	SessionID   string
	DetectionID string // optional, used for idempotency
	Timestamp   float64
	Image       []landmark.Joint
	World       []landmark.Joint
	ReceivedAt  time.Time
}

// Validate checks joint counts.
func (d Detection) Validate() error {
	if len(d.Image) != landmark.RawCount {
		return fmt.Errorf("%w: want %d image joints, got %d", ErrInvalidDetection, landmark.RawCount, len(d.Image))
	}
	if len(d.World) != 0 && len(d.World) != landmark.RawCount {
		return fmt.Errorf("%w: want 0 or %d world joints, got %d", ErrInvalidDetection, landmark.RawCount, len(d.World))
	}
	if d.Timestamp < 0 || math.IsNaN(d.Timestamp) || math.IsInf(d.Timestamp, 0) {
		return fmt.Errorf("%w: bad timestamp %g", ErrInvalidDetection, d.Timestamp)
	}
	return nil
}

// ValidateFor checks d and that its timestamp maps to a representable frame
// of media.
func (d Detection) ValidateFor(media Media) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if media.Kind == MediaVideo && d.Timestamp*media.FPS > MaxFrameIndex {
		return fmt.Errorf("%w: timestamp %g is beyond the last frame", ErrInvalidDetection, d.Timestamp)
	}
	return nil
}

// Record builds the frame record for this detection under media.
func (d Detection) Record(media Media) FrameRecord {
	return FrameRecord{
		FrameIndex: media.FrameIndex(d.Timestamp),
		Timestamp:  d.Timestamp,
		Image:      landmark.FromRaw(d.Image),
		World:      landmark.FromRaw(d.World),
	}
}
