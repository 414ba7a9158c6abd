// Package calibration turns stored landmarks into display coordinates.
//
// In 3D mode the estimator's metric world output is passed through with Y
// negated. In 2D mode two user-placed points of known separation give a
// pixels-per-meter scale in the image plane; the origin is the bottom-left
// corner with Y growing upwards.
package calibration

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r2"
)

// Mode selects how display coordinates are produced.
type Mode string

// Analysis modes.
const (
	Mode2D Mode = "2d"
	Mode3D Mode = "3d"
)

// ParseMode accepts "2d" or "3d" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Mode2D:
		return Mode2D, nil
	case Mode3D:
		return Mode3D, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// State is the two-point calibration of a session. Points are normalized to
// the image, ScaleMeters is the real distance between them.
type State struct {
	Point1      r2.Point `json:"point1"`
	Point2      r2.Point `json:"point2"`
	ScaleMeters float64  `json:"scaleMeters"`
}

// Default is the calibration a session starts with: a horizontal segment
// across the middle of the frame worth one meter.
func Default() State {
	return State{
		Point1:      r2.Point{X: 0.25, Y: 0.5},
		Point2:      r2.Point{X: 0.75, Y: 0.5},
		ScaleMeters: 1.0,
	}
}

// Validate checks that both points lie inside the image and the scale is
// positive.
func (s State) Validate() error {
	for _, p := range []r2.Point{s.Point1, s.Point2} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("%w: point (%g,%g) outside [0,1]", ErrInvalidCalibration, p.X, p.Y)
		}
	}
	if s.ScaleMeters <= 0 {
		return fmt.Errorf("%w: scale %g must be positive", ErrInvalidCalibration, s.ScaleMeters)
	}
	return nil
}

// PixelsPerMeter is the image-plane scale for a width x height frame.
// ok is false for a degenerate calibration: coincident points, a
// non-positive scale or an empty frame.
func (s State) PixelsPerMeter(width, height float64) (float64, bool) {
	if width <= 0 || height <= 0 || s.ScaleMeters <= 0 {
		return 0, false
	}
	d := toPixels(s.Point1, width, height).Sub(toPixels(s.Point2, width, height)).Norm()
	if d == 0 {
		return 0, false
	}
	return d / s.ScaleMeters, true
}

// toPixels maps a normalized image point to pixels with Y flipped upwards.
func toPixels(p r2.Point, width, height float64) r2.Point {
	return r2.Point{X: p.X * width, Y: (1 - p.Y) * height}
}
