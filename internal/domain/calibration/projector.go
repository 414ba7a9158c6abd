package calibration

import (
	"github.com/golang/geo/r2"

	"github.com/okian/posecom/internal/domain/landmark"
)

// Coordinate is a display value in meters. Z is only meaningful in 3D mode.
type Coordinate struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// Projector derives display coordinates for one media frame size under a
// fixed mode and calibration. It is a value; build a new one whenever the
// session's mode, calibration or media change.
type Projector struct {
	mode   Mode
	width  float64
	height float64
	ppm    float64
	ok     bool
}

// NewProjector precomputes the 2D scale. A degenerate 2D calibration makes
// every Project call report no coordinate.
func NewProjector(mode Mode, state State, width, height float64) Projector {
	p := Projector{mode: mode, width: width, height: height}
	if mode == Mode3D {
		p.ok = true
		return p
	}
	p.ppm, p.ok = state.PixelsPerMeter(width, height)
	return p
}

// Mode returns the projector's mode.
func (p Projector) Mode() Mode { return p.mode }

// Project returns the display coordinate of slot i. 2D mode reads the image
// set, 3D mode the world set.
func (p Projector) Project(image, world *landmark.Set, i int) (Coordinate, bool) {
	if !p.ok {
		return Coordinate{}, false
	}
	if p.mode == Mode3D {
		j, ok := world.Get(i)
		if !ok {
			return Coordinate{}, false
		}
		return World(j), true
	}
	j, ok := image.Get(i)
	if !ok {
		return Coordinate{}, false
	}
	return p.Image(j)
}

// Image converts a normalized image joint to calibrated meters. ok is false
// when the projector has no usable 2D scale.
func (p Projector) Image(j landmark.Joint) (Coordinate, bool) {
	if !p.ok || p.ppm <= 0 {
		return Coordinate{}, false
	}
	px := toPixels(r2.Point{X: j.Position.X, Y: j.Position.Y}, p.width, p.height)
	return Coordinate{X: px.X / p.ppm, Y: px.Y / p.ppm}, true
}

// World converts a metric world joint to display axes with Y pointing up.
func World(j landmark.Joint) Coordinate {
	z := j.Position.Z
	return Coordinate{X: j.Position.X, Y: -j.Position.Y, Z: &z}
}
