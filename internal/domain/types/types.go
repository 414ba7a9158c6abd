// Package types contains the wire shapes shared by the HTTP API, the
// replay tooling and recorded detection files.
package types

import (
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
)

// Joint is a joint as produced by the estimator. Visibility is optional.
type Joint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// DetectionRequest is one estimator result. It is also the line format of
// recorded detection files.
type DetectionRequest struct {
	DetectionID        string  `json:"detectionId,omitempty"`
	Timestamp          float64 `json:"timestamp"`
	PoseLandmarks      []Joint `json:"poseLandmarks"`
	PoseWorldLandmarks []Joint `json:"poseWorldLandmarks,omitempty"`
}

// Joints converts the request. Image joints without visibility are treated
// as not detected; world joints without visibility count as fully visible.
func (r DetectionRequest) Joints() (image, world []landmark.Joint) {
	image = convert(r.PoseLandmarks, 0)
	world = convert(r.PoseWorldLandmarks, 1)
	return image, world
}

// NewDetectionRequest builds the wire form of estimator output.
func NewDetectionRequest(id string, ts float64, image, world []landmark.Joint) DetectionRequest {
	return DetectionRequest{
		DetectionID:        id,
		Timestamp:          ts,
		PoseLandmarks:      wire(image),
		PoseWorldLandmarks: wire(world),
	}
}

func convert(in []Joint, defaultVisibility float64) []landmark.Joint {
	if len(in) == 0 {
		return nil
	}
	out := make([]landmark.Joint, len(in))
	for i, j := range in {
		vis := defaultVisibility
		if j.Visibility != nil {
			vis = *j.Visibility
		}
		out[i] = landmark.NewJoint(j.X, j.Y, j.Z, vis)
	}
	return out
}

func wire(in []landmark.Joint) []Joint {
	if len(in) == 0 {
		return nil
	}
	out := make([]Joint, len(in))
	for i, j := range in {
		vis := j.Visibility
		out[i] = Joint{X: j.Position.X, Y: j.Position.Y, Z: j.Position.Z, Visibility: &vis}
	}
	return out
}

// DetectionAck is returned for a submitted detection.
type DetectionAck struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Frame     int    `json:"frame"`
}

// MediaRequest describes the media a session analyses.
type MediaRequest struct {
	Kind     string  `json:"mediaKind"`
	Name     string  `json:"name,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Media converts the request.
func (r MediaRequest) Media() model.Media {
	return model.Media{
		Kind:     model.MediaKind(r.Kind),
		Name:     r.Name,
		FPS:      r.FPS,
		Duration: r.Duration,
		Width:    r.Width,
		Height:   r.Height,
	}
}

// CreateSessionRequest opens a session on a piece of media.
type CreateSessionRequest struct {
	MediaRequest
	Mode string `json:"mode,omitempty"`
	Sex  string `json:"sex,omitempty"`
}

// ModeRequest switches the analysis mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// SexRequest switches the anthropometric table.
type SexRequest struct {
	Sex string `json:"sex"`
}

// Point is a normalized image point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Calibration is the two-point calibration.
type Calibration struct {
	Point1      Point   `json:"point1"`
	Point2      Point   `json:"point2"`
	ScaleMeters float64 `json:"scaleMeters"`
}

// NewCalibration converts a calibration state to its wire form.
func NewCalibration(s calibration.State) Calibration {
	return Calibration{
		Point1:      Point{X: s.Point1.X, Y: s.Point1.Y},
		Point2:      Point{X: s.Point2.X, Y: s.Point2.Y},
		ScaleMeters: s.ScaleMeters,
	}
}

// State converts back to the domain type.
func (c Calibration) State() calibration.State {
	var s calibration.State
	s.Point1.X, s.Point1.Y = c.Point1.X, c.Point1.Y
	s.Point2.X, s.Point2.Y = c.Point2.X, c.Point2.Y
	s.ScaleMeters = c.ScaleMeters
	return s
}

// Session is the read shape of a session.
type Session struct {
	ID          string       `json:"id"`
	Media       MediaRequest `json:"media"`
	Mode        string       `json:"mode"`
	Sex         string       `json:"sex"`
	Calibration Calibration  `json:"calibration"`
	Frames      int          `json:"frames"`
	CreatedAt   string       `json:"createdAt"`
}

// JointEditRequest moves a joint to a normalized image position.
type JointEditRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrameLandmark is one populated slot of a frame view.
type FrameLandmark struct {
	Index             int                     `json:"index"`
	Name              string                  `json:"name"`
	Landmark2D        landmark.Joint          `json:"landmark2D"`
	Landmark3D        *landmark.Joint         `json:"landmark3D,omitempty"`
	DisplayCoordinate *calibration.Coordinate `json:"displayCoordinate,omitempty"`
	Edited            bool                    `json:"edited"`
}

// Frame is the extended view of one stored frame.
type Frame struct {
	Frame          int             `json:"frame"`
	Timestamp      float64         `json:"timestamp"`
	ManuallyEdited bool            `json:"manuallyEdited"`
	Landmarks      []FrameLandmark `json:"landmarks"`
	MirroredJoints []int           `json:"mirroredJoints"`
	SegmentCOMs    int             `json:"segmentComs"`
}
