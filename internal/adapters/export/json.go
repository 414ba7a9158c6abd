package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
)

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonCalibration struct {
	Point1      jsonPoint `json:"point1"`
	Point2      jsonPoint `json:"point2"`
	ScaleMeters float64   `json:"scaleMeters"`
}

type jsonMetadata struct {
	FPS            float64         `json:"fps"`
	Duration       float64         `json:"duration"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	AnalysisMode   string          `json:"analysisMode"`
	ExportDate     string          `json:"exportDate"`
	MediaKind      string          `json:"mediaKind"`
	Sex            string          `json:"sex"`
	TotalFrames    int             `json:"totalFrames"`
	CapturedFrames int             `json:"capturedFrames"`
	Calibration    jsonCalibration `json:"calibration"`
}

type jsonLandmark struct {
	Index             int                     `json:"index"`
	Name              string                  `json:"name"`
	Landmark2D        landmark.Joint          `json:"landmark2D"`
	Landmark3D        *landmark.Joint         `json:"landmark3D"`
	DisplayCoordinate *calibration.Coordinate `json:"displayCoordinate"`
}

type jsonFrame struct {
	Frame            int            `json:"frame"`
	Timestamp        float64        `json:"timestamp"`
	ManuallyEdited   bool           `json:"manuallyEdited"`
	VisibleLandmarks []jsonLandmark `json:"visibleLandmarks"`
}

type jsonDocument struct {
	Metadata jsonMetadata `json:"metadata"`
	PoseData []jsonFrame  `json:"poseData"`
}

// WriteJSON writes doc as an indented JSON document. Only visible exported
// landmarks are listed per frame.
func WriteJSON(w io.Writer, doc Document) error {
	out := jsonDocument{
		Metadata: jsonMetadata{
			FPS:            doc.Media.FPS,
			Duration:       doc.Media.Duration,
			Width:          doc.Media.Width,
			Height:         doc.Media.Height,
			AnalysisMode:   string(doc.Mode),
			ExportDate:     doc.ExportedAt.UTC().Format(time.RFC3339),
			MediaKind:      string(doc.Media.Kind),
			Sex:            doc.Sex.String(),
			TotalFrames:    doc.TotalFrames(),
			CapturedFrames: len(doc.Frames),
			Calibration: jsonCalibration{
				Point1:      jsonPoint{X: doc.Calibration.Point1.X, Y: doc.Calibration.Point1.Y},
				Point2:      jsonPoint{X: doc.Calibration.Point2.X, Y: doc.Calibration.Point2.Y},
				ScaleMeters: doc.Calibration.ScaleMeters,
			},
		},
		PoseData: make([]jsonFrame, 0, len(doc.Frames)),
	}
	for fi := range doc.Frames {
		f := &doc.Frames[fi]
		jf := jsonFrame{
			Frame:            f.Index,
			Timestamp:        f.Timestamp,
			ManuallyEdited:   f.ManuallyEdited,
			VisibleLandmarks: []jsonLandmark{},
		}
		for _, i := range f.VisibleIndices(doc.Threshold) {
			j2, _ := f.Image.Get(i)
			jl := jsonLandmark{Index: i, Name: landmark.Name(i), Landmark2D: j2}
			if j3, ok := f.WorldAt(i); ok {
				jl.Landmark3D = &j3
			}
			if c, ok := f.DisplayAt(i, doc.Threshold); ok {
				jl.DisplayCoordinate = &c
			}
			jf.VisibleLandmarks = append(jf.VisibleLandmarks, jl)
		}
		out.PoseData = append(out.PoseData, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}
