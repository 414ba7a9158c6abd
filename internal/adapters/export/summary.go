package export

import (
	"gonum.org/v1/gonum/stat"

	"github.com/okian/posecom/internal/domain/landmark"
)

// FrameSummary condenses one frame for the Summary sheet and the stats API.
type FrameSummary struct {
	Frame          int      `json:"frame"`
	Timestamp      float64  `json:"timestamp"`
	DetectedJoints int      `json:"detectedJoints"`
	AvgVisibility  float64  `json:"avgVisibility"`
	TotalBodyCOMX  *float64 `json:"totalBodyComX,omitempty"`
	TotalBodyCOMY  *float64 `json:"totalBodyComY,omitempty"`
}

// Summarize counts the visible raw joints of f and averages their
// visibility. The whole-body COM is reported in display coordinates.
func Summarize(f *Frame, threshold float64) FrameSummary {
	s := FrameSummary{Frame: f.Index, Timestamp: f.Timestamp}
	var vis []float64
	for _, i := range f.VisibleIndices(threshold) {
		if !landmark.IsRaw(i) {
			continue
		}
		j, _ := f.Image.Get(i)
		vis = append(vis, j.Visibility)
	}
	s.DetectedJoints = len(vis)
	if len(vis) > 0 {
		s.AvgVisibility = stat.Mean(vis, nil)
	}
	if c, ok := f.DisplayAt(landmark.TotalBodyCOM, threshold); ok {
		x, y := c.X, c.Y
		s.TotalBodyCOMX, s.TotalBodyCOMY = &x, &y
	}
	return s
}

// Summaries summarizes every frame of doc.
func (d Document) Summaries() []FrameSummary {
	out := make([]FrameSummary, len(d.Frames))
	for i := range d.Frames {
		out[i] = Summarize(&d.Frames[i], d.Threshold)
	}
	return out
}
