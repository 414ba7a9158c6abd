package biomech

import (
	"math"

	"github.com/okian/posecom/internal/domain/landmark"
)

// SegmentCOM interpolates fraction of the way from proximal to distal.
func SegmentCOM(proximal, distal landmark.Joint, fraction float64) landmark.Joint {
	return landmark.Joint{
		Position:   proximal.Position.Add(distal.Position.Sub(proximal.Position).Mul(fraction)),
		Visibility: math.Min(proximal.Visibility, distal.Visibility),
	}
}

// SegmentCOMs returns a copy of s with every segment COM whose proximal and
// distal joints are present. It expects midpoints to be computed already.
// The second result is the number of segments computed.
func SegmentCOMs(s landmark.Set, sex Sex, threshold float64) (landmark.Set, int) {
	out := s
	n := 0
	for _, d := range segmentDefinitions {
		out.Clear(d.Slot)
		p, pok := s.Present(d.Proximal, threshold)
		q, qok := s.Present(d.Distal, threshold)
		if !pok || !qok {
			continue
		}
		out.Put(d.Slot, SegmentCOM(p, q, d.COMFraction(sex)))
		n++
	}
	return out, n
}
