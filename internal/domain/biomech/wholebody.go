package biomech

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"

	"github.com/okian/posecom/internal/domain/landmark"
)

// WeightedCOM is the weight-averaged position of points, normalized by the
// sum of the supplied weights. Visibility is the minimum over points.
// ok is false when there are no points or the weights sum to zero.
func WeightedCOM(points []landmark.Joint, weights []float64) (landmark.Joint, bool) {
	if len(points) == 0 || len(points) != len(weights) {
		return landmark.Joint{}, false
	}
	total := floats.Sum(weights)
	if total == 0 {
		return landmark.Joint{}, false
	}
	var sum r3.Vector
	vis := make([]float64, len(points))
	for i, p := range points {
		sum = sum.Add(p.Position.Mul(weights[i]))
		vis[i] = p.Visibility
	}
	return landmark.Joint{Position: sum.Mul(1 / total), Visibility: floats.Min(vis)}, true
}

// WholeBodyCOM averages the present segment COMs of s by their mass fractions.
// Missing segments drop out of both numerator and denominator, so the result
// is re-weighted over what was detected rather than a true whole-body COM.
func WholeBodyCOM(s landmark.Set, sex Sex, threshold float64) (landmark.Joint, bool) {
	points := make([]landmark.Joint, 0, len(segmentMasses))
	weights := make([]float64, 0, len(segmentMasses))
	for _, m := range segmentMasses {
		j, ok := s.Present(m.Slot, threshold)
		if !ok {
			continue
		}
		points = append(points, j)
		weights = append(weights, m.Fraction(sex))
	}
	return WeightedCOM(points, weights)
}
