package biomech

import (
	"math"

	"github.com/okian/posecom/internal/domain/landmark"
)

// Midpoint averages a and b component-wise; visibility is the lower of the two.
func Midpoint(a, b landmark.Joint) landmark.Joint {
	return landmark.Joint{
		Position:   a.Position.Add(b.Position).Mul(0.5),
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// Midpoints returns a copy of s with Mid_Shoulder and Mid_Hip set when both
// source joints are present. Slots whose sources are missing are left empty.
func Midpoints(s landmark.Set, threshold float64) landmark.Set {
	out := s
	for _, m := range []struct{ slot, left, right int }{
		{landmark.MidShoulder, landmark.LeftShoulder, landmark.RightShoulder},
		{landmark.MidHip, landmark.LeftHip, landmark.RightHip},
	} {
		out.Clear(m.slot)
		l, lok := s.Present(m.left, threshold)
		r, rok := s.Present(m.right, threshold)
		if lok && rok {
			out.Put(m.slot, Midpoint(l, r))
		}
	}
	return out
}
