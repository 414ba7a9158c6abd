package biomech

import "github.com/okian/posecom/internal/domain/landmark"

// MirrorFill returns a copy of s where every bilateral joint that is absent
// (empty or below threshold) takes the joint of its present counterpart.
// The copy is literal: coordinates are duplicated, not reflected across a
// body axis. Central joints are never touched. The second result lists the
// filled slots.
func MirrorFill(s landmark.Set, threshold float64) (landmark.Set, []int) {
	out := s
	var filled []int
	for _, p := range landmark.Pairs() {
		left, leftOK := s.Present(p.Left, threshold)
		right, rightOK := s.Present(p.Right, threshold)
		switch {
		case leftOK && !rightOK:
			out.Put(p.Right, left)
			filled = append(filled, p.Right)
		case rightOK && !leftOK:
			out.Put(p.Left, right)
			filled = append(filled, p.Left)
		}
	}
	return out, filled
}
