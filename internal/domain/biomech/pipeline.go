package biomech

import "github.com/okian/posecom/internal/domain/landmark"

// DefaultThreshold is the presence threshold used when none is configured.
const DefaultThreshold = 0.3

// Options selects the anthropometric column and presence threshold.
type Options struct {
	Sex       Sex
	Threshold float64
}

// SetReport summarizes what the pipeline derived for one set.
type SetReport struct {
	Mirrored  []int
	Segments  int
	HasTotal  bool
	Populated int
}

// Report covers both spaces of a frame.
type Report struct {
	Image SetReport
	World SetReport
}

// Result is a frame's extended landmark sets.
type Result struct {
	Image  landmark.Set
	World  landmark.Set
	Report Report
}

// Extend runs mirror fill, midpoints, segment COMs and the whole-body COM on
// both sets independently. Derived slots on the inputs are recomputed.
// An empty world set stays empty.
func Extend(image, world landmark.Set, opts Options) Result {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	var r Result
	r.Image, r.Report.Image = extend(image, opts)
	if !world.Empty() {
		r.World, r.Report.World = extend(world, opts)
	}
	return r
}

func extend(s landmark.Set, opts Options) (landmark.Set, SetReport) {
	var rep SetReport
	for i := landmark.RawCount; i < landmark.Count; i++ {
		s.Clear(i)
	}
	s, rep.Mirrored = MirrorFill(s, opts.Threshold)
	s = Midpoints(s, opts.Threshold)
	s, rep.Segments = SegmentCOMs(s, opts.Sex, opts.Threshold)
	if total, ok := WholeBodyCOM(s, opts.Sex, opts.Threshold); ok {
		s.Put(landmark.TotalBodyCOM, total)
		rep.HasTotal = true
	}
	rep.Populated = s.Len()
	return s, rep
}
