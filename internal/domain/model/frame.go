package model

import (
	"fmt"
	"maps"

	"github.com/okian/posecom/internal/domain/landmark"
)

// DefaultEditScale converts a normalized image delta into a world delta for
// hand edits.
const DefaultEditScale = 2.0

// JointEdit is a hand-placed joint that overrides the raw detection.
type JointEdit struct {
	Image    landmark.Joint
	World    landmark.Joint
	HasWorld bool
}

// FrameRecord is the stored state of one frame. Image and World hold the raw
// detection; Edits overlays hand-placed joints on top of it.
type FrameRecord struct {
	FrameIndex     int
	Timestamp      float64
	Image          landmark.Set
	World          landmark.Set
	ManuallyEdited bool
	Edits          map[int]JointEdit
}

// Clone returns a copy that shares no state with r.
func (r FrameRecord) Clone() FrameRecord {
	r.Edits = maps.Clone(r.Edits)
	return r
}

// Effective returns the raw sets with the edit overlay applied.
func (r FrameRecord) Effective() (landmark.Set, landmark.Set) {
	image, world := r.Image, r.World
	for i, e := range r.Edits {
		image.Put(i, e.Image)
		if e.HasWorld {
			world.Put(i, e.World)
		}
	}
	return image, world
}

// EditJoint moves joint to (x, y) in normalized image space, clamped to
// [0,1]. The world joint, when present, moves by the same delta times scale
// with Y inverted; its Z is kept. Only raw joints that are displayed and
// were detected can be edited.
func (r *FrameRecord) EditJoint(joint int, x, y, scale float64) (JointEdit, error) {
	if !landmark.IsRaw(joint) || landmark.IsExcluded(joint) {
		return JointEdit{}, fmt.Errorf("%w: %d", ErrInvalidJoint, joint)
	}
	image, world := r.Effective()
	cur, ok := image.Get(joint)
	if !ok {
		return JointEdit{}, fmt.Errorf("%w: %s", ErrJointNotDetected, landmark.Name(joint))
	}
	next := cur
	next.Position.X = clamp01(x)
	next.Position.Y = clamp01(y)
	edit := JointEdit{Image: next}
	if w, ok := world.Get(joint); ok {
		w.Position.X += (next.Position.X - cur.Position.X) * scale
		w.Position.Y -= (next.Position.Y - cur.Position.Y) * scale
		edit.World = w
		edit.HasWorld = true
	}
	if r.Edits == nil {
		r.Edits = make(map[int]JointEdit)
	}
	r.Edits[joint] = edit
	r.ManuallyEdited = true
	return edit, nil
}

// ResetEdits drops the overlay and the edited flag.
func (r *FrameRecord) ResetEdits() {
	r.Edits = nil
	r.ManuallyEdited = false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
