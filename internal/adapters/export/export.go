// Package export renders a session's frames as JSON, CSV or an XLSX
// workbook. Every frame is re-run through the biomech pipeline and projected
// with the session's current mode and calibration at export time.
package export

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
)

// Snapshot is the session state an export is built from.
type Snapshot struct {
	Media       model.Media
	Mode        calibration.Mode
	Sex         biomech.Sex
	Calibration calibration.State
	Frames      []model.FrameRecord

	// Threshold gates the pipeline; ExportThreshold gates what is written.
	Threshold       float64
	ExportThreshold float64
	ExportedAt      time.Time
}

// Frame is one extended, projected frame.
type Frame struct {
	Index          int
	Timestamp      float64
	ManuallyEdited bool
	Image          landmark.Set
	World          landmark.Set
	Display        [landmark.Count]*calibration.Coordinate
	Report         biomech.Report
}

// Document is a fully derived export, ready for any Format.
type Document struct {
	Media       model.Media
	Mode        calibration.Mode
	Sex         biomech.Sex
	Calibration calibration.State
	Threshold   float64
	ExportedAt  time.Time
	Frames      []Frame
}

// Build derives every frame of snap. An empty snapshot returns ErrNoData.
func Build(snap Snapshot) (Document, error) {
	if len(snap.Frames) == 0 {
		return Document{}, ErrNoData
	}
	if snap.ExportThreshold <= 0 {
		snap.ExportThreshold = biomech.DefaultThreshold
	}
	if snap.ExportedAt.IsZero() {
		snap.ExportedAt = time.Now()
	}
	frames := slices.Clone(snap.Frames)
	slices.SortFunc(frames, func(a, b model.FrameRecord) int { return cmp.Compare(a.FrameIndex, b.FrameIndex) })

	proj := calibration.NewProjector(snap.Mode, snap.Calibration, float64(snap.Media.Width), float64(snap.Media.Height))
	opts := biomech.Options{Sex: snap.Sex, Threshold: snap.Threshold}

	doc := Document{
		Media:       snap.Media,
		Mode:        snap.Mode,
		Sex:         snap.Sex,
		Calibration: snap.Calibration,
		Threshold:   snap.ExportThreshold,
		ExportedAt:  snap.ExportedAt,
		Frames:      make([]Frame, 0, len(frames)),
	}
	for _, rec := range frames {
		doc.Frames = append(doc.Frames, Extend(rec, proj, opts))
	}
	return doc, nil
}

// Extend runs the pipeline on rec's effective landmarks and projects every
// derived slot.
func Extend(rec model.FrameRecord, proj calibration.Projector, opts biomech.Options) Frame {
	image, world := rec.Effective()
	res := biomech.Extend(image, world, opts)
	f := Frame{
		Index:          rec.FrameIndex,
		Timestamp:      rec.Timestamp,
		ManuallyEdited: rec.ManuallyEdited,
		Image:          res.Image,
		World:          res.World,
		Report:         res.Report,
	}
	for i := 0; i < landmark.Count; i++ {
		if c, ok := proj.Project(&f.Image, &f.World, i); ok {
			f.Display[i] = &c
		}
	}
	return f
}

// WorldAt returns the world joint of slot i with Y pointing up, the
// orientation every export writes.
func (f *Frame) WorldAt(i int) (landmark.Joint, bool) {
	j, ok := f.World.Get(i)
	if !ok {
		return landmark.Joint{}, false
	}
	j.Position.Y = -j.Position.Y
	return j, true
}

// Visible reports whether slot i is written: it must be an exported slot
// whose image joint meets threshold.
func (f *Frame) Visible(i int, threshold float64) bool {
	if landmark.IsExcluded(i) {
		return false
	}
	_, ok := f.Image.Present(i, threshold)
	return ok
}

// VisibleIndices lists the exported slots visible in f.
func (f *Frame) VisibleIndices(threshold float64) []int {
	return lo.Filter(landmark.Exported(), func(i int, _ int) bool {
		return f.Visible(i, threshold)
	})
}

// DisplayAt returns the display coordinate of slot i when it is visible.
func (f *Frame) DisplayAt(i int, threshold float64) (calibration.Coordinate, bool) {
	if !f.Visible(i, threshold) || f.Display[i] == nil {
		return calibration.Coordinate{}, false
	}
	return *f.Display[i], true
}

// TotalFrames is the number of frames the media holds.
func (d Document) TotalFrames() int {
	if d.Media.Kind != model.MediaVideo {
		return 1
	}
	return int(d.Media.Duration * d.Media.FPS)
}
