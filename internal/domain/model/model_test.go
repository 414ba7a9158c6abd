package model_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/posecom/internal/domain/landmark"
	model "github.com/okian/posecom/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func raw(vis float64) []landmark.Joint {
	out := make([]landmark.Joint, landmark.RawCount)
	for i := range out {
		out[i] = landmark.NewJoint(0.5, 0.5, 0.1, vis)
	}
	return out
}

func TestMedia(t *testing.T) {
	convey.Convey("Given a 30 fps video", t, func() {
		m := model.Media{Kind: model.MediaVideo, FPS: 30, Duration: 10, Width: 1920, Height: 1080}

		convey.Convey("Then frame indices floor timestamp times fps", func() {
			convey.So(m.Validate(), convey.ShouldBeNil)
			convey.So(m.FrameIndex(0), convey.ShouldEqual, 0)
			convey.So(m.FrameIndex(1.0), convey.ShouldEqual, 30)
			convey.So(m.FrameIndex(1.049), convey.ShouldEqual, 31)
		})
	})

	convey.Convey("Given an image", t, func() {
		m := model.Media{Kind: model.MediaImage, Width: 800, Height: 600}

		convey.Convey("Then every timestamp maps to frame 0", func() {
			convey.So(m.Validate(), convey.ShouldBeNil)
			convey.So(m.FrameIndex(12.5), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given invalid media", t, func() {
		convey.So(errors.Is(model.Media{Kind: model.MediaVideo, Width: 1, Height: 1}.Validate(), model.ErrInvalidMedia), convey.ShouldBeTrue)
		convey.So(errors.Is(model.Media{Kind: "audio", Width: 1, Height: 1}.Validate(), model.ErrInvalidMedia), convey.ShouldBeTrue)
		convey.So(errors.Is(model.Media{Kind: model.MediaImage}.Validate(), model.ErrInvalidMedia), convey.ShouldBeTrue)
	})
}

func TestDetection(t *testing.T) {
	convey.Convey("Given a detection without world joints", t, func() {
		d := model.Detection{Timestamp: 0.5, Image: raw(0.9)}

		convey.Convey("Then it validates and builds a record", func() {
			convey.So(d.Validate(), convey.ShouldBeNil)
			rec := d.Record(model.Media{Kind: model.MediaVideo, FPS: 10, Width: 1, Height: 1})
			convey.So(rec.FrameIndex, convey.ShouldEqual, 5)
			convey.So(rec.Image.Len(), convey.ShouldEqual, landmark.RawCount)
			convey.So(rec.World.Empty(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a detection with the wrong joint count", t, func() {
		d := model.Detection{Image: raw(1)[:10]}
		convey.So(errors.Is(d.Validate(), model.ErrInvalidDetection), convey.ShouldBeTrue)
	})

	convey.Convey("Given timestamps far past any real video", t, func() {
		video := model.Media{Kind: model.MediaVideo, FPS: 30, Duration: 10, Width: 1, Height: 1}
		huge := model.Detection{Timestamp: 1e300, Image: raw(0.9)}

		convey.Convey("Then they are rejected before a frame index is computed", func() {
			convey.So(huge.Validate(), convey.ShouldBeNil)
			convey.So(errors.Is(huge.ValidateFor(video), model.ErrInvalidDetection), convey.ShouldBeTrue)

			inf := model.Detection{Timestamp: math.Inf(1), Image: raw(0.9)}
			convey.So(errors.Is(inf.Validate(), model.ErrInvalidDetection), convey.ShouldBeTrue)
		})

		convey.Convey("Then the last representable frame is still accepted", func() {
			slow := model.Media{Kind: model.MediaVideo, FPS: 1, Width: 1, Height: 1}
			edge := model.Detection{Timestamp: float64(model.MaxFrameIndex), Image: raw(0.9)}
			convey.So(edge.ValidateFor(slow), convey.ShouldBeNil)
			convey.So(edge.Record(slow).FrameIndex, convey.ShouldEqual, model.MaxFrameIndex)

			edge.Timestamp++
			convey.So(errors.Is(edge.ValidateFor(slow), model.ErrInvalidDetection), convey.ShouldBeTrue)
		})

		convey.Convey("Then an image ignores the timestamp", func() {
			image := model.Media{Kind: model.MediaImage, Width: 1, Height: 1}
			convey.So(huge.ValidateFor(image), convey.ShouldBeNil)
			convey.So(huge.Record(image).FrameIndex, convey.ShouldEqual, 0)
		})
	})
}

func TestEditJoint(t *testing.T) {
	convey.Convey("Given a frame with both sets", t, func() {
		rec := model.FrameRecord{Image: landmark.FromRaw(raw(0.9)), World: landmark.FromRaw(raw(0.9))}

		convey.Convey("When the left knee is dragged", func() {
			edit, err := rec.EditJoint(landmark.LeftKnee, 0.6, 0.4, model.DefaultEditScale)

			convey.Convey("Then the overlay holds the new joint", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.ManuallyEdited, convey.ShouldBeTrue)
				convey.So(edit.Image.Position.X, convey.ShouldEqual, 0.6)
				convey.So(edit.World.Position.X, convey.ShouldAlmostEqual, 0.7)
				convey.So(edit.World.Position.Y, convey.ShouldAlmostEqual, 0.7)
				convey.So(edit.World.Position.Z, convey.ShouldEqual, 0.1)
			})

			convey.Convey("Then the raw detection is kept", func() {
				j, _ := rec.Image.Get(landmark.LeftKnee)
				convey.So(j.Position.X, convey.ShouldEqual, 0.5)
				image, _ := rec.Effective()
				j, _ = image.Get(landmark.LeftKnee)
				convey.So(j.Position.X, convey.ShouldEqual, 0.6)
			})

			convey.Convey("Then resetting drops the overlay and flag", func() {
				rec.ResetEdits()
				convey.So(rec.ManuallyEdited, convey.ShouldBeFalse)
				image, _ := rec.Effective()
				j, _ := image.Get(landmark.LeftKnee)
				convey.So(j.Position.X, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When a coordinate is out of range", func() {
			edit, err := rec.EditJoint(landmark.RightAnkle, 1.7, -0.2, model.DefaultEditScale)
			convey.So(err, convey.ShouldBeNil)
			convey.So(edit.Image.Position.X, convey.ShouldEqual, 1)
			convey.So(edit.Image.Position.Y, convey.ShouldEqual, 0)
		})

		convey.Convey("When an excluded or derived joint is edited", func() {
			_, err := rec.EditJoint(landmark.Nose, 0.1, 0.1, 2)
			convey.So(errors.Is(err, model.ErrInvalidJoint), convey.ShouldBeTrue)
			_, err = rec.EditJoint(landmark.MidHip, 0.1, 0.1, 2)
			convey.So(errors.Is(err, model.ErrInvalidJoint), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a frame where a joint was not detected", t, func() {
		var rec model.FrameRecord
		_, err := rec.EditJoint(landmark.LeftHip, 0.5, 0.5, 2)
		convey.So(errors.Is(err, model.ErrJointNotDetected), convey.ShouldBeTrue)
	})

	convey.Convey("Given a cloned record", t, func() {
		rec := model.FrameRecord{Image: landmark.FromRaw(raw(1))}
		_, _ = rec.EditJoint(landmark.LeftHip, 0.2, 0.2, 2)
		c := rec.Clone()
		_, _ = c.EditJoint(landmark.RightHip, 0.8, 0.2, 2)
		convey.So(rec.Edits, convey.ShouldHaveLength, 1)
		convey.So(c.Edits, convey.ShouldHaveLength, 2)
	})
}
