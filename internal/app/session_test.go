package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/adapters/repository"
	service "github.com/okian/posecom/internal/app"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func detection(ts float64) model.Detection {
	req := detectionRequest("", ts)
	image, world := req.Joints()
	return model.Detection{SessionID: "s", Timestamp: ts, Image: image, World: world}
}

func TestSession(t *testing.T) {
	Convey("Given a video session", t, func() {
		ctx := context.Background()
		media := model.Media{Kind: model.MediaVideo, FPS: 10, Duration: 2, Width: 640, Height: 480}
		sess, err := service.NewSession("s", media, service.DefaultSessionConfig())
		So(err, ShouldBeNil)

		Convey("When a detection's timestamp overflows the frame index", func() {
			_, err := sess.Apply(ctx, detection(1e300))
			So(errors.Is(err, model.ErrInvalidDetection), ShouldBeTrue)
			So(sess.Frames(ctx), ShouldEqual, 0)
		})

		Convey("When a full detection is applied", func() {
			frame, err := sess.Apply(ctx, detection(0.25))
			So(err, ShouldBeNil)
			So(frame, ShouldEqual, 2)

			Convey("Then the view holds all 50 slots", func() {
				v, err := sess.View(ctx, 2)
				So(err, ShouldBeNil)
				So(v.Landmarks, ShouldHaveLength, landmark.Count)
				So(v.MirroredJoints, ShouldBeEmpty)
				So(v.SegmentCOMs, ShouldEqual, 14)
				last := v.Landmarks[len(v.Landmarks)-1]
				So(last.Name, ShouldEqual, "Total_Body_COM")
				So(last.Landmark3D, ShouldNotBeNil)
				So(last.DisplayCoordinate, ShouldNotBeNil)
				So(last.DisplayCoordinate.Z, ShouldBeNil)
			})

			Convey("And 3D mode projects world coordinates", func() {
				sess.SetMode(calibration.Mode3D)
				v, _ := sess.View(ctx, 2)
				So(v.Landmarks[landmark.Nose].DisplayCoordinate.Z, ShouldNotBeNil)
				So(v.Landmarks[landmark.Nose].DisplayCoordinate.Y, ShouldEqual, v.Landmarks[landmark.Nose].Landmark3D.Position.Y)
			})

			Convey("And world landmarks are reported with Y pointing up", func() {
				raw := detection(0.25).World[landmark.LeftShoulder]
				v, _ := sess.View(ctx, 2)
				w := v.Landmarks[landmark.LeftShoulder].Landmark3D
				So(w, ShouldNotBeNil)
				So(w.Position.Y, ShouldEqual, -raw.Position.Y)
				So(w.Position.X, ShouldEqual, raw.Position.X)
				So(w.Position.Z, ShouldEqual, raw.Position.Z)
			})

			Convey("And a hand edit survives a new detection for the same frame", func() {
				v, err := sess.EditJoint(ctx, 2, landmark.LeftWrist, 0.9, 0.1)
				So(err, ShouldBeNil)
				So(v.ManuallyEdited, ShouldBeTrue)
				So(v.Landmarks[landmark.LeftWrist].Edited, ShouldBeTrue)

				_, err = sess.Apply(ctx, detection(0.29))
				So(err, ShouldBeNil)
				v, _ = sess.View(ctx, 2)
				So(v.ManuallyEdited, ShouldBeTrue)
				So(v.Landmarks[landmark.LeftWrist].Landmark2D.Position.X, ShouldEqual, 0.9)
				So(v.Landmarks[landmark.LeftWrist].Landmark2D.Position.Y, ShouldEqual, 0.1)

				Convey("And resetting edits restores the detection", func() {
					v, err := sess.ResetEdits(ctx, 2)
					So(err, ShouldBeNil)
					So(v.ManuallyEdited, ShouldBeFalse)
					So(v.Landmarks[landmark.LeftWrist].Landmark2D.Position.X, ShouldNotEqual, 0.9)
				})
			})

			Convey("And excluded joints cannot be edited", func() {
				_, err := sess.EditJoint(ctx, 2, landmark.LeftThumb, 0.5, 0.5)
				So(errors.Is(err, model.ErrInvalidJoint), ShouldBeTrue)
				_, err = sess.EditJoint(ctx, 9, landmark.LeftWrist, 0.5, 0.5)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And exporting writes the frame", func() {
				var buf bytes.Buffer
				So(sess.Export(ctx, export.FormatJSON, &buf), ShouldBeNil)
				var doc map[string]any
				So(json.Unmarshal(buf.Bytes(), &doc), ShouldBeNil)
				So(doc, ShouldContainKey, "poseData")

				sums, err := sess.Summaries(ctx)
				So(err, ShouldBeNil)
				So(sums, ShouldHaveLength, 1)
				So(sums[0].DetectedJoints, ShouldBeGreaterThan, 0)
			})

			Convey("And loading new media clears frames and calibration", func() {
				c := calibration.State{Point1: r2.Point{X: 0.1, Y: 0.5}, Point2: r2.Point{X: 0.1, Y: 1}, ScaleMeters: 1}
				So(sess.SetCalibration(c), ShouldBeNil)
				So(sess.Calibration(), ShouldResemble, c)

				So(sess.SetMedia(ctx, model.Media{Kind: model.MediaImage, Width: 100, Height: 100}), ShouldBeNil)
				So(sess.Frames(ctx), ShouldEqual, 0)
				So(sess.Calibration(), ShouldResemble, calibration.Default())
			})

			Convey("And clearing drops every frame", func() {
				So(sess.Clear(ctx), ShouldEqual, 1)
				_, err := sess.View(ctx, 2)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the sex changes", func() {
			_, _ = sess.Apply(ctx, detection(0))
			male, _ := sess.View(ctx, 0)
			sess.SetSex(biomech.Female)
			female, _ := sess.View(ctx, 0)
			So(female.Landmarks[landmark.TotalBodyCOM].Landmark2D, ShouldNotResemble, male.Landmarks[landmark.TotalBodyCOM].Landmark2D)
			So(sess.Info(ctx).Sex, ShouldEqual, "female")
		})

		Convey("When exporting an empty session", func() {
			var buf bytes.Buffer
			err := sess.Export(ctx, export.FormatCSV, &buf)
			So(errors.Is(err, export.ErrNoData), ShouldBeTrue)
		})

		Convey("When the calibration is invalid", func() {
			err := sess.SetCalibration(calibration.State{ScaleMeters: -1})
			So(errors.Is(err, calibration.ErrInvalidCalibration), ShouldBeTrue)
		})
	})
}
