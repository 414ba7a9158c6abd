package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/posecom/internal/adapters/http/api"
	service "github.com/okian/posecom/internal/app"
	"github.com/okian/posecom/internal/domain/estimator"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/types"
	"github.com/okian/posecom/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(ctx context.Context, opts ...service.Option) (*httptest.Server, *service.Service) {
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return httptest.NewServer(mux), svc
}

func do(srv *httptest.Server, method, path string, body any) *http.Response {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	if err != nil {
		panic(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		panic(err)
	}
	return resp
}

func decodeBody[T any](resp *http.Response) T {
	defer func() { _ = resp.Body.Close() }()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		panic(err)
	}
	return v
}

func detection(id string, ts float64) types.DetectionRequest {
	est := estimator.NewSynthetic(estimator.WithSeed(3), estimator.WithLatencyRange(0, 0))
	res, err := est.Estimate(context.Background(), estimator.Frame{Timestamp: ts})
	if err != nil {
		panic(err)
	}
	return types.NewDetectionRequest(id, ts, res.Image, res.World)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv, svc := newTestServer(ctx)
		defer srv.Close()
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then /healthz reports ok", func() {
			resp := do(srv, http.MethodGet, "/healthz", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decodeBody[map[string]string](resp)["status"], ShouldEqual, "ok")
		})

		Convey("Then /stats reports the service state", func() {
			resp := do(srv, http.MethodGet, "/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			stats := decodeBody[map[string]any](resp)
			So(stats["started"], ShouldEqual, true)
			So(stats["sessions"], ShouldEqual, float64(0))
		})

		Convey("Then /metrics serves Prometheus text", func() {
			_ = do(srv, http.MethodGet, "/healthz", nil)
			resp := do(srv, http.MethodGet, "/metrics", nil)
			defer func() { _ = resp.Body.Close() }()
			b, _ := io.ReadAll(resp.Body)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(string(b), ShouldContainSubstring, "posecom_")
		})
	})
}

func TestSessionRoutes(t *testing.T) {
	Convey("Given a running API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv, svc := newTestServer(ctx)
		defer srv.Close()
		defer func() { _ = svc.Stop(ctx) }()

		create := types.CreateSessionRequest{
			MediaRequest: types.MediaRequest{Kind: "video", Name: "jump.mp4", FPS: 10, Duration: 3, Width: 640, Height: 480},
		}

		Convey("When a session is created", func() {
			resp := do(srv, http.MethodPost, "/sessions", create)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			sess := decodeBody[types.Session](resp)
			So(sess.ID, ShouldNotBeEmpty)
			So(sess.Mode, ShouldEqual, "2d")
			base := "/sessions/" + sess.ID

			Convey("Then it can be read and listed", func() {
				resp := do(srv, http.MethodGet, base, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(decodeBody[types.Session](resp).Media.Name, ShouldEqual, "jump.mp4")

				list := decodeBody[[]types.Session](do(srv, http.MethodGet, "/sessions", nil))
				So(list, ShouldHaveLength, 1)
			})

			Convey("Then its settings can be changed", func() {
				resp := do(srv, http.MethodPut, base+"/mode", types.ModeRequest{Mode: "3D"})
				So(decodeBody[types.Session](resp).Mode, ShouldEqual, "3d")

				resp = do(srv, http.MethodPut, base+"/sex", types.SexRequest{Sex: "female"})
				So(decodeBody[types.Session](resp).Sex, ShouldEqual, "female")

				cal := types.Calibration{Point1: types.Point{X: 0.1, Y: 0.5}, Point2: types.Point{X: 0.1, Y: 1}, ScaleMeters: 1}
				resp = do(srv, http.MethodPut, base+"/calibration", cal)
				So(decodeBody[types.Session](resp).Calibration, ShouldResemble, cal)
			})

			Convey("Then invalid settings are rejected", func() {
				resp := do(srv, http.MethodPut, base+"/mode", types.ModeRequest{Mode: "4d"})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(decodeBody[apiError](resp).Code, ShouldEqual, "bad_request")

				resp = do(srv, http.MethodPut, base+"/calibration", types.Calibration{ScaleMeters: 0})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then it can be deleted", func() {
				resp := do(srv, http.MethodDelete, base, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				resp = do(srv, http.MethodGet, base, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the body is not JSON", func() {
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/sessions", strings.NewReader("{"))
			resp, err := srv.Client().Do(req)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			_ = resp.Body.Close()
		})

		Convey("When the session is unknown", func() {
			resp := do(srv, http.MethodGet, "/sessions/nope/frames/0", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(decodeBody[apiError](resp).Code, ShouldEqual, "not_found")
		})
	})
}

func TestDetectionFlow(t *testing.T) {
	Convey("Given a session with a submitted detection", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv, svc := newTestServer(ctx)
		defer srv.Close()
		defer func() { _ = svc.Stop(ctx) }()

		create := types.CreateSessionRequest{
			MediaRequest: types.MediaRequest{Kind: "video", FPS: 10, Duration: 3, Width: 640, Height: 480},
		}
		sess := decodeBody[types.Session](do(srv, http.MethodPost, "/sessions", create))
		base := "/sessions/" + sess.ID

		resp := do(srv, http.MethodPost, base+"/detections", detection("d-1", 0.5))
		So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
		ack := decodeBody[types.DetectionAck](resp)
		So(ack.Frame, ShouldEqual, 5)

		var frameResp *http.Response
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			frameResp = do(srv, http.MethodGet, base+"/frames/5", nil)
			if frameResp.StatusCode == http.StatusOK {
				break
			}
			_ = frameResp.Body.Close()
			time.Sleep(5 * time.Millisecond)
		}
		So(frameResp.StatusCode, ShouldEqual, http.StatusOK)
		frame := decodeBody[types.Frame](frameResp)

		Convey("Then the frame view holds every slot", func() {
			So(frame.Landmarks, ShouldHaveLength, landmark.Count)
			So(frame.Landmarks[landmark.TotalBodyCOM].DisplayCoordinate, ShouldNotBeNil)
		})

		Convey("Then resubmitting the detection is a duplicate", func() {
			resp := do(srv, http.MethodPost, base+"/detections", detection("d-1", 0.5))
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decodeBody[types.DetectionAck](resp).Duplicate, ShouldBeTrue)
		})

		Convey("Then a malformed detection is rejected", func() {
			bad := detection("d-2", 0.6)
			bad.PoseLandmarks = bad.PoseLandmarks[:5]
			resp := do(srv, http.MethodPost, base+"/detections", bad)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then a joint can be edited by name and reset", func() {
			resp := do(srv, http.MethodPut, base+"/frames/5/joints/left_wrist", types.JointEditRequest{X: 0.2, Y: 0.3})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			edited := decodeBody[types.Frame](resp)
			So(edited.ManuallyEdited, ShouldBeTrue)
			So(edited.Landmarks[landmark.LeftWrist].Edited, ShouldBeTrue)

			resp = do(srv, http.MethodDelete, base+"/frames/5/edits", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(decodeBody[types.Frame](resp).ManuallyEdited, ShouldBeFalse)
		})

		Convey("Then editing a derived or unknown joint fails", func() {
			resp := do(srv, http.MethodPut, base+fmt.Sprintf("/frames/5/joints/%d", landmark.MidHip), types.JointEditRequest{X: 0.2, Y: 0.3})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			_ = resp.Body.Close()
			resp = do(srv, http.MethodPut, base+"/frames/5/joints/tail", types.JointEditRequest{X: 0.2, Y: 0.3})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			_ = resp.Body.Close()
			resp = do(srv, http.MethodGet, base+"/frames/x", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			_ = resp.Body.Close()
		})

		Convey("Then every export format is served", func() {
			for format, ctype := range map[string]string{
				"json": "application/json",
				"csv":  "text/csv",
				"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			} {
				resp := do(srv, http.MethodGet, base+"/export?format="+format, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldEqual, ctype)
				So(resp.Header.Get("Content-Disposition"), ShouldContainSubstring, "_pose_data."+format)
				_ = resp.Body.Close()
			}

			resp := do(srv, http.MethodGet, base+"/export?format=pdf", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			_ = resp.Body.Close()
		})

		Convey("Then the summary covers the stored frame", func() {
			resp := do(srv, http.MethodGet, base+"/summary", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			sums := decodeBody[[]map[string]any](resp)
			So(sums, ShouldHaveLength, 1)
			So(sums[0]["frame"], ShouldEqual, float64(5))
		})

		Convey("Then clearing frames leaves nothing to export", func() {
			resp := do(srv, http.MethodDelete, base+"/frames", nil)
			So(decodeBody[map[string]int](resp)["cleared"], ShouldEqual, 1)

			resp = do(srv, http.MethodGet, base+"/export", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(decodeBody[apiError](resp).Code, ShouldEqual, "no_data")
		})
	})
}
