package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)
			manager.detectionsAccepted.Inc()
			manager.exports.WithLabelValues("csv").Inc()

			Convey("Then its collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
				}
			})
		})

		Convey("When two managers share it", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When pipeline reports are recorded", func() {
			before := testutil.ToFloat64(globalManager.mirrorFills.WithLabelValues("image"))
			missing := testutil.ToFloat64(globalManager.wholeBodyMissing.WithLabelValues("world"))
			RecordPipelineReport("image", 3, 14, true)
			RecordPipelineReport("world", 0, 0, false)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.mirrorFills.WithLabelValues("image")), ShouldEqual, before+3)
				So(testutil.ToFloat64(globalManager.wholeBodyMissing.WithLabelValues("world")), ShouldEqual, missing+1)
			})
		})

		Convey("When a pinned frame is stored", func() {
			stored := testutil.ToFloat64(globalManager.framesStored)
			pinned := testutil.ToFloat64(globalManager.framesPinned)
			RecordFrameStored(true)
			RecordFrameStored(false)

			Convey("Then both counters reflect it", func() {
				So(testutil.ToFloat64(globalManager.framesStored), ShouldEqual, stored+2)
				So(testutil.ToFloat64(globalManager.framesPinned), ShouldEqual, pinned+1)
			})
		})

		Convey("When gauges are set", func() {
			UpdateActiveSessions(4)
			UpdateQueueSize(7)
			UpdateWorkerCount(1)

			Convey("Then they hold the value", func() {
				So(testutil.ToFloat64(globalManager.activeSessions), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 1)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordDetectionAccepted()
				RecordDetectionDuplicate()
				RecordDetectionRejected("backpressure")
				RecordEstimatorError()
				RecordPipelineLatency(0.3)
				AddFrames(2)
				AddFrames(-2)
				RecordJointEdit()
				RecordExport("xlsx", 12)
				RecordExportError("xlsx")
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(0)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				RecordHTTPRequest("/sessions", "POST", "201")
				RecordHTTPRequestDuration("/sessions", "POST", "201", 3)
				RecordErrorByComponent("export", "no_data")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.jointEdits)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					RecordJointEdit()
				}
			}()
		}
		wg.Wait()
		So(testutil.ToFloat64(globalManager.jointEdits), ShouldEqual, before+500)
	})

	Convey("Given the custom registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
	})
}
