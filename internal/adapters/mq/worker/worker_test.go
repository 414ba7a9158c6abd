package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/posecom/internal/adapters/mq/queue"
	"github.com/okian/posecom/internal/adapters/mq/worker"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	fail string
}

func (r *recorder) Process(_ context.Context, d model.Detection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.DetectionID == r.fail {
		return errors.New("boom")
	}
	r.seen = append(r.seen, d.DetectionID)
	return nil
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestPool(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	ctx := context.Background()

	Convey("Given a single-worker pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		rec := &recorder{fail: "bad"}
		p := worker.NewPool(1, q, rec)
		p.Start(ctx)

		Convey("When detections are queued and the pool shuts down", func() {
			for i := 0; i < 5; i++ {
				So(q.Enqueue(ctx, model.Detection{DetectionID: fmt.Sprint(i)}), ShouldBeNil)
			}
			So(q.Enqueue(ctx, model.Detection{DetectionID: "bad"}), ShouldBeNil)
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then every detection was processed in order and the failure skipped", func() {
				So(rec.ids(), ShouldResemble, []string{"0", "1", "2", "3", "4"})
				So(p.Size(), ShouldEqual, 1)
				So(p.Active(), ShouldEqual, 0)
			})

			Convey("Then the queue refuses new work", func() {
				So(errors.Is(q.Enqueue(ctx, model.Detection{}), queue.ErrClosed), ShouldBeTrue)
				So(p.Shutdown(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a pool with a non-positive size", t, func() {
		p := worker.NewPool(0, queue.NewInMemoryQueue(), &recorder{})
		So(p.Size(), ShouldEqual, 1)
	})

	Convey("Given a worker stopped explicitly", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, model.Detection) error { return nil }),
			worker.WithName("solo"))
		go w.Run(ctx)

		sctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		So(w.Shutdown(sctx), ShouldBeNil)
		<-w.Done()
	})
}
