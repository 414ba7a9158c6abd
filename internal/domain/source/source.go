// Package source feeds estimator results into the pipeline one frame at a
// time. A FrameSource is pulled by Drive, which hands each sample to a Sink
// synchronously; nothing is processed ahead of the consumer.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/pkg/logger"
	"github.com/okian/posecom/pkg/metrics"
)

// Sample is one frame's estimator output.
type Sample struct {
	DetectionID string
	Timestamp   float64
	Image       []landmark.Joint
	World       []landmark.Joint
}

// FrameSource yields samples in playback order. Next returns io.EOF when
// the source is exhausted. A *SkipError means this frame produced no
// sample and the next call may succeed.
type FrameSource interface {
	Next(ctx context.Context) (Sample, error)
}

// SkipError reports a frame that could not be estimated.
type SkipError struct {
	Timestamp float64
	Err       error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("frame at %.3fs skipped: %v", e.Timestamp, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Sink consumes samples.
type Sink interface {
	Submit(ctx context.Context, s Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, s Sample) error

// Submit calls f.
func (f SinkFunc) Submit(ctx context.Context, s Sample) error { return f(ctx, s) }

// Stats summarizes a Drive run.
type Stats struct {
	Frames  int
	Skipped int
	Elapsed time.Duration
}

type driveOptions struct {
	interval time.Duration
	logger   logger.Logger
}

// DriveOption configures Drive.
type DriveOption func(*driveOptions)

// WithInterval paces Drive to at most one sample per interval.
func WithInterval(d time.Duration) DriveOption {
	return func(o *driveOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithRate paces Drive to fps samples per second.
func WithRate(fps float64) DriveOption {
	return func(o *driveOptions) {
		if fps > 0 {
			o.interval = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithLogger sets the logger used for skipped frames.
func WithLogger(l logger.Logger) DriveOption {
	return func(o *driveOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Drive pulls src until it is exhausted and submits every sample to sink.
// Skipped frames are logged and counted; there is no retry. Any other
// source or sink error stops the run.
func Drive(ctx context.Context, src FrameSource, sink Sink, opts ...DriveOption) (Stats, error) {
	o := driveOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("source")
	}

	var (
		st    Stats
		start = time.Now()
		tick  <-chan time.Time
	)
	if o.interval > 0 {
		t := time.NewTicker(o.interval)
		defer t.Stop()
		tick = t.C
	}
	done := func(err error) (Stats, error) {
		st.Elapsed = time.Since(start)
		return st, err
	}

	for first := true; ; first = false {
		if tick != nil && !first {
			select {
			case <-ctx.Done():
				return done(ctx.Err())
			case <-tick:
			}
		}
		s, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return done(nil)
		}
		var skip *SkipError
		if errors.As(err, &skip) {
			st.Skipped++
			metrics.RecordEstimatorError()
			o.logger.Warn(ctx, "frame skipped",
				logger.Float64("timestamp", skip.Timestamp),
				logger.Error(skip.Err),
			)
			continue
		}
		if err != nil {
			return done(fmt.Errorf("read frame: %w", err))
		}
		if err := sink.Submit(ctx, s); err != nil {
			return done(fmt.Errorf("submit frame at %.3fs: %w", s.Timestamp, err))
		}
		st.Frames++
	}
}
