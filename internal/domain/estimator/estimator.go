// Package estimator defines the boundary to the pose-estimation model.
//
// The model itself is external. Synthetic stands in for it in tooling and
// tests: it produces a plausible standing figure that sways over time,
// with simulated inference latency and occasional occlusions.
package estimator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/posecom/internal/domain/landmark"
)

// Default synthetic estimator configuration.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 60 * time.Millisecond
	defaultRandomSeed = 42
	defaultJitter     = 0.004
	worldScale        = 1.8 // meters spanned by the normalized frame
)

// Frame is a decoded media frame handed to the estimator. Only its timing and
// geometry matter to the pipeline; pixel data stays with the host.
type Frame struct {
	Timestamp float64
	Width     int
	Height    int
}

// Result is the estimator output for one frame: 33 normalized image joints
// and, when the model provides them, 33 metric world joints.
type Result struct {
	Image []landmark.Joint
	World []landmark.Joint
}

// Estimator runs pose estimation on a frame.
type Estimator interface {
	// Estimate honors ctx for cancellation.
	Estimate(ctx context.Context, f Frame) (Result, error)
}

// Option applies a configuration option to the Synthetic estimator.
type Option func(*Synthetic)

// WithLatencyRange sets the simulated inference latency. A zero range
// disables the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Synthetic) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed makes the generated poses reproducible under a given seed.
func WithSeed(seed int64) Option {
	return func(s *Synthetic) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible synthetic data
	}
}

// WithOcclusionRate sets the probability that a joint is reported with low
// visibility.
func WithOcclusionRate(p float64) Option {
	return func(s *Synthetic) {
		if p >= 0 && p <= 1 {
			s.occlusion = p
		}
	}
}

// WithFailureRate sets the probability that Estimate fails.
func WithFailureRate(p float64) Option {
	return func(s *Synthetic) {
		if p >= 0 && p <= 1 {
			s.failure = p
		}
	}
}

// WithoutWorld drops world landmarks from results.
func WithoutWorld() Option {
	return func(s *Synthetic) { s.noWorld = true }
}

// Synthetic implements Estimator with generated poses.
type Synthetic struct {
	mu         sync.Mutex
	rng        *rand.Rand
	minLatency time.Duration
	maxLatency time.Duration
	occlusion  float64
	failure    float64
	noWorld    bool
}

// NewSynthetic creates a synthetic estimator.
func NewSynthetic(opts ...Option) *Synthetic {
	s := &Synthetic{
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Estimate generates the pose at f.Timestamp.
func (s *Synthetic) Estimate(ctx context.Context, f Frame) (Result, error) {
	s.mu.Lock()
	latency := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		latency += time.Duration(s.rng.Int63n(int64(span)))
	}
	fail := s.failure > 0 && s.rng.Float64() < s.failure
	image, world := s.pose(f.Timestamp)
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(latency):
		}
	} else if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if fail {
		return Result{}, fmt.Errorf("%w at t=%.3fs", ErrEstimationFailed, f.Timestamp)
	}
	res := Result{Image: image}
	if !s.noWorld {
		res.World = world
	}
	return res, nil
}

// pose must be called with s.mu held.
func (s *Synthetic) pose(t float64) ([]landmark.Joint, []landmark.Joint) {
	swayX := 0.03 * math.Sin(2*math.Pi*0.5*t)
	swayY := 0.01 * math.Sin(2*math.Pi*1.0*t)
	image := make([]landmark.Joint, landmark.RawCount)
	world := make([]landmark.Joint, landmark.RawCount)
	for i, b := range standing {
		x := b[0] + swayX + s.rng.NormFloat64()*defaultJitter
		y := b[1] + swayY + s.rng.NormFloat64()*defaultJitter
		z := b[2] + s.rng.NormFloat64()*defaultJitter
		vis := 0.85 + 0.15*s.rng.Float64()
		if s.occlusion > 0 && s.rng.Float64() < s.occlusion {
			vis = 0.05 + 0.2*s.rng.Float64()
		}
		image[i] = landmark.NewJoint(x, y, z, vis)
		world[i] = landmark.NewJoint((x-0.5)*worldScale, (y-0.55)*worldScale, z*worldScale, vis)
	}
	return image, world
}

// standing is a front-facing neutral pose in normalized image coordinates.
// The subject's left side appears on the right of the image.
var standing = [landmark.RawCount][3]float64{
	{0.500, 0.150, -0.10}, // nose
	{0.510, 0.135, -0.09},
	{0.520, 0.135, -0.09},
	{0.530, 0.135, -0.09},
	{0.490, 0.135, -0.09},
	{0.480, 0.135, -0.09},
	{0.470, 0.135, -0.09},
	{0.545, 0.145, -0.04}, // left ear
	{0.455, 0.145, -0.04}, // right ear
	{0.510, 0.170, -0.08},
	{0.490, 0.170, -0.08},
	{0.580, 0.250, 0.00}, // left shoulder
	{0.420, 0.250, 0.00},
	{0.600, 0.380, 0.01}, // left elbow
	{0.400, 0.380, 0.01},
	{0.610, 0.500, -0.02}, // left wrist
	{0.390, 0.500, -0.02},
	{0.615, 0.530, -0.03},
	{0.385, 0.530, -0.03},
	{0.612, 0.535, -0.03}, // left index
	{0.388, 0.535, -0.03},
	{0.605, 0.520, -0.03},
	{0.395, 0.520, -0.03},
	{0.555, 0.520, 0.00}, // left hip
	{0.445, 0.520, 0.00},
	{0.560, 0.700, 0.01}, // left knee
	{0.440, 0.700, 0.01},
	{0.560, 0.870, 0.03}, // left ankle
	{0.440, 0.870, 0.03},
	{0.555, 0.890, 0.05}, // left heel
	{0.445, 0.890, 0.05},
	{0.570, 0.900, -0.03}, // left foot index
	{0.430, 0.900, -0.03},
}
