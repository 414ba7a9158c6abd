package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/okian/posecom/internal/domain/estimator"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/types"
)

// SliceSource replays a fixed list of samples.
type SliceSource struct {
	samples []Sample
	next    int
}

// NewSliceSource creates a source over samples.
func NewSliceSource(samples ...Sample) *SliceSource {
	return &SliceSource{samples: samples}
}

func (s *SliceSource) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if s.next >= len(s.samples) {
		return Sample{}, io.EOF
	}
	out := s.samples[s.next]
	s.next++
	return out, nil
}

// JSONLinesSource reads recorded detections, one DetectionRequest per line.
// Blank lines are ignored.
type JSONLinesSource struct {
	sc   *bufio.Scanner
	line int
}

// NewJSONLinesSource creates a source reading from r.
func NewJSONLinesSource(r io.Reader) *JSONLinesSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &JSONLinesSource{sc: sc}
}

func (s *JSONLinesSource) Next(ctx context.Context) (Sample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Sample{}, err
		}
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return Sample{}, fmt.Errorf("line %d: %w", s.line+1, err)
			}
			return Sample{}, io.EOF
		}
		s.line++
		b := s.sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var req types.DetectionRequest
		if err := json.Unmarshal(b, &req); err != nil {
			return Sample{}, fmt.Errorf("%w: line %d: %v", ErrMalformed, s.line, err)
		}
		image, world := req.Joints()
		return Sample{DetectionID: req.DetectionID, Timestamp: req.Timestamp, Image: image, World: world}, nil
	}
}

// EstimatorSource steps through media at a fixed processing rate and runs
// the estimator on each step. Images yield a single frame.
type EstimatorSource struct {
	est   estimator.Estimator
	media model.Media
	step  float64
	n     int
	total int
}

// NewEstimatorSource creates a source sampling media at rate frames per second.
func NewEstimatorSource(est estimator.Estimator, media model.Media, rate float64) *EstimatorSource {
	if rate <= 0 {
		rate = DefaultRate
	}
	total := 1
	if media.Kind == model.MediaVideo {
		total = int(math.Floor(media.Duration*rate)) + 1
	}
	return &EstimatorSource{est: est, media: media, step: 1 / rate, total: total}
}

func (s *EstimatorSource) Next(ctx context.Context) (Sample, error) {
	if s.n >= s.total {
		return Sample{}, io.EOF
	}
	ts := float64(s.n) * s.step
	if s.media.Kind == model.MediaVideo && ts > s.media.Duration+1e-9 {
		return Sample{}, io.EOF
	}
	s.n++
	res, err := s.est.Estimate(ctx, estimator.Frame{Timestamp: ts, Width: s.media.Width, Height: s.media.Height})
	if err != nil {
		if ctx.Err() != nil {
			return Sample{}, ctx.Err()
		}
		return Sample{}, &SkipError{Timestamp: ts, Err: err}
	}
	return Sample{
		DetectionID: fmt.Sprintf("est-%06d", s.n-1),
		Timestamp:   ts,
		Image:       res.Image,
		World:       res.World,
	}, nil
}
