package replay

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/posecom/internal/domain/estimator"
	"github.com/okian/posecom/internal/domain/source"
)

// openSource returns the frame source for c and a closer for any file it
// opened.
func openSource(c Config) (source.FrameSource, io.Closer, error) {
	if c.Input == "" {
		opts := []estimator.Option{
			estimator.WithSeed(c.Seed),
			estimator.WithLatencyRange(0, 0),
			estimator.WithOcclusionRate(c.OcclusionRate),
			estimator.WithFailureRate(c.FailureRate),
		}
		if c.NoWorld {
			opts = append(opts, estimator.WithoutWorld())
		}
		return source.NewEstimatorSource(estimator.NewSynthetic(opts...), c.Media, c.Rate), nopCloser{}, nil
	}
	f, err := os.Open(c.Input)
	if err != nil {
		return nil, nil, fmt.Errorf("open detections: %w", err)
	}
	return source.NewJSONLinesSource(f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
