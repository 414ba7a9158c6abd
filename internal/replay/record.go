package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"go.uber.org/multierr"

	"github.com/okian/posecom/internal/domain/source"
	"github.com/okian/posecom/internal/domain/types"
)

// Record writes every sample of c's source to w as JSON lines, the format
// Config.Input reads back.
func Record(ctx context.Context, c Config, w io.Writer) (source.Stats, error) {
	if err := c.Validate(); err != nil {
		return source.Stats{}, err
	}
	src, closer, err := openSource(c)
	if err != nil {
		return source.Stats{}, err
	}
	defer func() { _ = closer.Close() }()

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	st, err := source.Drive(ctx, src, source.SinkFunc(func(_ context.Context, s source.Sample) error {
		return enc.Encode(types.NewDetectionRequest(s.DetectionID, s.Timestamp, s.Image, s.World))
	}), c.driveOptions()...)
	return st, multierr.Append(err, bw.Flush())
}
