package replay

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"

	service "github.com/okian/posecom/internal/app"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/source"
	"github.com/okian/posecom/pkg/logger"
)

// RunOffline runs every sample through an in-process session and writes
// the export to c.Output.
func RunOffline(ctx context.Context, c Config) (Report, error) {
	if err := c.Validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("replay")

	cfg := service.DefaultSessionConfig()
	cfg.Mode, cfg.Sex = c.Mode, c.Sex
	sess, err := service.NewSession("offline", c.Media, cfg)
	if err != nil {
		return Report{}, err
	}

	src, closer, err := openSource(c)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = closer.Close() }()

	rep := Report{SessionID: sess.ID()}
	sink := source.SinkFunc(func(ctx context.Context, s source.Sample) error {
		d := model.Detection{
			SessionID:   sess.ID(),
			DetectionID: s.DetectionID,
			Timestamp:   s.Timestamp,
			Image:       s.Image,
			World:       s.World,
		}
		if err := d.Validate(); err != nil {
			rep.Rejected++
			log.Warn(ctx, "detection rejected", logger.Float64("timestamp", s.Timestamp), logger.Error(err))
			return nil
		}
		if _, err := sess.Apply(ctx, d); err != nil {
			return err
		}
		rep.Accepted++
		return nil
	})

	rep.Drive, err = source.Drive(ctx, src, sink, append(c.driveOptions(), source.WithLogger(log))...)
	if err != nil {
		return rep, err
	}

	doc, err := sess.Document(ctx)
	if err != nil {
		return rep, err
	}
	rep.Frames = doc.Summaries()

	if c.Output != "" {
		if err := writeFile(c.Output, func(f *os.File) error { return sess.Export(ctx, c.Format, f) }); err != nil {
			return rep, err
		}
		rep.Output = c.Output
	}
	log.Info(ctx, "offline replay finished",
		logger.Int("frames", rep.Drive.Frames),
		logger.Int("stored", len(rep.Frames)),
		logger.Duration("elapsed", rep.Drive.Elapsed),
	)
	return rep, nil
}

func writeFile(path string, fn func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return fn(f)
}
