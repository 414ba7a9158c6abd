package replay

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/okian/posecom/internal/domain/source"
	"github.com/okian/posecom/internal/domain/types"
	"github.com/okian/posecom/pkg/logger"
)

const (
	submitAttempts = 3
	retryBackoff   = 50 * time.Millisecond
	pollInterval   = 50 * time.Millisecond
	settleTimeout  = 10 * time.Second
)

// RunRemote opens a session on the server at c.BaseURL, submits every
// sample, waits for the frames to be stored and downloads the export.
func RunRemote(ctx context.Context, c Config) (Report, error) {
	if err := c.Validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("replay")
	client := NewClient(c.BaseURL, c.Timeout)

	if err := client.Health(ctx); err != nil {
		return Report{}, err
	}
	sess, err := client.CreateSession(ctx, types.CreateSessionRequest{
		MediaRequest: types.MediaRequest{
			Kind:     string(c.Media.Kind),
			Name:     c.Media.Name,
			FPS:      c.Media.FPS,
			Duration: c.Media.Duration,
			Width:    c.Media.Width,
			Height:   c.Media.Height,
		},
		Mode: string(c.Mode),
		Sex:  c.Sex.String(),
	})
	if err != nil {
		return Report{}, err
	}
	log.Info(ctx, "session created", logger.String("session", sess.ID))

	src, closer, err := openSource(c)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = closer.Close() }()

	rep := Report{SessionID: sess.ID}
	frames := make(map[int]struct{})
	sink := source.SinkFunc(func(ctx context.Context, s source.Sample) error {
		req := types.NewDetectionRequest(s.DetectionID, s.Timestamp, s.Image, s.World)
		ack, err := submit(ctx, client, sess.ID, req)
		var se *StatusError
		switch {
		case err == nil && ack.Duplicate:
			rep.Duplicates++
		case err == nil:
			rep.Accepted++
			frames[ack.Frame] = struct{}{}
		case errors.As(err, &se) && se.Status < http.StatusInternalServerError:
			rep.Rejected++
			log.Warn(ctx, "detection rejected", logger.Float64("timestamp", s.Timestamp), logger.Error(err))
		default:
			return err
		}
		return nil
	})

	rep.Drive, err = source.Drive(ctx, src, sink, append(c.driveOptions(), source.WithLogger(log))...)
	if err != nil {
		return rep, err
	}
	if err := waitForFrames(ctx, client, sess.ID, len(frames)); err != nil {
		return rep, err
	}

	if rep.Frames, err = client.Summary(ctx, sess.ID); err != nil {
		return rep, err
	}
	if c.Output != "" {
		if err := writeFile(c.Output, func(f *os.File) error { return client.Export(ctx, sess.ID, c.Format, f) }); err != nil {
			return rep, err
		}
		rep.Output = c.Output
	}
	log.Info(ctx, "remote replay finished",
		logger.String("session", sess.ID),
		logger.Int("accepted", rep.Accepted),
		logger.Int("rejected", rep.Rejected),
	)
	return rep, nil
}

// submit retries a detection the server refused for backpressure.
func submit(ctx context.Context, client *Client, id string, req types.DetectionRequest) (types.DetectionAck, error) {
	var (
		ack types.DetectionAck
		err error
	)
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		ack, err = client.Submit(ctx, id, req)
		var se *StatusError
		if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
			return ack, err
		}
		select {
		case <-ctx.Done():
			return ack, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return ack, err
}

// waitForFrames polls the session until it stores want frames.
func waitForFrames(ctx context.Context, client *Client, id string, want int) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		s, err := client.Session(ctx, id)
		if err == nil && s.Frames >= want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrTimeout
		case <-t.C:
		}
	}
}
