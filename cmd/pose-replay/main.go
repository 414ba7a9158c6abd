// Package main is the pose-replay command: it drives recorded or synthetic
// detections through the pose pipeline and prints a per-frame summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/replay"
	"github.com/okian/posecom/pkg/logger"
)

const (
	// Flags.
	flagInput     = "input"
	flagKind      = "media-kind"
	flagName      = "name"
	flagFPS       = "fps"
	flagDuration  = "duration"
	flagWidth     = "width"
	flagHeight    = "height"
	flagMode      = "mode"
	flagSex       = "sex"
	flagRate      = "rate"
	flagRealtime  = "realtime"
	flagSeed      = "seed"
	flagOcclusion = "occlusion"
	flagFailure   = "failure"
	flagNoWorld   = "no-world"
	flagOutput    = "output"
	flagFormat    = "format"
	flagURL       = "url"
	flagTimeout   = "timeout"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pose-replay:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	def := replay.DefaultConfig()

	sourceFlags := []cli.Flag{
		&cli.StringFlag{Name: flagInput, Aliases: []string{"i"}, Usage: "read detections from JSON-lines `FILE` instead of the synthetic estimator"},
		&cli.StringFlag{Name: flagKind, Value: string(def.Media.Kind), Usage: "media kind: video or image"},
		&cli.StringFlag{Name: flagName, Value: def.Media.Name, Usage: "media name used in exports"},
		&cli.Float64Flag{Name: flagFPS, Value: def.Media.FPS, Usage: "video frame rate"},
		&cli.Float64Flag{Name: flagDuration, Value: def.Media.Duration, Usage: "video duration in seconds"},
		&cli.IntFlag{Name: flagWidth, Value: def.Media.Width, Usage: "frame width in pixels"},
		&cli.IntFlag{Name: flagHeight, Value: def.Media.Height, Usage: "frame height in pixels"},
		&cli.Float64Flag{Name: flagRate, Value: def.Rate, Usage: "processing rate in frames per second"},
		&cli.BoolFlag{Name: flagRealtime, Usage: "pace submissions at the processing rate"},
		&cli.Int64Flag{Name: flagSeed, Value: def.Seed, Usage: "synthetic estimator seed"},
		&cli.Float64Flag{Name: flagOcclusion, Usage: "probability a synthetic joint is occluded"},
		&cli.Float64Flag{Name: flagFailure, Usage: "probability a synthetic estimate fails"},
		&cli.BoolFlag{Name: flagNoWorld, Usage: "omit world landmarks"},
	}
	analysisFlags := []cli.Flag{
		&cli.StringFlag{Name: flagMode, Value: string(def.Mode), Usage: "display mode: 2d or 3d"},
		&cli.StringFlag{Name: flagSex, Value: def.Sex.String(), Usage: "anthropometric table: male or female"},
		&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "write the export to `FILE`"},
		&cli.StringFlag{Name: flagFormat, Aliases: []string{"f"}, Value: string(def.Format), Usage: "export format: json, csv or xlsx"},
	}

	return &cli.App{
		Name:  "pose-replay",
		Usage: "replay pose detections through the biomechanics pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagLogLevel, Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: flagLogFormat, Value: logger.FormatText, Usage: "text or json"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithFormat(c.String(flagLogFormat)), logger.WithWriter(c.App.ErrWriter)); err != nil {
				return err
			}
			return logger.SetLevelString(c.String(flagLogLevel))
		},
		Commands: []*cli.Command{
			{
				Name:  "offline",
				Usage: "run the pipeline in process",
				Flags: append(append([]cli.Flag{}, sourceFlags...), analysisFlags...),
				Action: func(c *cli.Context) error {
					cfg, err := configFromFlags(c)
					if err != nil {
						return err
					}
					rep, err := replay.RunOffline(c.Context, cfg)
					if err != nil {
						return err
					}
					return rep.Render(c.App.Writer)
				},
			},
			{
				Name:  "remote",
				Usage: "submit detections to a running server",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{Name: flagURL, Value: def.BaseURL, Usage: "server base URL"},
					&cli.DurationFlag{Name: flagTimeout, Value: def.Timeout, Usage: "per-request timeout"},
				}, sourceFlags...), analysisFlags...),
				Action: func(c *cli.Context) error {
					cfg, err := configFromFlags(c)
					if err != nil {
						return err
					}
					cfg.BaseURL = c.String(flagURL)
					cfg.Timeout = c.Duration(flagTimeout)
					rep, err := replay.RunRemote(c.Context, cfg)
					if err != nil {
						return err
					}
					return rep.Render(c.App.Writer)
				},
			},
			{
				Name:  "record",
				Usage: "write synthetic detections as JSON lines",
				Flags: append(append([]cli.Flag{}, sourceFlags...),
					&cli.StringFlag{Name: flagOutput, Aliases: []string{"o"}, Usage: "write to `FILE` instead of stdout"},
				),
				Action: recordAction,
			},
		},
	}
}

func recordAction(c *cli.Context) (err error) {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	w := c.App.Writer
	if path := c.String(flagOutput); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	st, err := replay.Record(c.Context, cfg, w)
	if err != nil {
		return err
	}
	logger.Get().Info(c.Context, "recorded detections",
		logger.Int("frames", st.Frames),
		logger.Int("skipped", st.Skipped),
	)
	return nil
}

// configFromFlags reads the flags every command shares.
func configFromFlags(c *cli.Context) (replay.Config, error) {
	cfg := replay.DefaultConfig()
	cfg.Input = c.String(flagInput)
	cfg.Media = model.Media{
		Kind:     model.MediaKind(c.String(flagKind)),
		Name:     c.String(flagName),
		FPS:      c.Float64(flagFPS),
		Duration: c.Float64(flagDuration),
		Width:    c.Int(flagWidth),
		Height:   c.Int(flagHeight),
	}
	cfg.Rate = c.Float64(flagRate)
	cfg.Realtime = c.Bool(flagRealtime)
	cfg.Seed = c.Int64(flagSeed)
	cfg.OcclusionRate = c.Float64(flagOcclusion)
	cfg.FailureRate = c.Float64(flagFailure)
	cfg.NoWorld = c.Bool(flagNoWorld)

	if c.String(flagMode) != "" {
		mode, err := calibration.ParseMode(c.String(flagMode))
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if c.String(flagSex) != "" {
		sex, err := biomech.ParseSex(c.String(flagSex))
		if err != nil {
			return cfg, err
		}
		cfg.Sex = sex
	}
	cfg.Output = c.String(flagOutput)
	if raw := c.String(flagFormat); raw != "" {
		f, err := export.ParseFormat(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Format = f
	}
	return cfg, cfg.Validate()
}
