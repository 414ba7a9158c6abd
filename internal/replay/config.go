// Package replay feeds estimator output through the pose pipeline, either
// in process or against a running server, and reports what was derived.
package replay

import (
	"fmt"
	"time"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/source"
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
	DefaultSeed    = 42
)

// Config describes one replay run.
type Config struct {
	// Input is a JSON-lines detection file. Empty uses the synthetic
	// estimator on Media.
	Input string
	Media model.Media

	Mode calibration.Mode
	Sex  biomech.Sex

	// Rate is the processing rate in frames per second for the synthetic
	// estimator. Realtime paces submission at Rate.
	Rate     float64
	Realtime bool

	// Synthetic estimator knobs.
	Seed          int64
	OcclusionRate float64
	FailureRate   float64
	NoWorld       bool

	// Output receives the export in Format. Empty skips the export.
	Output string
	Format export.Format

	// Remote runs only.
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns a ten-second 640x480 video at 30 fps.
func DefaultConfig() Config {
	return Config{
		Media: model.Media{
			Kind:     model.MediaVideo,
			Name:     "synthetic",
			FPS:      30,
			Duration: 10,
			Width:    640,
			Height:   480,
		},
		Mode:    calibration.Mode2D,
		Sex:     biomech.Male,
		Rate:    source.DefaultRate,
		Seed:    DefaultSeed,
		Format:  export.FormatJSON,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Validate checks the run description.
func (c Config) Validate() error {
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if c.Rate < 0 {
		return fmt.Errorf("%w: rate %g", ErrInvalidConfig, c.Rate)
	}
	if c.Output != "" {
		if _, err := export.ParseFormat(string(c.Format)); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) driveOptions() []source.DriveOption {
	if !c.Realtime {
		return nil
	}
	rate := c.Rate
	if rate <= 0 {
		rate = source.DefaultRate
	}
	return []source.DriveOption{source.WithRate(rate)}
}
