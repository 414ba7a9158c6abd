package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
)

// Environment variable names.
const (
	EnvConfigPath = "POSECOM_CONFIG"
	envPrefix     = "POSECOM_"
)

// Load layers defaults, the optional YAML file named by POSECOM_CONFIG and
// POSECOM_* environment variables, then validates the result.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.PresenceThreshold <= 0 || c.PresenceThreshold > 1:
		return fmt.Errorf("%w: presence_threshold must be in (0,1]", ErrInvalidConfig)
	case c.ExportThreshold <= 0 || c.ExportThreshold > 1:
		return fmt.Errorf("%w: export_threshold must be in (0,1]", ErrInvalidConfig)
	case c.DefaultScaleMeters <= 0:
		return fmt.Errorf("%w: default_scale_meters must be positive", ErrInvalidConfig)
	case c.DefaultFPS <= 0:
		return fmt.Errorf("%w: default_fps must be positive", ErrInvalidConfig)
	case c.EditScaleFactor <= 0:
		return fmt.Errorf("%w: edit_scale_factor must be positive", ErrInvalidConfig)
	}
	if _, err := biomech.ParseSex(c.DefaultSex); err != nil {
		return fmt.Errorf("%w: default_sex: %v", ErrInvalidConfig, err)
	}
	if _, err := calibration.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("%w: default_mode: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
