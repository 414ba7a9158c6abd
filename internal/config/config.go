// Package config holds the service configuration and its loader.
package config

import (
	"context"
)

// Config is the full service configuration. Field tags name the YAML keys;
// the same keys are read from POSECOM_-prefixed environment variables.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// Ingestion
	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`
	MaxSessions int `koanf:"max_sessions"`

	// PresenceThreshold gates the pipeline; ExportThreshold gates exports.
	PresenceThreshold float64 `koanf:"presence_threshold"`
	ExportThreshold   float64 `koanf:"export_threshold"`

	// Session defaults
	DefaultSex         string  `koanf:"default_sex"`
	DefaultMode        string  `koanf:"default_mode"`
	DefaultScaleMeters float64 `koanf:"default_scale_meters"`
	DefaultFPS         float64 `koanf:"default_fps"`

	// EditScaleFactor converts a normalized 2D edit into a 3D delta.
	EditScaleFactor float64 `koanf:"edit_scale_factor"`
}

// New returns the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          1024,
		WorkerCount:        1,
		DedupeSize:         100_000,
		MaxSessions:        64,
		PresenceThreshold:  0.3,
		ExportThreshold:    0.3,
		DefaultSex:         "male",
		DefaultMode:        "2d",
		DefaultScaleMeters: 1.0,
		DefaultFPS:         30,
		EditScaleFactor:    2.0,
	}
}
