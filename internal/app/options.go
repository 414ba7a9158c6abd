package service

import (
	"github.com/okian/posecom/internal/config"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the detection queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many detection ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionConfig sets the settings new sessions start with.
func WithSessionConfig(cfg SessionConfig) Option {
	return func(s *Service) {
		s.session = cfg
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig applies a loaded configuration. cfg is expected to be valid.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		WithWorkerCount(cfg.WorkerCount)(s)
		WithQueueSize(cfg.QueueSize)(s)
		WithDedupeSize(cfg.DedupeSize)(s)
		WithMaxSessions(cfg.MaxSessions)(s)
		if cfg.DefaultFPS > 0 {
			s.defaultFPS = cfg.DefaultFPS
		}

		sc := s.session
		if sex, err := biomech.ParseSex(cfg.DefaultSex); err == nil {
			sc.Sex = sex
		}
		if mode, err := calibration.ParseMode(cfg.DefaultMode); err == nil {
			sc.Mode = mode
		}
		sc.ScaleMeters = cfg.DefaultScaleMeters
		sc.Threshold = cfg.PresenceThreshold
		sc.ExportThreshold = cfg.ExportThreshold
		sc.EditScale = cfg.EditScaleFactor
		s.session = sc
	}
}
