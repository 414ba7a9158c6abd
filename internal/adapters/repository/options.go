package repository

import "github.com/okian/posecom/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithInitialCapacity preallocates room for n frames, e.g. duration x fps.
func WithInitialCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.records = make([]model.FrameRecord, 0, n)
		}
	}
}
