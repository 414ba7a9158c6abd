package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/pkg/metrics"
)

// MemoryStore is an in-memory FrameStore backed by a slice kept sorted by
// frame index.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.FrameRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// find must be called with s.mu held.
func (s *MemoryStore) find(frame int) (int, bool) {
	return slices.BinarySearchFunc(s.records, frame, func(r model.FrameRecord, f int) int {
		return cmp.Compare(r.FrameIndex, f)
	})
}

func (s *MemoryStore) Upsert(ctx context.Context, rec model.FrameRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("upsert frame %d: %w", rec.FrameIndex, err)
	}
	rec = rec.Clone()

	s.mu.Lock()
	i, found := s.find(rec.FrameIndex)
	pinned := false
	if found {
		old := s.records[i]
		if old.ManuallyEdited {
			rec.ManuallyEdited = true
			if len(old.Edits) > 0 {
				if rec.Edits == nil {
					rec.Edits = make(map[int]model.JointEdit, len(old.Edits))
				}
				for j, e := range old.Edits {
					if _, ok := rec.Edits[j]; !ok {
						rec.Edits[j] = e
					}
				}
			}
			pinned = true
		}
		s.records[i] = rec
	} else {
		s.records = slices.Insert(s.records, i, rec)
	}
	s.mu.Unlock()

	metrics.RecordFrameStored(pinned)
	if !found {
		metrics.AddFrames(1)
	}
	return pinned, nil
}

func (s *MemoryStore) Get(_ context.Context, frame int) (model.FrameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.find(frame)
	if !ok {
		return model.FrameRecord{}, fmt.Errorf("%w: %d", ErrNotFound, frame)
	}
	return s.records[i].Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, frame int, fn func(*model.FrameRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(frame)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, frame)
	}
	rec := s.records[i].Clone()
	if err := fn(&rec); err != nil {
		return err
	}
	rec.FrameIndex = frame
	s.records[i] = rec
	return nil
}

func (s *MemoryStore) List(_ context.Context) []model.FrameRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FrameRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Delete(_ context.Context, frame int) error {
	s.mu.Lock()
	i, ok := s.find(frame)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotFound, frame)
	}
	s.records = slices.Delete(s.records, i, i+1)
	s.mu.Unlock()
	metrics.AddFrames(-1)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) int {
	s.mu.Lock()
	n := len(s.records)
	s.records = nil
	s.mu.Unlock()
	metrics.AddFrames(-n)
	return n
}
