// Package repository holds the per-session frame store.
package repository

import (
	"context"

	"github.com/okian/posecom/internal/domain/model"
)

// FrameStore keeps one record per frame index, ordered by frame index.
type FrameStore interface {
	// Upsert inserts rec or replaces the record at its frame index. When the
	// stored record was hand-edited, the replacement stays flagged as edited
	// and keeps the edit overlay; pinned reports that case.
	Upsert(ctx context.Context, rec model.FrameRecord) (pinned bool, err error)

	// Get returns a copy of the record at frame, or ErrNotFound.
	Get(ctx context.Context, frame int) (model.FrameRecord, error)

	// Update applies fn to the record at frame under the store's lock.
	// If fn returns an error the record is left unchanged.
	Update(ctx context.Context, frame int, fn func(*model.FrameRecord) error) error

	// List returns copies of all records in frame order.
	List(ctx context.Context) []model.FrameRecord

	// Len returns the number of records.
	Len(ctx context.Context) int

	// Delete removes the record at frame, or returns ErrNotFound.
	Delete(ctx context.Context, frame int) error

	// Clear drops every record and returns how many were removed.
	Clear(ctx context.Context) int
}
