package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/adapters/repository"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/types"
	"github.com/okian/posecom/pkg/logger"
	"github.com/okian/posecom/pkg/metrics"
)

// SessionConfig holds the per-session analysis settings.
type SessionConfig struct {
	Mode            calibration.Mode
	Sex             biomech.Sex
	ScaleMeters     float64 // scale of the calibration a session (re)starts with
	Threshold       float64 // presence threshold for the pipeline
	ExportThreshold float64 // visibility threshold for exports
	EditScale       float64 // 2D-to-3D factor for hand edits
}

// DefaultSessionConfig returns the settings a session uses when nothing is
// configured.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Mode:            calibration.Mode2D,
		Sex:             biomech.Male,
		ScaleMeters:     calibration.Default().ScaleMeters,
		Threshold:       biomech.DefaultThreshold,
		ExportThreshold: biomech.DefaultThreshold,
		EditScale:       model.DefaultEditScale,
	}
}

// Session is the analysis state of one piece of media: its stored frames
// and the mode, sex and calibration used to derive and display them.
type Session struct {
	id        string
	createdAt time.Time

	mu    sync.RWMutex
	media model.Media
	cfg   SessionConfig
	calib calibration.State
	store repository.FrameStore

	logger logger.Logger
}

// NewSession creates an empty session on media.
func NewSession(id string, media model.Media, cfg SessionConfig) (*Session, error) {
	if err := media.Validate(); err != nil {
		return nil, err
	}
	def := DefaultSessionConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.ScaleMeters <= 0 {
		cfg.ScaleMeters = def.ScaleMeters
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.ExportThreshold <= 0 {
		cfg.ExportThreshold = def.ExportThreshold
	}
	if cfg.EditScale <= 0 {
		cfg.EditScale = def.EditScale
	}
	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		media:     media,
		cfg:       cfg,
		store:     repository.NewMemoryStore(),
		logger:    logger.Get().Named("session"),
	}
	s.calib = s.defaultCalibration()
	return s, nil
}

func (s *Session) defaultCalibration() calibration.State {
	c := calibration.Default()
	c.ScaleMeters = s.cfg.ScaleMeters
	return c
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Media returns the media under analysis.
func (s *Session) Media() model.Media {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.media
}

// Info returns the wire view of the session.
func (s *Session) Info(ctx context.Context) types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Session{
		ID: s.id,
		Media: types.MediaRequest{
			Kind:     string(s.media.Kind),
			Name:     s.media.Name,
			FPS:      s.media.FPS,
			Duration: s.media.Duration,
			Width:    s.media.Width,
			Height:   s.media.Height,
		},
		Mode:        string(s.cfg.Mode),
		Sex:         s.cfg.Sex.String(),
		Calibration: types.NewCalibration(s.calib),
		Frames:      s.store.Len(ctx),
		CreatedAt:   s.createdAt.Format(time.RFC3339),
	}
}

// SetMedia loads new media. Stored frames are dropped and the calibration
// is reset.
func (s *Session) SetMedia(ctx context.Context, media model.Media) error {
	if err := media.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.store.Clear(ctx)
	s.media = media
	s.calib = s.defaultCalibration()
	s.logger.Info(ctx, "media loaded",
		logger.String("session", s.id),
		logger.String("kind", string(media.Kind)),
		logger.Int("dropped_frames", n),
	)
	return nil
}

// SetMode switches between 2D and 3D display.
func (s *Session) SetMode(mode calibration.Mode) {
	s.mu.Lock()
	s.cfg.Mode = mode
	s.mu.Unlock()
}

// SetSex switches the anthropometric table.
func (s *Session) SetSex(sex biomech.Sex) {
	s.mu.Lock()
	s.cfg.Sex = sex
	s.mu.Unlock()
}

// SetCalibration replaces the calibration after validating it.
func (s *Session) SetCalibration(c calibration.State) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.calib = c
	s.mu.Unlock()
	return nil
}

// Calibration returns the current calibration.
func (s *Session) Calibration() calibration.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calib
}

// Apply stores a detection at the frame its timestamp maps to and returns
// that frame. A frame that was edited by hand keeps its edits.
func (s *Session) Apply(ctx context.Context, d model.Detection) (int, error) { //nolint:gocritic // hugeParam: detections are passed by value through the queue
	start := time.Now()

	// Held for the whole call so a concurrent SetMedia cannot interleave.
	s.mu.RLock()
	defer s.mu.RUnlock()

	// The media may have changed while d was queued.
	if err := d.ValidateFor(s.media); err != nil {
		return 0, err
	}
	rec := d.Record(s.media)
	res := biomech.Extend(rec.Image, rec.World, s.options())
	metrics.RecordPipelineReport("image", len(res.Report.Image.Mirrored), res.Report.Image.Segments, res.Report.Image.HasTotal)
	if !rec.World.Empty() {
		metrics.RecordPipelineReport("world", len(res.Report.World.Mirrored), res.Report.World.Segments, res.Report.World.HasTotal)
	}

	pinned, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return rec.FrameIndex, fmt.Errorf("store frame %d: %w", rec.FrameIndex, err)
	}
	metrics.RecordPipelineLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.logger.Debug(ctx, "frame stored",
		logger.String("session", s.id),
		logger.Int("frame", rec.FrameIndex),
		logger.Bool("pinned", pinned),
		logger.Int("mirrored", len(res.Report.Image.Mirrored)),
	)
	return rec.FrameIndex, nil
}

// options must be called with s.mu held.
func (s *Session) options() biomech.Options {
	return biomech.Options{Sex: s.cfg.Sex, Threshold: s.cfg.Threshold}
}

// projector must be called with s.mu held.
func (s *Session) projector() calibration.Projector {
	return calibration.NewProjector(s.cfg.Mode, s.calib, float64(s.media.Width), float64(s.media.Height))
}

// View returns the extended, projected landmarks of one frame.
func (s *Session) View(ctx context.Context, frame int) (types.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.store.Get(ctx, frame)
	if err != nil {
		return types.Frame{}, err
	}
	return s.view(rec), nil
}

// view must be called with s.mu held.
func (s *Session) view(rec model.FrameRecord) types.Frame {
	f := export.Extend(rec, s.projector(), s.options())
	out := types.Frame{
		Frame:          f.Index,
		Timestamp:      f.Timestamp,
		ManuallyEdited: f.ManuallyEdited,
		MirroredJoints: slices.Clone(f.Report.Image.Mirrored),
		SegmentCOMs:    f.Report.Image.Segments,
		Landmarks:      make([]types.FrameLandmark, 0, f.Report.Image.Populated),
	}
	if out.MirroredJoints == nil {
		out.MirroredJoints = []int{}
	}
	for i := 0; i < landmark.Count; i++ {
		j, ok := f.Image.Get(i)
		if !ok {
			continue
		}
		_, edited := rec.Edits[i]
		fl := types.FrameLandmark{
			Index:             i,
			Name:              landmark.Name(i),
			Landmark2D:        j,
			DisplayCoordinate: f.Display[i],
			Edited:            edited,
		}
		if w, ok := f.WorldAt(i); ok {
			fl.Landmark3D = &w
		}
		out.Landmarks = append(out.Landmarks, fl)
	}
	return out
}

// EditJoint moves a raw joint of a stored frame to (x, y) and returns the
// updated view.
func (s *Session) EditJoint(ctx context.Context, frame, joint int, x, y float64) (types.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := s.store.Update(ctx, frame, func(r *model.FrameRecord) error {
		_, err := r.EditJoint(joint, x, y, s.cfg.EditScale)
		return err
	})
	if err != nil {
		return types.Frame{}, err
	}
	metrics.RecordJointEdit()
	s.logger.Info(ctx, "joint edited",
		logger.String("session", s.id),
		logger.Int("frame", frame),
		logger.String("joint", landmark.Name(joint)),
	)
	rec, err := s.store.Get(ctx, frame)
	if err != nil {
		return types.Frame{}, err
	}
	return s.view(rec), nil
}

// ResetEdits drops the hand edits of a frame.
func (s *Session) ResetEdits(ctx context.Context, frame int) (types.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := s.store.Update(ctx, frame, func(r *model.FrameRecord) error {
		r.ResetEdits()
		return nil
	})
	if err != nil {
		return types.Frame{}, err
	}
	rec, err := s.store.Get(ctx, frame)
	if err != nil {
		return types.Frame{}, err
	}
	return s.view(rec), nil
}

// Clear drops every stored frame and returns how many there were.
func (s *Session) Clear(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear(ctx)
}

// Frames returns the number of stored frames.
func (s *Session) Frames(ctx context.Context) int {
	return s.store.Len(ctx)
}

// Snapshot captures what an export needs.
func (s *Session) Snapshot(ctx context.Context) export.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return export.Snapshot{
		Media:           s.media,
		Mode:            s.cfg.Mode,
		Sex:             s.cfg.Sex,
		Calibration:     s.calib,
		Frames:          s.store.List(ctx),
		Threshold:       s.cfg.Threshold,
		ExportThreshold: s.cfg.ExportThreshold,
	}
}

// Document derives every stored frame. It returns export.ErrNoData when
// the session holds no frames.
func (s *Session) Document(ctx context.Context) (export.Document, error) {
	return export.Build(s.Snapshot(ctx))
}

// Export writes every stored frame to w in format f.
func (s *Session) Export(ctx context.Context, f export.Format, w io.Writer) error {
	start := time.Now()
	doc, err := s.Document(ctx)
	if err == nil {
		err = export.Write(w, f, doc)
	}
	if err != nil {
		metrics.RecordExportError(string(f))
		return fmt.Errorf("export %s: %w", f, err)
	}
	metrics.RecordExport(string(f), float64(time.Since(start).Microseconds())/1000)
	s.logger.Info(ctx, "session exported",
		logger.String("session", s.id),
		logger.String("format", string(f)),
		logger.Int("frames", len(doc.Frames)),
	)
	return nil
}

// Summaries condenses every stored frame.
func (s *Session) Summaries(ctx context.Context) ([]export.FrameSummary, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Summaries(), nil
}
