// Package service owns the analysis sessions and the ingestion pipeline
// behind the HTTP API: detections are deduplicated, queued and applied to
// their session by a worker pool.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	eventqueue "github.com/okian/posecom/internal/adapters/mq/queue"
	workerpool "github.com/okian/posecom/internal/adapters/mq/worker"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/dedupe"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/types"
	"github.com/okian/posecom/pkg/logger"
	"github.com/okian/posecom/pkg/metrics"
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	sessions map[string]*Session

	// Core components
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	maxSessions int
	defaultFPS  float64
	session     SessionConfig

	started bool
	logger  logger.Logger
}

// New constructs a Service. Call Start before submitting detections.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:    make(map[string]*Session),
		workerCount: 1,
		queueSize:   1024,
		dedupeSize:  100_000,
		maxSessions: 64,
		defaultFPS:  30,
		session:     DefaultSessionConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the queue and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting pose service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, workerpool.ProcessorFunc(s.Process))
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "pose service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes intake and waits for queued detections to be applied.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, log := s.workerPool, s.logger
	s.mu.Unlock()

	// Workers look sessions up while draining, so the lock is released first.
	log.Info(ctx, "stopping pose service...")
	err := pool.Shutdown(ctx)
	log.Info(ctx, "pose service stopped")
	return err
}

// CreateSession opens a session on the requested media. Empty mode and sex
// fall back to the configured defaults; a video without fps gets the
// default frame rate.
func (s *Service) CreateSession(ctx context.Context, req types.CreateSessionRequest) (*Session, error) {
	cfg := s.session
	if req.Mode != "" {
		mode, err := calibration.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if req.Sex != "" {
		sex, err := biomech.ParseSex(req.Sex)
		if err != nil {
			return nil, err
		}
		cfg.Sex = sex
	}

	sess, err := NewSession(uuid.NewString(), s.media(req.MediaRequest), cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.UpdateActiveSessions(n)
	s.log().Info(ctx, "session created",
		logger.String("session", sess.ID()),
		logger.String("kind", req.Kind),
		logger.String("mode", string(cfg.Mode)),
	)
	return sess, nil
}

// media converts a request, applying the default frame rate to videos.
func (s *Service) media(req types.MediaRequest) model.Media {
	m := req.Media()
	if m.Kind == model.MediaVideo && m.FPS == 0 {
		m.FPS = s.defaultFPS
	}
	return m
}

// LoadMedia replaces the media of a session.
func (s *Service) LoadMedia(ctx context.Context, id string, req types.MediaRequest) (*Session, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetMedia(ctx, s.media(req)); err != nil {
		return nil, err
	}
	return sess, nil
}

// Session looks up a session by id.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Sessions lists every session, oldest first.
func (s *Service) Sessions(ctx context.Context) []types.Session {
	s.mu.RLock()
	all := lo.Values(s.sessions)
	s.mu.RUnlock()

	out := lo.Map(all, func(sess *Session, _ int) types.Session { return sess.Info(ctx) })
	slices.SortFunc(out, func(a, b types.Session) int {
		return cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// DeleteSession drops a session and its frames.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	sess.Clear(ctx)
	metrics.UpdateActiveSessions(n)
	s.log().Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// Submit validates a detection and queues it for its session. A detection
// whose id was already submitted to the session is acknowledged as a
// duplicate and not queued again.
func (s *Service) Submit(ctx context.Context, sessionID string, req types.DetectionRequest) (types.DetectionAck, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return types.DetectionAck{}, err
	}

	image, world := req.Joints()
	d := model.Detection{
		SessionID:   sessionID,
		DetectionID: req.DetectionID,
		Timestamp:   req.Timestamp,
		Image:       image,
		World:       world,
		ReceivedAt:  time.Now(),
	}
	media := sess.Media()
	if err := d.ValidateFor(media); err != nil {
		metrics.RecordDetectionRejected("invalid")
		return types.DetectionAck{}, err
	}
	ack := types.DetectionAck{Status: "accepted", Frame: media.FrameIndex(d.Timestamp)}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		metrics.RecordDetectionRejected("stopped")
		return types.DetectionAck{}, ErrStopped
	}

	key := ""
	if d.DetectionID != "" {
		key = dedupe.Key(sessionID, d.DetectionID)
		if s.deduper.SeenAndRecord(ctx, key) {
			metrics.RecordDetectionDuplicate()
			ack.Status, ack.Duplicate = "duplicate", true
			return ack, nil
		}
	}

	if err := q.Enqueue(ctx, d); err != nil {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			metrics.RecordDetectionRejected("backpressure")
			return types.DetectionAck{}, fmt.Errorf("%w: %v", ErrBackpressure, err)
		case errors.Is(err, eventqueue.ErrClosed):
			metrics.RecordDetectionRejected("stopped")
			return types.DetectionAck{}, ErrStopped
		default:
			return types.DetectionAck{}, err
		}
	}
	metrics.RecordDetectionAccepted()
	return ack, nil
}

// Process applies a dequeued detection to its session. Detections for
// sessions deleted in the meantime are dropped.
func (s *Service) Process(ctx context.Context, d model.Detection) error { //nolint:gocritic // hugeParam: matches workerpool.ProcessorFunc
	sess, err := s.Session(d.SessionID)
	if err != nil {
		s.log().Debug(ctx, "dropping detection for unknown session",
			logger.String("session", d.SessionID),
			logger.String("detection", d.DetectionID),
		)
		return nil
	}
	if _, err := sess.Apply(ctx, d); err != nil {
		return fmt.Errorf("session %s: %w", d.SessionID, err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"dedupeEntries": s.deduper.Size(),
		"sessions":      len(s.sessions),
	}
	all := lo.Values(s.sessions)
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["activeWorkers"] = s.workerPool.Active()
		s.workerPool.UpdateMetrics()
	}
	s.mu.RUnlock()

	stats["frames"] = lo.SumBy(all, func(sess *Session) int { return sess.Frames(ctx) })

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	stats["goroutines"] = goroutines
	stats["heapBytes"] = mem.HeapAlloc
	metrics.UpdateSystemMemoryUsage(mem.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(goroutines)
	metrics.UpdateActiveSessions(len(all))
	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get().Named("service")
	}
	return l
}
