// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/posecom/internal/adapters/export"
	"github.com/okian/posecom/internal/adapters/repository"
	service "github.com/okian/posecom/internal/app"
	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
	"github.com/okian/posecom/internal/domain/types"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CreateSession(ctx context.Context, req types.CreateSessionRequest) (*service.Session, error)
	Session(id string) (*service.Session, error)
	Sessions(ctx context.Context) []types.Session
	LoadMedia(ctx context.Context, id string, req types.MediaRequest) (*service.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// Submit queues a detection. It returns service.ErrBackpressure when the
	// queue is full.
	Submit(ctx context.Context, sessionID string, req types.DetectionRequest) (types.DetectionAck, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	sessionsHandler   *SessionsHandler
	detectionsHandler *DetectionsHandler
	framesHandler     *FramesHandler
	exportHandler     *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		sessionsHandler:   NewSessionsHandler(deps),
		detectionsHandler: NewDetectionsHandler(deps),
		framesHandler:     NewFramesHandler(deps),
		exportHandler:     NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	sh := s.sessionsHandler
	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions", MetricsMiddleware(sh.HandleList, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleDelete, "session"))
	mux.HandleFunc("PUT /sessions/{id}/media", MetricsMiddleware(sh.HandleMedia, "media"))
	mux.HandleFunc("PUT /sessions/{id}/mode", MetricsMiddleware(sh.HandleMode, "mode"))
	mux.HandleFunc("PUT /sessions/{id}/sex", MetricsMiddleware(sh.HandleSex, "sex"))
	mux.HandleFunc("PUT /sessions/{id}/calibration", MetricsMiddleware(sh.HandleCalibration, "calibration"))

	mux.HandleFunc("POST /sessions/{id}/detections", MetricsMiddleware(s.detectionsHandler.HandlePostDetection, "detections"))

	fh := s.framesHandler
	mux.HandleFunc("GET /sessions/{id}/frames/{frame}", MetricsMiddleware(fh.HandleGetFrame, "frame"))
	mux.HandleFunc("PUT /sessions/{id}/frames/{frame}/joints/{joint}", MetricsMiddleware(fh.HandleEditJoint, "joint"))
	mux.HandleFunc("DELETE /sessions/{id}/frames/{frame}/edits", MetricsMiddleware(fh.HandleResetEdits, "edits"))
	mux.HandleFunc("DELETE /sessions/{id}/frames", MetricsMiddleware(fh.HandleClear, "frames"))

	mux.HandleFunc("GET /sessions/{id}/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("GET /sessions/{id}/summary", MetricsMiddleware(s.exportHandler.HandleSummary, "summary"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates domain errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, export.ErrNoData):
		writeError(w, http.StatusNotFound, "no_data", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrTooManySessions):
		writeError(w, http.StatusTooManyRequests, "too_many_sessions", err)
	case errors.Is(err, service.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, model.ErrJointNotDetected):
		writeError(w, http.StatusUnprocessableEntity, "joint_not_detected", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrInvalidFrame),
		errors.Is(err, ErrInvalidJoint),
		errors.Is(err, model.ErrInvalidMedia),
		errors.Is(err, model.ErrInvalidDetection),
		errors.Is(err, model.ErrInvalidJoint),
		errors.Is(err, calibration.ErrInvalidCalibration),
		errors.Is(err, calibration.ErrUnknownMode),
		errors.Is(err, biomech.ErrUnknownSex),
		errors.Is(err, export.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return wrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// frameParam parses the {frame} path value.
func frameParam(r *http.Request) (int, error) {
	raw := r.PathValue("frame")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, wrapKind("frame "+raw, ErrInvalidFrame, err)
	}
	return n, nil
}

// jointParam accepts a slot index or a landmark name in any case.
func jointParam(r *http.Request) (int, error) {
	raw := r.PathValue("joint")
	if n, err := strconv.Atoi(raw); err == nil {
		if !landmark.Valid(n) {
			return 0, wrapKind("joint "+raw, ErrInvalidJoint, nil)
		}
		return n, nil
	}
	i := slices.IndexFunc(landmark.Names(), func(name string) bool { return strings.EqualFold(name, raw) })
	if i < 0 {
		return 0, wrapKind("joint "+raw, ErrInvalidJoint, nil)
	}
	return i, nil
}
