package api

import (
	"net/http"

	"github.com/okian/posecom/internal/domain/biomech"
	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/types"
)

// SessionsHandler handles session lifecycle and settings.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.CreateSessionRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	sess, err := h.deps.CreateSession(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, sess.Info(r.Context()))
}

// HandleList handles GET /sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Sessions(r.Context()))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info(r.Context()))
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMedia handles PUT /sessions/{id}/media.
func (h *SessionsHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	const op = "api.load_media"
	var req types.MediaRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	sess, err := h.deps.LoadMedia(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info(r.Context()))
}

// HandleMode handles PUT /sessions/{id}/mode.
func (h *SessionsHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_mode"
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req types.ModeRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	mode, err := calibration.ParseMode(req.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sess.SetMode(mode)
	writeJSON(w, http.StatusOK, sess.Info(r.Context()))
}

// HandleSex handles PUT /sessions/{id}/sex.
func (h *SessionsHandler) HandleSex(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_sex"
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req types.SexRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	sex, err := biomech.ParseSex(req.Sex)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sess.SetSex(sex)
	writeJSON(w, http.StatusOK, sess.Info(r.Context()))
}

// HandleCalibration handles PUT /sessions/{id}/calibration.
func (h *SessionsHandler) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_calibration"
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req types.Calibration
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := sess.SetCalibration(req.State()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info(r.Context()))
}
