package api

import (
	"net/http"

	"github.com/okian/posecom/internal/domain/types"
)

// FramesHandler handles frame views and manual corrections.
type FramesHandler struct {
	deps Dependencies
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps Dependencies) *FramesHandler {
	return &FramesHandler{deps: deps}
}

// HandleGetFrame handles GET /sessions/{id}/frames/{frame}.
func (h *FramesHandler) HandleGetFrame(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	frame, err := frameParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	view, err := sess.View(r.Context(), frame)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleEditJoint handles PUT /sessions/{id}/frames/{frame}/joints/{joint}.
func (h *FramesHandler) HandleEditJoint(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_joint"
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	frame, err := frameParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	joint, err := jointParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req types.JointEditRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	view, err := sess.EditJoint(r.Context(), frame, joint, req.X, req.Y)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleResetEdits handles DELETE /sessions/{id}/frames/{frame}/edits.
func (h *FramesHandler) HandleResetEdits(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	frame, err := frameParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	view, err := sess.ResetEdits(r.Context(), frame)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

// HandleClear handles DELETE /sessions/{id}/frames.
func (h *FramesHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: sess.Clear(r.Context())})
}
