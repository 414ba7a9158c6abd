package api

import (
	"net/http"

	"github.com/okian/posecom/internal/domain/types"
)

// DetectionsHandler handles estimator results.
type DetectionsHandler struct {
	deps Dependencies
}

// NewDetectionsHandler creates a new detections handler.
func NewDetectionsHandler(deps Dependencies) *DetectionsHandler {
	return &DetectionsHandler{deps: deps}
}

// HandlePostDetection handles POST /sessions/{id}/detections. A new
// detection is acknowledged with 202, a repeated detectionId with 200.
func (h *DetectionsHandler) HandlePostDetection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_detection"
	var req types.DetectionRequest
	if err := decode(w, r, op, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	ack, err := h.deps.Submit(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
