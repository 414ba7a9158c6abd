package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/posecom/internal/adapters/export"
)

// ExportHandler streams session exports.
type ExportHandler struct {
	deps Dependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /sessions/{id}/export?format=json|csv|xlsx.
// The format defaults to json.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Rendered in full first so a failure still yields a JSON error body.
	var buf bytes.Buffer
	if err := sess.Export(r.Context(), format, &buf); err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(sess.Media().Name, sess.ID(), format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func filename(mediaName, id string, f export.Format) string {
	base := strings.TrimSpace(mediaName)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = id
	}
	return base + "_pose_data." + f.Extension()
}

// HandleSummary handles GET /sessions/{id}/summary.
func (h *ExportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sums, err := sess.Summaries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}
