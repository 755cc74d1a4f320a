package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/registry"
	"github.com/starford/ansuz/internal/rewrite"
)

// LinkerHandler exposes the tag registry and the rewrite engine over HTTP.
type LinkerHandler struct {
	reg *registry.Registry
	rw  *rewrite.Rewriter
}

// NewLinkerHandler creates a new LinkerHandler.
func NewLinkerHandler(reg *registry.Registry, rw *rewrite.Rewriter) *LinkerHandler {
	return &LinkerHandler{reg: reg, rw: rw}
}

// Tags handles GET /tags: the current registry snapshot.
func (h *LinkerHandler) Tags(w http.ResponseWriter, _ *http.Request) {
	tags := h.reg.Tags()
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags, Size: len(tags)})
}

// Scan handles POST /scan: the manual, unscheduled full-vault scan.
func (h *LinkerHandler) Scan(w http.ResponseWriter, r *http.Request) {
	report, err := h.rw.ScanAll(r.Context())
	if err != nil {
		slog.Error("scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Rewrite handles POST /rewrite: a pure preview pass over submitted text,
// nothing is persisted.
func (h *LinkerHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req RewriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	out, changed := rewrite.Apply(req.Text, h.reg.Tags())
	writeJSON(w, http.StatusOK, RewriteResponse{Text: out, Changed: changed})
}
