package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the wildcard segment.
// Supports encoded slashes from OpenAPI clients (e.g. docs%2Fdesign%2Fa.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// statusFor maps a structured result error onto an HTTP status.
func statusFor(errText string) int {
	switch errText {
	case "":
		return http.StatusOK
	case apperr.ErrNotFound.Error(), apperr.ErrEphemeral.Error():
		return http.StatusNotFound
	case apperr.ErrInvalidDirectory.Error(), apperr.ErrInvalidPath.Error():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List managed documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ManagedDocuments(r.Context())
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// Completion handles GET /api/completion/*.
//
//	@Summary		Checklist completion of one document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	models.Completion
//	@Failure		400		{object}	models.Completion
//	@Failure		404		{object}	models.Completion
//	@Security		BearerAuth
//	@Router			/completion/{path} [get]
func (h *Handler) Completion(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	c := h.svc.Completion(r.Context(), path)
	writeJSON(w, statusFor(c.Error), c)
}

// Status handles GET /api/status/*.
//
//	@Summary		Detected lifecycle state of one document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	models.Status
//	@Failure		400		{object}	models.Status
//	@Failure		404		{object}	models.Status
//	@Security		BearerAuth
//	@Router			/status/{path} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	st := h.svc.Status(r.Context(), path)
	writeJSON(w, statusFor(st.Error), st)
}

// Scan handles GET /api/scan.
//
//	@Summary		Evaluate every managed document
//	@Tags			lifecycle
//	@Produce		json
//	@Param			range	query		string	false	"Revision range, e.g. main..HEAD"
//	@Success		200		{object}	ScanResponse
//	@Security		BearerAuth
//	@Router			/scan [get]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	res, err := h.svc.Scan(r.Context(), rng)
	if err != nil {
		slog.Error("scan failed", slog.String("range", rng), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Report handles GET /api/report.
//
//	@Summary		Aggregated lifecycle report
//	@Tags			lifecycle
//	@Produce		json
//	@Param			range	query		string	false	"Revision range"
//	@Success		200		{object}	ReportResponse
//	@Security		BearerAuth
//	@Router			/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	rep, err := h.svc.Report(r.Context(), rng)
	if err != nil {
		slog.Error("report failed", slog.String("range", rng), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Transitions handles GET /api/transitions.
//
//	@Summary		Planned transitions (dry run)
//	@Tags			lifecycle
//	@Produce		json
//	@Param			range	query		string	false	"Revision range"
//	@Success		200		{object}	ApplyResponse
//	@Security		BearerAuth
//	@Router			/transitions [get]
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	res, err := h.svc.Plan(r.Context(), rng)
	if err != nil {
		slog.Error("plan failed", slog.String("range", rng), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Apply handles POST /api/apply.
//
//	@Summary		Apply pending transitions
//	@Tags			lifecycle
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ApplyRequest	false	"Range and dry-run flag"
//	@Success		200		{object}	ApplyResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/apply [post]
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := readJSON(w, r, &req, true); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Apply(r.Context(), req.Range, req.DryRun)
	if err != nil {
		slog.Error("apply failed", slog.String("range", req.Range), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EnsureFolders handles POST /api/folders.
//
//	@Summary		Create lifecycle folders under a directory
//	@Tags			lifecycle
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FoldersRequest	true	"Base directory"
//	@Success		200		{object}	models.FolderResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) EnsureFolders(w http.ResponseWriter, r *http.Request) {
	var req FoldersRequest
	if err := readJSON(w, r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Dir == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("dir is required"))
		return
	}
	res := h.svc.EnsureFolders(r.Context(), req.Dir)
	writeJSON(w, statusFor(res.Error), res)
}
