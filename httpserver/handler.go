package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/printforge/quote-backend/geometry"
	"github.com/printforge/quote-backend/interfaces"
	"github.com/printforge/quote-backend/pricing"
	"github.com/printforge/quote-backend/uploader"
)

const (
	// maxUploadSize caps a single model file upload (100MB).
	maxUploadSize = 100 << 20

	// multipartMemory is the in-memory budget for multipart parsing;
	// larger bodies spill to disk.
	multipartMemory = 32 << 20
)

// Handler processes HTTP requests for the upload service. It delegates all
// storage, session and pricing semantics to its collaborators.
type Handler struct {
	uploads  *uploader.Service
	analyzer geometry.Analyzer
	log      *slog.Logger
}

// NewHandler creates a request handler over the upload service and the
// geometry collaborator.
func NewHandler(uploads *uploader.Service, analyzer geometry.Analyzer, log *slog.Logger) *Handler {
	return &Handler{
		uploads:  uploads,
		analyzer: analyzer,
		log:      log,
	}
}

type fileInfo struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Format   string `json:"format"`
}

type uploadResponse struct {
	FileInfo         fileInfo           `json:"file_info"`
	StoredName       string             `json:"stored_name"`
	AccessURL        string             `json:"access_url"`
	FileHash         string             `json:"file_hash"`
	GeometryAnalysis *geometry.Analysis `json:"geometry_analysis,omitempty"`
}

type conflictResponse struct {
	Error    string `json:"error"`
	Detail   string `json:"detail"`
	FileHash string `json:"file_hash"`
}

// HandleUpload accepts a multipart model file upload with an optional
// session_id form field for duplicate tracking.
//
// URL format: POST /api/upload
//
// Responses: 200 with the stored name, access URL and content hash;
// 409 when the session already holds the content or the filename with
// different content; 400 for unsupported formats or malformed requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		http.Error(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !geometry.SupportedUploadExtension(header.Filename) {
		http.Error(w, fmt.Sprintf("Unsupported file type: %s", filepath.Ext(header.Filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("Failed to read upload body", "err", err)
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")

	result, err := h.uploads.Upload(r.Context(), data, header.Filename, sessionID)
	if err != nil {
		var conflict *interfaces.ConflictError
		if errors.As(err, &conflict) {
			writeJSON(w, http.StatusConflict, conflictResponse{
				Error:    conflict.Kind.String(),
				Detail:   conflict.Error(),
				FileHash: conflict.Hash.String(),
			})
			return
		}

		h.log.Error("Upload failed", "err", err, slog.String("filename", header.Filename))
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	resp := uploadResponse{
		FileInfo: fileInfo{
			Filename: header.Filename,
			Size:     len(data),
			Format:   strings.ToLower(filepath.Ext(header.Filename)),
		},
		StoredName: result.StoredName,
		AccessURL:  result.AccessURL,
		FileHash:   result.Hash.String(),
	}

	if analysis, err := h.analyzer.Analyze(data, header.Filename); err == nil {
		resp.GeometryAnalysis = analysis
	} else if !errors.Is(err, geometry.ErrAnalyzerUnavailable) {
		h.log.Debug("Geometry analysis failed", "err", err, slog.String("filename", header.Filename))
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDownload serves a stored object's bytes.
//
// URL format: GET /download/{storedName}
//
// Only the local backend supports direct download; the S3 backend answers
// 501 since callers hold a presigned URL from upload time.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	storedName := chi.URLParam(r, "storedName")

	data, err := h.uploads.Download(r.Context(), storedName)
	switch {
	case errors.Is(err, interfaces.ErrObjectNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case errors.Is(err, interfaces.ErrUnsupportedOperation):
		http.Error(w, "Direct download not supported for this storage backend", http.StatusNotImplemented)
		return
	case err != nil:
		h.log.Error("Download failed", "err", err, slog.String("storedName", storedName))
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storedName))
	w.Write(data)
}

// HandleSessionInfo reports the distinct file count for a session.
//
// URL format: GET /api/session/{sessionID}
func (h *Handler) HandleSessionInfo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	writeJSON(w, http.StatusOK, h.uploads.SessionInfo(sessionID))
}

// HandleClearSession drops all duplicate-tracking state for a session.
//
// URL format: DELETE /api/session/{sessionID}
func (h *Handler) HandleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.uploads.ClearSession(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleRemoveFile removes one filename from a session's ledger.
//
// URL format: DELETE /api/session/{sessionID}/files/{filename}
func (h *Handler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")

	removed := h.uploads.RemoveFromSession(sessionID, filename)
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// HandleCleanup triggers one TTL sweep immediately, the same operation the
// background scheduler runs.
//
// URL format: POST /api/admin/cleanup
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	swept, err := h.uploads.TriggerCleanup(r.Context())
	if err != nil {
		h.log.Error("Manual cleanup failed", "err", err)
		http.Error(w, "Cleanup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"swept_count": swept})
}

// HandleStorageInfo reports the active backend configuration.
//
// URL format: GET /api/storage/info
func (h *Handler) HandleStorageInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.uploads.StorageInfo())
}

type quoteRequest struct {
	Volume   float64 `json:"volume"`
	Material string  `json:"material"`
	Process  string  `json:"process"`
	Quantity int     `json:"quantity"`
}

// HandleQuote prices a print job from a model's measured volume.
//
// URL format: POST /api/quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid quote request", http.StatusBadRequest)
		return
	}

	if req.Volume <= 0 {
		http.Error(w, "Volume must be positive", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, pricing.Calculate(req.Volume, req.Material, req.Process, req.Quantity))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
