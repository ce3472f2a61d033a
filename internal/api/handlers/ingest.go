package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/tradefin/cfaam/internal/agreement"
	"github.com/tradefin/cfaam/internal/extraction"
	"github.com/tradefin/cfaam/pkg/config"
	"github.com/tradefin/cfaam/pkg/logger"
)

// Uploaded documents larger than this are rejected.
const maxUploadBytes = 10 << 20 // 10 MiB

// IngestHandler accepts an approval document upload, extracts its compliance
// fields, enriches them with computed deadlines, and upserts the record.
type IngestHandler struct {
	extractor *extraction.Service
	repo      *agreement.Repository
	cfg       *config.Config
	logger    *logger.Logger
}

// NewIngestHandler creates the handler.
func NewIngestHandler(extractor *extraction.Service, repo *agreement.Repository, cfg *config.Config, log *logger.Logger) *IngestHandler {
	return &IngestHandler{
		extractor: extractor,
		repo:      repo,
		cfg:       cfg,
		logger:    log,
	}
}

// Ingest processes one uploaded document. The optional "recipient" form
// field sets the notification address; records without one are still
// created and tracked, but their notifications are skipped.
// POST /api/ingest  (multipart: document=<file>, recipient=<email>)
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if !authorized(r, h.cfg.AdminToken) {
		respondError(w, http.StatusUnauthorized, "Invalid or missing token")
		return
	}

	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "Extraction service is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing 'document' file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) > maxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "Document exceeds upload size limit")
		return
	}

	ctx := r.Context()

	fields, err := h.extractor.Extract(ctx, header.Filename, data)
	if err != nil {
		h.logger.WithError(err).WithField("file", header.Filename).Error("Document extraction failed")
		respondError(w, http.StatusUnprocessableEntity, "Could not extract compliance fields from document")
		return
	}

	record, err := agreement.FromExtraction(fields, r.FormValue("recipient"), time.Now())
	if err != nil {
		h.logger.WithError(err).WithField("file", header.Filename).Error("Extracted fields rejected")
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.repo.Upsert(ctx, record); err != nil {
		h.logger.WithError(err).WithField("cfaam_ref", record.Reference).Error("Failed to store agreement")
		respondError(w, http.StatusInternalServerError, "Failed to store agreement")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"cfaam_ref": record.Reference,
		"file":      header.Filename,
	}).Info("Agreement ingested")

	respondJSON(w, http.StatusCreated, record)
}
