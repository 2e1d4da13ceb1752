package evidencehandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/verichain/api"
	"github.com/ruteri/verichain/common"
	"github.com/ruteri/verichain/evidence"
	"github.com/ruteri/verichain/interfaces"
)

// multipart bodies larger than this spill to temporary files
const multipartMemory = 8 << 20

// EvidenceService is the subset of evidence.Service used by the handler.
type EvidenceService interface {
	Ingest(ctx context.Context, sub evidence.Submission) (evidence.IngestReceipt, error)
	Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error)
	Record(ctx context.Context, hash interfaces.ContentHash) (interfaces.EvidenceRecord, error)
	List(ctx context.Context) ([]interfaces.EvidenceRecord, error)
	Status(ctx context.Context) evidence.Status
}

// Handler serves the evidence API.
type Handler struct {
	service        EvidenceService
	maxUploadBytes int64
	log            *slog.Logger
}

// NewHandler creates a handler that takes its upload limit and logger from
// the server configuration.
func NewHandler(service EvidenceService, cfg *api.HTTPServerConfig) *Handler {
	log := slog.Default()
	if cfg != nil && cfg.Log != nil {
		log = cfg.Log
	}
	return &Handler{
		service:        service,
		maxUploadBytes: cfg.UploadLimit(),
		log:            log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/evidence", h.HandleUpload)
	r.Get("/api/evidence", h.HandleList)
	r.Get("/api/evidence/{content_hash}", h.HandleFetch)
	r.Get("/api/evidence/{content_hash}/record", h.HandleRecord)
	r.Get("/api/status", h.HandleStatus)
}

// HandleUpload ingests the multipart field "file".
//
// URL format: POST /api/evidence
// Response: api.UploadResponse
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Errorf("invalid multipart form: %w", err).Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Errorf("missing file field: %w", err).Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Errorf("could not read upload: %w", err).Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.service.Ingest(r.Context(), evidence.Submission{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeError(w, "could not ingest evidence", err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.UploadResponse{
		ContentHash: receipt.Descriptor.ContentHash,
		Storage:     receipt.Descriptor,
		Record:      receipt.Record,
	})
}

// HandleFetch returns the decrypted evidence. The recorded content type and
// filename are used when the hash is in the catalog.
//
// URL format: GET /api/evidence/{content_hash}
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	hash, ok := h.parseHash(w, r)
	if !ok {
		return
	}

	data, err := h.service.Fetch(r.Context(), hash)
	if err != nil {
		h.writeError(w, "could not fetch evidence", err)
		return
	}

	contentType := "application/octet-stream"
	if record, err := h.service.Record(r.Context(), hash); err == nil {
		if record.ContentType != "" {
			contentType = record.ContentType
		}
		if record.Filename != "" {
			w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": record.Filename}))
		}
	} else if !errors.Is(err, interfaces.ErrContentNotFound) {
		h.log.Warn("Could not load evidence record", "content_id", hash.Short(), "err", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Debug("Could not write evidence response", "err", err)
	}
}

// HandleRecord returns the catalog record.
//
// URL format: GET /api/evidence/{content_hash}/record
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	hash, ok := h.parseHash(w, r)
	if !ok {
		return
	}

	record, err := h.service.Record(r.Context(), hash)
	if err != nil {
		h.writeError(w, "could not load evidence record", err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// HandleList returns every catalog record, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "could not list evidence", err)
		return
	}
	if records == nil {
		records = []interfaces.EvidenceRecord{}
	}
	h.writeJSON(w, http.StatusOK, api.ListResponse{Count: len(records), Records: records})
}

// HandleStatus reports ledger network and storage reachability. It always
// answers 200; an unreachable storage backend turns the status to degraded.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	resp := api.StatusResponse{
		Status:           api.StatusHealthy,
		ClusterAvailable: status.ClusterAvailable,
		Storage:          api.StorageAvailable,
		Version:          common.Version,
	}
	if !status.StorageAvailable {
		resp.Status = api.StatusDegraded
		resp.Storage = api.StorageUnavailable
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) parseHash(w http.ResponseWriter, r *http.Request) (interfaces.ContentHash, bool) {
	hash, err := interfaces.NewContentHashFromHex(r.PathValue("content_hash"))
	if err != nil {
		http.Error(w, fmt.Errorf("invalid content hash: %w", err).Error(), http.StatusBadRequest)
		return interfaces.ContentHash{}, false
	}
	return hash, true
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, "err", err)
	}
	http.Error(w, fmt.Errorf("%s: %w", msg, err).Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("could not encode response", "err", err)
	}
}

// StatusForError maps a service error onto an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrAuthentication):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
