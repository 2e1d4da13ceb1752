package api

import (
	"github.com/ruteri/verichain/interfaces"
)

// Status values reported by GET /api/status.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	StorageAvailable   = "available"
	StorageUnavailable = "unavailable"
)

// UploadResponse is returned by POST /api/evidence.
type UploadResponse struct {
	// ContentHash is the only address accepted for retrieval.
	ContentHash interfaces.ContentHash `json:"content_hash"`

	// Storage describes the stored ciphertext.
	Storage interfaces.StorageDescriptor `json:"storage"`

	// Record is the catalog entry written for the upload.
	Record interfaces.EvidenceRecord `json:"record"`
}

// ListResponse is returned by GET /api/evidence. Records are newest first.
type ListResponse struct {
	Count   int                         `json:"count"`
	Records []interfaces.EvidenceRecord `json:"records"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Status           string `json:"status"`
	ClusterAvailable bool   `json:"cluster_available"`
	Storage          string `json:"storage"`
	Version          string `json:"version"`
}
