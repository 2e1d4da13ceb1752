package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/verichain/interfaces"
)

// ContentStore addresses encrypted blobs by the content hash of their
// plaintext. It implements interfaces.ContentStore over any StorageBackend.
type ContentStore struct {
	backend interfaces.StorageBackend
	scheme  string
	log     *slog.Logger
}

var _ interfaces.ContentStore = (*ContentStore)(nil)

// NewContentStore wraps backend. The backend identifier scheme is taken from
// the backend location URI.
func NewContentStore(backend interfaces.StorageBackend, log *slog.Logger) *ContentStore {
	if log == nil {
		log = slog.Default()
	}

	scheme, _, found := strings.Cut(backend.LocationURI(), ":")
	if !found || scheme == "" {
		scheme = "blob"
	}

	return &ContentStore{
		backend: backend,
		scheme:  scheme,
		log:     log,
	}
}

// Put stores blob under hash, replacing any previous blob, and returns the
// backend identifier of the stored bytes.
func (s *ContentStore) Put(ctx context.Context, hash interfaces.ContentHash, blob []byte) (string, error) {
	start := time.Now()

	if err := s.backend.Store(ctx, hash, blob); err != nil {
		s.log.Error("Failed to store blob",
			slog.String("content_id", hash.Short()),
			slog.String("backend", s.backend.Name()),
			"err", err)
		return "", ioError("put", err)
	}

	identifier := BackendIdentifier(s.scheme, blob)

	s.log.Debug("Stored blob",
		slog.String("content_id", hash.Short()),
		slog.String("backend_identifier", identifier),
		slog.Int("size", len(blob)),
		slog.Duration("duration", time.Since(start)))

	return identifier, nil
}

// Get returns the blob stored under hash.
func (s *ContentStore) Get(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	blob, err := s.backend.Fetch(ctx, hash)
	if errors.Is(err, interfaces.ErrContentNotFound) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		s.log.Error("Failed to fetch blob",
			slog.String("content_id", hash.Short()),
			slog.String("backend", s.backend.Name()),
			"err", err)
		return nil, ioError("get", err)
	}
	return blob, nil
}

// Backend returns the underlying storage backend.
func (s *ContentStore) Backend() interfaces.StorageBackend {
	return s.backend
}

// BackendIdentifier formats the display identifier of a stored blob:
// <scheme>-<first 16 hex chars of sha256(blob)>.
func BackendIdentifier(scheme string, blob []byte) string {
	sum := sha256.Sum256(blob)
	return scheme + "-" + hex.EncodeToString(sum[:8])
}
