package evidence

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruteri/verichain/catalog"
	"github.com/ruteri/verichain/cluster"
	"github.com/ruteri/verichain/interfaces"
	"github.com/ruteri/verichain/metrics"
	"github.com/ruteri/verichain/verification"
)

// Operation names carried by interfaces.OperationError.
const (
	OpSubmit         = "submit"
	OpFetch          = "fetch"
	OpGetOrCreateKey = "get_or_create_key"
	OpEncrypt        = "encrypt"
	OpDecrypt        = "decrypt"
	OpPut            = "put"
	OpGet            = "get"
	OpVerify         = "verify"
	OpCatalog        = "catalog"
)

const defaultFilename = "evidence"

// Submission is a file handed to Ingest.
type Submission struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IngestReceipt is returned by Ingest.
type IngestReceipt struct {
	Descriptor interfaces.StorageDescriptor
	Record     interfaces.EvidenceRecord
}

// Status summarizes the reachability of the service dependencies.
type Status struct {
	ClusterAvailable bool
	StorageAvailable bool
}

// Service implements interfaces.EvidenceService.
type Service struct {
	keys     interfaces.KeyManager
	codec    interfaces.CipherCodec
	store    interfaces.ContentStore
	catalog  interfaces.Catalog
	verifier interfaces.VerificationProvider
	cluster  interfaces.ClusterStatusProvider
	metrics  *metrics.EvidenceMetrics
	log      *slog.Logger
	now      func() time.Time
}

var _ interfaces.EvidenceService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

func WithCatalog(c interfaces.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

func WithVerifier(v interfaces.VerificationProvider) Option {
	return func(s *Service) { s.verifier = v }
}

func WithClusterStatus(c interfaces.ClusterStatusProvider) Option {
	return func(s *Service) { s.cluster = c }
}

func WithMetrics(m *metrics.EvidenceMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the source of ReceivedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService assembles the evidence pipeline. Without options records are
// kept in memory, verification is the stub provider and the ledger network is
// reported unavailable.
func NewService(keys interfaces.KeyManager, codec interfaces.CipherCodec, store interfaces.ContentStore, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		keys:     keys,
		codec:    codec,
		store:    store,
		catalog:  catalog.NewMemoryCatalog(),
		verifier: verification.NewStubProvider(),
		cluster:  cluster.StaticStatus(false),
		metrics:  metrics.NewEvidenceMetrics(nil),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit hashes raw, encrypts it under the key bound to its hash and stores
// the ciphertext. Submitting identical bytes again overwrites the stored blob
// with a fresh encryption under the same key.
//
// Every error is an *interfaces.OperationError naming the failed step.
func (s *Service) Submit(ctx context.Context, raw []byte) (interfaces.StorageDescriptor, error) {
	start := time.Now()
	defer s.metrics.ObserveDuration(OpSubmit, start)

	hash := interfaces.ComputeContentHash(raw)

	descriptor, err := s.submit(ctx, hash, raw)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.ResultError).Inc()
		s.log.Error("Failed to submit evidence",
			slog.String("content_id", hash.Short()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return interfaces.StorageDescriptor{}, err
	}

	s.metrics.Submissions.WithLabelValues(metrics.ResultSuccess).Inc()
	s.metrics.StoredBytes.Add(float64(descriptor.Size))
	s.log.Info("Stored evidence",
		slog.String("content_id", hash.Short()),
		slog.String("backend_identifier", descriptor.BackendIdentifier),
		slog.Int("size", descriptor.Size),
		slog.Duration("duration", time.Since(start)))

	return descriptor, nil
}

func (s *Service) submit(ctx context.Context, hash interfaces.ContentHash, raw []byte) (interfaces.StorageDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.StorageDescriptor{}, interfaces.NewOperationError(OpSubmit, hash, err)
	}

	key, err := s.keys.GetOrCreateKey(ctx, hash)
	if err != nil {
		return interfaces.StorageDescriptor{}, interfaces.NewOperationError(OpGetOrCreateKey, hash, err)
	}

	blob, err := s.codec.Encrypt(raw, key)
	if err != nil {
		return interfaces.StorageDescriptor{}, interfaces.NewOperationError(OpEncrypt, hash, err)
	}

	identifier, err := s.store.Put(ctx, hash, blob)
	if err != nil {
		return interfaces.StorageDescriptor{}, interfaces.NewOperationError(OpPut, hash, err)
	}

	return interfaces.StorageDescriptor{
		ContentHash:       hash,
		BackendIdentifier: identifier,
		Encrypted:         true,
		Size:              len(blob),
	}, nil
}

// Fetch loads and decrypts the evidence stored under hash.
// Missing content surfaces as interfaces.ErrContentNotFound and a blob that
// fails to verify as interfaces.ErrAuthentication.
func (s *Service) Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	start := time.Now()
	defer s.metrics.ObserveDuration(OpFetch, start)

	data, err := s.fetch(ctx, hash)
	switch {
	case errors.Is(err, interfaces.ErrContentNotFound):
		s.metrics.Fetches.WithLabelValues(metrics.ResultNotFound).Inc()
		s.log.Debug("Evidence not found", slog.String("content_id", hash.Short()))
		return nil, err
	case err != nil:
		s.metrics.Fetches.WithLabelValues(metrics.ResultError).Inc()
		s.log.Error("Failed to fetch evidence",
			slog.String("content_id", hash.Short()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	s.metrics.Fetches.WithLabelValues(metrics.ResultSuccess).Inc()
	s.log.Debug("Fetched evidence",
		slog.String("content_id", hash.Short()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

func (s *Service) fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, interfaces.NewOperationError(OpFetch, hash, err)
	}

	blob, err := s.store.Get(ctx, hash)
	if err != nil {
		return nil, interfaces.NewOperationError(OpGet, hash, err)
	}

	key, err := s.keys.GetOrCreateKey(ctx, hash)
	if err != nil {
		return nil, interfaces.NewOperationError(OpGetOrCreateKey, hash, err)
	}

	data, err := s.codec.Decrypt(blob, key)
	if err != nil {
		return nil, interfaces.NewOperationError(OpDecrypt, hash, err)
	}
	return data, nil
}

// Ingest submits a file and records it in the catalog together with its
// verification result and the ledger network availability at the time.
//
// A failure after the blob was stored is returned as an error, but the blob
// stays in place; resubmitting the file rewrites the record.
func (s *Service) Ingest(ctx context.Context, sub Submission) (IngestReceipt, error) {
	contentType := strings.TrimSpace(sub.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(sub.Data)
	}

	descriptor, err := s.Submit(ctx, sub.Data)
	if err != nil {
		return IngestReceipt{}, err
	}
	hash := descriptor.ContentHash

	result, err := s.verifier.Verify(ctx, interfaces.VerificationRequest{
		ContentHash: hash,
		ContentType: contentType,
		Size:        len(sub.Data),
	})
	if err != nil {
		s.log.Error("Failed to verify evidence", slog.String("content_id", hash.Short()), "err", err)
		return IngestReceipt{}, interfaces.NewOperationError(OpVerify, hash, err)
	}

	record := interfaces.EvidenceRecord{
		ContentHash:      hash,
		Filename:         sanitizeFilename(sub.Filename),
		ContentType:      contentType,
		PlaintextSize:    len(sub.Data),
		Descriptor:       descriptor,
		Verification:     result,
		ClusterAvailable: s.cluster.Available(ctx),
		ReceivedAt:       s.now().UTC(),
	}

	if err := s.catalog.Put(ctx, record); err != nil {
		s.log.Error("Failed to record evidence", slog.String("content_id", hash.Short()), "err", err)
		return IngestReceipt{}, interfaces.NewOperationError(OpCatalog, hash, err)
	}

	s.log.Info("Ingested evidence",
		slog.String("content_id", hash.Short()),
		slog.String("filename", record.Filename),
		slog.String("content_type", contentType),
		slog.String("verification_method", result.Method),
		slog.Bool("cluster_available", record.ClusterAvailable))

	return IngestReceipt{Descriptor: descriptor, Record: record}, nil
}

// Record returns the catalog record for hash.
func (s *Service) Record(ctx context.Context, hash interfaces.ContentHash) (interfaces.EvidenceRecord, error) {
	return s.catalog.Get(ctx, hash)
}

// List returns all catalog records, newest first.
func (s *Service) List(ctx context.Context) ([]interfaces.EvidenceRecord, error) {
	return s.catalog.List(ctx)
}

// Status checks the ledger network and, when the content store exposes its
// backend, the storage backend.
func (s *Service) Status(ctx context.Context) Status {
	status := Status{ClusterAvailable: s.cluster.Available(ctx)}

	if withBackend, ok := s.store.(interface {
		Backend() interfaces.StorageBackend
	}); ok {
		status.StorageAvailable = withBackend.Backend().Available(ctx)
	} else {
		status.StorageAvailable = true
	}
	return status
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return defaultFilename
	}
	return name
}
