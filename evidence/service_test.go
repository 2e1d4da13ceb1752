package evidence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/verichain/catalog"
	"github.com/ruteri/verichain/cluster"
	"github.com/ruteri/verichain/cryptoutils"
	"github.com/ruteri/verichain/interfaces"
	"github.com/ruteri/verichain/kms"
	"github.com/ruteri/verichain/metrics"
	"github.com/ruteri/verichain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	keyStore *kms.MemoryKeyStore
	backend  *storage.MemoryBackend
	catalog  *catalog.MemoryCatalog
	metrics  *metrics.EvidenceMetrics
	svc      *Service
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		keyStore: kms.NewMemoryKeyStore(),
		backend:  storage.NewMemoryBackend("test"),
		catalog:  catalog.NewMemoryCatalog(),
		metrics:  metrics.NewEvidenceMetrics(nil),
	}

	keys := kms.NewContentKeyManager(env.keyStore, log,
		kms.WithKDFParams(cryptoutils.KDFParams{Iterations: 16, Salt: []byte("verichain_salt")}))

	opts = append([]Option{
		WithCatalog(env.catalog),
		WithMetrics(env.metrics),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)

	env.svc = NewService(keys, cryptoutils.AESGCMCodec{}, storage.NewContentStore(env.backend, log), log, opts...)
	return env
}

func TestService_SubmitAndFetch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	raw := []byte("evidence-1")
	descriptor, err := env.svc.Submit(ctx, raw)
	require.NoError(t, err)

	expectedHash := interfaces.ComputeContentHash(raw)
	assert.Equal(t, expectedHash, descriptor.ContentHash)
	assert.True(t, descriptor.Encrypted)
	assert.Equal(t, len(raw)+1+12+16, descriptor.Size, "version byte, nonce and tag around the ciphertext")
	assert.Regexp(t, `^memory-[0-9a-f]{16}$`, descriptor.BackendIdentifier)

	stored, err := env.backend.Fetch(ctx, expectedHash)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "evidence-1", "Only ciphertext reaches the backend")
	assert.Equal(t, storage.BackendIdentifier("memory", stored), descriptor.BackendIdentifier)

	data, err := env.svc.Fetch(ctx, expectedHash)
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Submissions.WithLabelValues(metrics.ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Fetches.WithLabelValues(metrics.ResultSuccess)))
	assert.Equal(t, float64(descriptor.Size), testutil.ToFloat64(env.metrics.StoredBytes))
}

func TestService_EmptyEvidence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	descriptor, err := env.svc.Submit(ctx, []byte{})
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeContentHash(nil), descriptor.ContentHash)

	data, err := env.svc.Fetch(ctx, descriptor.ContentHash)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestService_DuplicateSubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	raw := []byte("evidence-1")
	first, err := env.svc.Submit(ctx, raw)
	require.NoError(t, err)
	firstBlob, err := env.backend.Fetch(ctx, first.ContentHash)
	require.NoError(t, err)

	second, err := env.svc.Submit(ctx, raw)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.Size, second.Size)
	assert.NotEqual(t, first.BackendIdentifier, second.BackendIdentifier, "Fresh nonce per encryption")
	assert.Equal(t, 1, env.keyStore.Len(), "One key per hash")
	assert.Equal(t, 1, env.backend.Len(), "One blob per hash")

	secondBlob, err := env.backend.Fetch(ctx, first.ContentHash)
	require.NoError(t, err)
	assert.NotEqual(t, firstBlob, secondBlob, "Last write wins")

	data, err := env.svc.Fetch(ctx, first.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestService_FetchErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("missing content", func(t *testing.T) {
		_, err := env.svc.Fetch(ctx, interfaces.ComputeContentHash([]byte("never submitted")))
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

		var opErr *interfaces.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, OpGet, opErr.Op)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Fetches.WithLabelValues(metrics.ResultNotFound)))
	})

	t.Run("tampered blob", func(t *testing.T) {
		descriptor, err := env.svc.Submit(ctx, []byte("evidence-2"))
		require.NoError(t, err)

		blob, err := env.backend.Fetch(ctx, descriptor.ContentHash)
		require.NoError(t, err)
		blob[len(blob)-1] ^= 0x01
		require.NoError(t, env.backend.Store(ctx, descriptor.ContentHash, blob))

		_, err = env.svc.Fetch(ctx, descriptor.ContentHash)
		assert.ErrorIs(t, err, interfaces.ErrAuthentication)

		var opErr *interfaces.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, OpDecrypt, opErr.Op)
		assert.Equal(t, descriptor.ContentHash, opErr.Hash)
	})

	t.Run("blob stored under another hash", func(t *testing.T) {
		a, err := env.svc.Submit(ctx, []byte("evidence-a"))
		require.NoError(t, err)
		b, err := env.svc.Submit(ctx, []byte("evidence-b"))
		require.NoError(t, err)

		blobA, err := env.backend.Fetch(ctx, a.ContentHash)
		require.NoError(t, err)
		require.NoError(t, env.backend.Store(ctx, b.ContentHash, blobA))

		_, err = env.svc.Fetch(ctx, b.ContentHash)
		assert.ErrorIs(t, err, interfaces.ErrAuthentication)
	})
}

type failingKeyManager struct{ err error }

func (f failingKeyManager) GetOrCreateKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	return interfaces.EncryptionKey{}, f.err
}

type failingBackend struct {
	*storage.MemoryBackend
	err error
}

func (f failingBackend) Store(ctx context.Context, hash interfaces.ContentHash, blob []byte) error {
	return f.err
}

func TestService_SubmitErrors(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	raw := []byte("evidence-1")
	hash := interfaces.ComputeContentHash(raw)

	t.Run("key persistence failure", func(t *testing.T) {
		backend := storage.NewMemoryBackend("keys-down")
		m := metrics.NewEvidenceMetrics(nil)
		svc := NewService(failingKeyManager{err: interfaces.ErrPersistence}, cryptoutils.AESGCMCodec{},
			storage.NewContentStore(backend, log), log, WithMetrics(m))

		_, err := svc.Submit(ctx, raw)
		assert.ErrorIs(t, err, interfaces.ErrPersistence)

		var opErr *interfaces.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, OpGetOrCreateKey, opErr.Op)
		assert.Equal(t, hash, opErr.Hash)
		assert.Equal(t, 0, backend.Len(), "Nothing stored")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.ResultError)))
	})

	t.Run("key derivation failure", func(t *testing.T) {
		keys := kms.NewContentKeyManager(kms.NewMemoryKeyStore(), log, kms.WithKDFParams(cryptoutils.KDFParams{}))
		svc := NewService(keys, cryptoutils.AESGCMCodec{}, storage.NewContentStore(storage.NewMemoryBackend(""), log), log)

		_, err := svc.Submit(ctx, raw)
		assert.ErrorIs(t, err, interfaces.ErrKeyDerivation)
	})

	t.Run("storage failure", func(t *testing.T) {
		storeErr := errors.New("disk full")
		keyStore := kms.NewMemoryKeyStore()
		keys := kms.NewContentKeyManager(keyStore, log, kms.WithKDFParams(cryptoutils.KDFParams{Iterations: 16, Salt: []byte("s")}))
		backend := failingBackend{MemoryBackend: storage.NewMemoryBackend("broken"), err: storeErr}
		svc := NewService(keys, cryptoutils.AESGCMCodec{}, storage.NewContentStore(backend, log), log)

		_, err := svc.Submit(ctx, raw)
		assert.ErrorIs(t, err, interfaces.ErrStorageIO)
		assert.ErrorIs(t, err, storeErr)

		var opErr *interfaces.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, OpPut, opErr.Op)
		assert.Equal(t, 1, keyStore.Len(), "The key created before the failed write is kept")
	})

	t.Run("cancelled context", func(t *testing.T) {
		env := newTestEnv(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := env.svc.Submit(cancelled, raw)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, env.backend.Len())
	})
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, WithClusterStatus(cluster.StaticStatus(true)))

	receipt, err := env.svc.Ingest(ctx, Submission{
		Filename: "../../etc/report.txt",
		Data:     []byte("evidence-1"),
	})
	require.NoError(t, err)

	record := receipt.Record
	assert.Equal(t, interfaces.ComputeContentHash([]byte("evidence-1")), record.ContentHash)
	assert.Equal(t, "report.txt", record.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", record.ContentType, "Content type is sniffed when missing")
	assert.Equal(t, 10, record.PlaintextSize)
	assert.Equal(t, receipt.Descriptor, record.Descriptor)
	assert.Equal(t, "document_stub", record.Verification.Method)
	assert.Equal(t, "not_analyzed", record.Verification.Status)
	assert.False(t, record.Verification.Verified)
	assert.True(t, record.ClusterAvailable)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), record.ReceivedAt)

	stored, err := env.svc.Record(ctx, record.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, record, stored)

	_, err = env.svc.Ingest(ctx, Submission{Filename: "photo.png", ContentType: "image/png", Data: []byte("not really a png")})
	require.NoError(t, err)

	records, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	status := env.svc.Status(ctx)
	assert.True(t, status.ClusterAvailable)
	assert.True(t, status.StorageAvailable)
}

type failingVerifier struct{}

func (failingVerifier) Verify(ctx context.Context, req interfaces.VerificationRequest) (interfaces.VerificationResult, error) {
	return interfaces.VerificationResult{}, errors.New("analysis backend offline")
}

func TestService_IngestVerificationFailureKeepsBlob(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, WithVerifier(failingVerifier{}))

	_, err := env.svc.Ingest(ctx, Submission{Filename: "a.bin", Data: []byte("evidence-1")})
	var opErr *interfaces.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpVerify, opErr.Op)

	hash := interfaces.ComputeContentHash([]byte("evidence-1"))
	data, err := env.svc.Fetch(ctx, hash)
	require.NoError(t, err, "The stored blob remains retrievable")
	assert.Equal(t, []byte("evidence-1"), data)

	_, err = env.svc.Record(ctx, hash)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":             "report.pdf",
		"dir/report.pdf":         "report.pdf",
		"..\\..\\windows\\a.txt": "a.txt",
		"":                       "evidence",
		"/":                      "evidence",
		"  spaced.txt ":          "spaced.txt",
	}
	for input, want := range tests {
		assert.Equal(t, want, sanitizeFilename(input), input)
	}
}

func TestService_ConcurrentSameHash(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	keyStore, err := kms.NewFileKeyStore(filepath.Join(dir, "keys"), log)
	require.NoError(t, err)
	backend, err := storage.NewFileBackend(filepath.Join(dir, "blobs"), log)
	require.NoError(t, err)

	keys := kms.NewContentKeyManager(keyStore, log,
		kms.WithKDFParams(cryptoutils.KDFParams{Iterations: 16, Salt: []byte("verichain_salt")}))
	svc := NewService(keys, cryptoutils.AESGCMCodec{}, storage.NewContentStore(backend, log), log)

	raw := []byte("evidence-1")
	hash := interfaces.ComputeContentHash(raw)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, 2*workers)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Submit(ctx, raw); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			data, err := svc.Fetch(ctx, hash)
			if err != nil {
				if !errors.Is(err, interfaces.ErrContentNotFound) {
					errs <- err
				}
				return
			}
			if string(data) != string(raw) {
				errs <- errors.New("fetched bytes differ from submission")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	fetched, err := svc.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, raw, fetched)

	key, err := keyStore.LoadKey(ctx, hash)
	require.NoError(t, err)
	derived, err := cryptoutils.DeriveContentKey(hash, cryptoutils.KDFParams{Iterations: 16, Salt: []byte("verichain_salt")})
	require.NoError(t, err)
	assert.Equal(t, derived, key)
}
