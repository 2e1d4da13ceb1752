package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/verichain/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the behaviour shared by every StorageBackend.
func exerciseBackend(t *testing.T, backend interfaces.StorageBackend) {
	ctx := context.Background()
	hash := interfaces.ComputeContentHash([]byte("evidence-1"))

	require.True(t, backend.Available(ctx))
	assert.NotEmpty(t, backend.Name())
	assert.NotEmpty(t, backend.LocationURI())

	_, err := backend.Fetch(ctx, hash)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	require.NoError(t, backend.Store(ctx, hash, []byte("first blob")))
	data, err := backend.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("first blob"), data)

	// Overwrite is silent, last write wins
	require.NoError(t, backend.Store(ctx, hash, []byte("second blob")))
	data, err = backend.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("second blob"), data)

	emptyHash := interfaces.ComputeContentHash(nil)
	require.NoError(t, backend.Store(ctx, emptyHash, []byte{}))
	data, err = backend.Fetch(ctx, emptyHash)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend("test")
	exerciseBackend(t, backend)
	assert.Equal(t, 2, backend.Len())

	// Stored blobs are isolated from caller mutations
	ctx := context.Background()
	hash := interfaces.ComputeContentHash([]byte("isolated"))
	blob := []byte("isolated")
	require.NoError(t, backend.Store(ctx, hash, blob))
	blob[0] = 'X'

	data, err := backend.Fetch(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("isolated"), data)
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(filepath.Join(dir, "blobs"), testLogger())
	require.NoError(t, err)
	exerciseBackend(t, backend)

	hash := interfaces.ComputeContentHash([]byte("evidence-1"))
	hexHash := hash.String()
	data, err := os.ReadFile(filepath.Join(dir, "blobs", hexHash[:2], hexHash))
	require.NoError(t, err, "Blob is sharded by the first hash byte")
	assert.Equal(t, []byte("second blob"), data)

	entries, err := os.ReadDir(filepath.Join(dir, "blobs", hexHash[:2]))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".blob-", "No temporary files left behind")
	}

	assert.Equal(t, "file://"+filepath.Join(dir, "blobs"), backend.LocationURI())
}

func TestFileBackend_Failures(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "blobs")
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	hash := interfaces.ComputeContentHash([]byte("evidence-1"))
	require.NoError(t, backend.Store(ctx, hash, []byte("stored")))

	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0644))

	err = backend.Store(ctx, hash, []byte("blob"))
	assert.ErrorIs(t, err, interfaces.ErrStorageIO)

	_, err = backend.Fetch(ctx, hash)
	assert.ErrorIs(t, err, interfaces.ErrStorageIO)
}

func TestContentStore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend("store")
	store := NewContentStore(backend, testLogger())

	hash := interfaces.ComputeContentHash([]byte("evidence-1"))
	blob := []byte("ciphertext bytes")

	identifier, err := store.Put(ctx, hash, blob)
	require.NoError(t, err)
	assert.Equal(t, BackendIdentifier("memory", blob), identifier)
	assert.Regexp(t, `^memory-[0-9a-f]{16}$`, identifier)

	data, err := store.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, blob, data)

	again, err := store.Put(ctx, hash, blob)
	require.NoError(t, err)
	assert.Equal(t, identifier, again, "Identical blobs get identical identifiers")
	assert.Equal(t, 1, backend.Len())

	_, err = store.Get(ctx, interfaces.ComputeContentHash([]byte("missing")))
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestContentStore_BackendFailure(t *testing.T) {
	ctx := context.Background()
	hash := interfaces.ComputeContentHash([]byte("evidence-1"))

	backend := &MockStorageBackend{name: "broken"}
	backend.On("Store", ctx, hash, []byte("blob")).Return(os.ErrPermission)
	backend.On("Fetch", ctx, hash).Return(nil, os.ErrDeadlineExceeded)

	store := NewContentStore(backend, testLogger())

	_, err := store.Put(ctx, hash, []byte("blob"))
	assert.ErrorIs(t, err, interfaces.ErrStorageIO)
	assert.ErrorIs(t, err, os.ErrPermission)

	_, err = store.Get(ctx, hash)
	assert.ErrorIs(t, err, interfaces.ErrStorageIO)
	assert.NotErrorIs(t, err, interfaces.ErrContentNotFound)

	backend.AssertExpectations(t)
}

func TestBackendIdentifier(t *testing.T) {
	// sha256("abc") = ba7816bf8f01cfea...
	assert.Equal(t, "ipfs-ba7816bf8f01cfea", BackendIdentifier("ipfs", []byte("abc")))
	assert.Equal(t, "file-e3b0c44298fc1c14", BackendIdentifier("file", nil))
}
