package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/verichain/interfaces"
)

// FileBackend implements a storage backend using the local file system.
// Blobs are sharded by the first byte of their content hash:
//
//	{base}/{hex[:2]}/{hex}
//
// Writes go through a temporary file in the shard directory and a rename, so
// concurrent readers see either the previous blob or the new one.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

var _ interfaces.StorageBackend = (*FileBackend)(nil)

// NewFileBackend creates a new file storage backend rooted at baseDir,
// creating the directory if it doesn't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", interfaces.ErrInvalidLocationURI)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, ioError("failed to create base directory", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves the blob stored under hash.
// Returns ErrContentNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	filePath := b.getFilePath(hash)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, ioError("failed to read file", err)
	}

	b.log.Debug("Fetched content from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes blob under hash, replacing any previous file.
func (b *FileBackend) Store(ctx context.Context, hash interfaces.ContentHash, blob []byte) error {
	filePath := b.getFilePath(hash)
	shardDir := filepath.Dir(filePath)

	if err := os.MkdirAll(shardDir, 0755); err != nil {
		return ioError("failed to create directory", err)
	}

	tmp, err := os.CreateTemp(shardDir, ".blob-*")
	if err != nil {
		return ioError("failed to create temporary file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return ioError("failed to write file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ioError("failed to sync file", err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("failed to close file", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return ioError("failed to set file mode", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return ioError("failed to commit file", err)
	}

	b.log.Debug("Stored content in file",
		slog.String("path", filePath),
		slog.String("content_id", hash.Short()))

	return nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) getFilePath(hash interfaces.ContentHash) string {
	hexHash := hash.String()
	return filepath.Join(b.baseDir, hexHash[:2], hexHash)
}
