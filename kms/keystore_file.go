package kms

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/verichain/interfaces"
)

// FileKeyStore persists one file per content hash:
//
//	<dir>/<hex content hash>   base64url encoded key
//
// Writes go through a temporary file and a rename, so a reader never sees a
// partially written key.
type FileKeyStore struct {
	dir string
	log *slog.Logger
}

var _ interfaces.KeyStore = (*FileKeyStore)(nil)

// NewFileKeyStore creates the key directory if it does not exist.
func NewFileKeyStore(dir string, log *slog.Logger) (*FileKeyStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty key directory", interfaces.ErrPersistence)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: failed to create key directory: %w", interfaces.ErrPersistence, err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &FileKeyStore{dir: dir, log: log}, nil
}

func (s *FileKeyStore) LoadKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	data, err := os.ReadFile(s.keyPath(hash))
	if os.IsNotExist(err) {
		return interfaces.EncryptionKey{}, interfaces.ErrKeyNotFound
	}
	if err != nil {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: failed to read key file: %w", interfaces.ErrPersistence, err)
	}

	return decodeKeyRecord(strings.TrimSpace(string(data)))
}

func (s *FileKeyStore) SaveKey(ctx context.Context, hash interfaces.ContentHash, key interfaces.EncryptionKey) error {
	tmp, err := os.CreateTemp(s.dir, ".key-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary key file: %w", interfaces.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(encodeKeyRecord(key)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write key file: %w", interfaces.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to sync key file: %w", interfaces.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close key file: %w", interfaces.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.keyPath(hash)); err != nil {
		return fmt.Errorf("%w: failed to commit key file: %w", interfaces.ErrPersistence, err)
	}

	s.log.Debug("Stored content key in file", slog.String("content_id", hash.Short()))
	return nil
}

func (s *FileKeyStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.dir))
}

func (s *FileKeyStore) keyPath(hash interfaces.ContentHash) string {
	return filepath.Join(s.dir, hash.String())
}

func encodeKeyRecord(key interfaces.EncryptionKey) string {
	return base64.URLEncoding.EncodeToString(key[:])
}

func decodeKeyRecord(record string) (interfaces.EncryptionKey, error) {
	raw, err := base64.URLEncoding.DecodeString(record)
	if err != nil {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: malformed key record: %w", interfaces.ErrPersistence, err)
	}

	key, err := interfaces.NewEncryptionKeyFromBytes(raw)
	if err != nil {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: malformed key record: %w", interfaces.ErrPersistence, err)
	}
	return key, nil
}
