package kms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ruteri/verichain/interfaces"
	"go.etcd.io/bbolt"
)

var bucketContentKeys = []byte("content_keys")

// BoltKeyStore persists keys in a single bbolt database, bucket content_keys,
// keyed by the raw 32-byte content hash.
type BoltKeyStore struct {
	db   *bbolt.DB
	path string
}

var _ interfaces.KeyStore = (*BoltKeyStore)(nil)

// OpenBoltKeyStore opens or creates the database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltKeyStore(dbPath string) (*BoltKeyStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", interfaces.ErrPersistence, err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db: %w", interfaces.ErrPersistence, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketContentKeys)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", interfaces.ErrPersistence, err)
	}

	return &BoltKeyStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (s *BoltKeyStore) Close() error { return s.db.Close() }

func (s *BoltKeyStore) LoadKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	var key interfaces.EncryptionKey
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketContentKeys).Get(hash[:])
		if v == nil {
			return interfaces.ErrKeyNotFound
		}

		var err error
		key, err = interfaces.NewEncryptionKeyFromBytes(v)
		if err != nil {
			return fmt.Errorf("%w: malformed key record: %w", interfaces.ErrPersistence, err)
		}
		return nil
	})
	return key, err
}

func (s *BoltKeyStore) SaveKey(ctx context.Context, hash interfaces.ContentHash, key interfaces.EncryptionKey) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketContentKeys).Put(hash[:], key[:])
	})
	if err != nil {
		return fmt.Errorf("%w: write key: %w", interfaces.ErrPersistence, err)
	}
	return nil
}

func (s *BoltKeyStore) Name() string {
	return fmt.Sprintf("bolt-%s", filepath.Base(s.path))
}
