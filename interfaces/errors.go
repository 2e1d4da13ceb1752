package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyDerivation is returned when the key derivation primitive fails.
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrPersistence is returned when key material cannot be written to or read from durable storage.
	ErrPersistence = errors.New("key persistence failed")

	// ErrKeyNotFound is returned by a KeyStore that has no record for a content hash.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAuthentication is returned when a ciphertext does not verify under the given key.
	// This covers wrong keys, corrupted blobs and input that is not ciphertext at all.
	ErrAuthentication = errors.New("ciphertext authentication failed")

	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrStorageIO is returned when the underlying storage backend fails.
	ErrStorageIO = errors.New("storage I/O failure")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	// It is always reported together with ErrStorageIO.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// OperationError records the operation and content hash an error belongs to.
type OperationError struct {
	Op   string
	Hash ContentHash
	Err  error
}

// NewOperationError wraps err with op and hash. A nil err yields nil.
func NewOperationError(op string, hash ContentHash, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Hash: hash, Err: err}
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Hash.Short(), e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
