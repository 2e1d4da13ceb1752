package interfaces

import "context"

// KeyStore persists one EncryptionKey per content hash.
type KeyStore interface {
	// LoadKey returns the persisted key or ErrKeyNotFound.
	LoadKey(ctx context.Context, hash ContentHash) (EncryptionKey, error)

	// SaveKey persists key for hash, replacing any previous record.
	SaveKey(ctx context.Context, hash ContentHash, key EncryptionKey) error

	// Name returns identifier for logging.
	Name() string
}

// KeyManager hands out the deterministic key bound to a content hash.
type KeyManager interface {
	// GetOrCreateKey returns the persisted key for hash, deriving and
	// persisting it on first use.
	GetOrCreateKey(ctx context.Context, hash ContentHash) (EncryptionKey, error)
}

// CipherCodec performs authenticated symmetric encryption.
type CipherCodec interface {
	// Encrypt seals plaintext under key with a fresh nonce.
	Encrypt(plaintext []byte, key EncryptionKey) ([]byte, error)

	// Decrypt opens ciphertext produced by Encrypt.
	// Returns ErrAuthentication when the ciphertext does not verify.
	Decrypt(ciphertext []byte, key EncryptionKey) ([]byte, error)

	// Name returns the algorithm name.
	Name() string
}

// ContentStore addresses encrypted blobs by content hash.
type ContentStore interface {
	// Put stores blob under hash and returns the backend identifier.
	Put(ctx context.Context, hash ContentHash, blob []byte) (string, error)

	// Get returns the blob stored under hash or ErrContentNotFound.
	Get(ctx context.Context, hash ContentHash) ([]byte, error)
}

// EvidenceService is the boundary used by the HTTP layer.
type EvidenceService interface {
	// Submit hashes, encrypts and stores raw evidence bytes.
	Submit(ctx context.Context, raw []byte) (StorageDescriptor, error)

	// Fetch retrieves and decrypts the evidence stored under hash.
	Fetch(ctx context.Context, hash ContentHash) ([]byte, error)
}

// VerificationRequest describes the evidence handed to a VerificationProvider.
type VerificationRequest struct {
	ContentHash ContentHash
	ContentType string
	Size        int
}

// VerificationProvider produces a verification result for ingested evidence.
type VerificationProvider interface {
	Verify(ctx context.Context, req VerificationRequest) (VerificationResult, error)
}

// ClusterStatusProvider reports whether the ledger network is reachable.
type ClusterStatusProvider interface {
	Available(ctx context.Context) bool
}

// Catalog keeps one EvidenceRecord per content hash.
type Catalog interface {
	Put(ctx context.Context, record EvidenceRecord) error

	// Get returns the record for hash or ErrContentNotFound.
	Get(ctx context.Context, hash ContentHash) (EvidenceRecord, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]EvidenceRecord, error)
}
