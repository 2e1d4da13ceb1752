package interfaces

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContentHash is a 32-byte SHA-256 digest of raw evidence bytes.
// It is the primary key for keys, blobs and catalog records.
type ContentHash [32]byte

// ComputeContentHash calculates the content hash of data.
func ComputeContentHash(data []byte) ContentHash {
	return ContentHash(sha256.Sum256(data))
}

// NewContentHashFromBytes creates a content hash from a 32-byte slice.
func NewContentHashFromBytes(source []byte) (ContentHash, error) {
	if len(source) != 32 {
		return ContentHash{}, errors.New("invalid content hash conversion from bytes: incorrect length")
	}

	var hash ContentHash
	copy(hash[:], source)
	return hash, nil
}

// NewContentHashFromHex parses a 64-character hex string, with or without a 0x prefix.
func NewContentHashFromHex(source string) (ContentHash, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ContentHash{}, errors.New("invalid content hash length: hex string must be 64 characters")
	}

	hashBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ContentHash{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewContentHashFromBytes(hashBytes)
}

// String returns the lowercase hex representation.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 8 bytes in hex, used as a log attribute.
func (h ContentHash) Short() string {
	return hex.EncodeToString(h[:8])
}

// Bytes returns the raw 32-byte hash.
func (h ContentHash) Bytes() []byte {
	return h[:]
}

// Equal compares two content hashes.
func (h ContentHash) Equal(other ContentHash) bool {
	return bytes.Equal(h[:], other[:])
}

// IsZero reports whether the hash is unset.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// MarshalText encodes the hash as hex so JSON carries a readable string.
func (h ContentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hex encoded hash.
func (h *ContentHash) UnmarshalText(text []byte) error {
	parsed, err := NewContentHashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// EncryptionKeySize is the length of an EncryptionKey in bytes.
const EncryptionKeySize = 32

// EncryptionKey is a 256-bit symmetric key bound to exactly one ContentHash.
type EncryptionKey [EncryptionKeySize]byte

// NewEncryptionKeyFromBytes creates a key from a 32-byte slice.
func NewEncryptionKeyFromBytes(source []byte) (EncryptionKey, error) {
	if len(source) != EncryptionKeySize {
		return EncryptionKey{}, fmt.Errorf("invalid key length: got %d bytes, want %d", len(source), EncryptionKeySize)
	}

	var key EncryptionKey
	copy(key[:], source)
	return key, nil
}

// Bytes returns the raw key material.
func (k EncryptionKey) Bytes() []byte {
	return k[:]
}

// StorageDescriptor is returned to callers after a successful submission.
// ContentHash is the only address accepted for retrieval; BackendIdentifier
// is a digest of the stored ciphertext reported for display.
type StorageDescriptor struct {
	ContentHash       ContentHash `json:"content_hash"`
	BackendIdentifier string      `json:"backend_identifier"`
	Encrypted         bool        `json:"encrypted"`
	// Size is the length of the stored ciphertext in bytes.
	Size int `json:"size"`
}

// VerificationResult is the typed outcome returned by a VerificationProvider.
type VerificationResult struct {
	Provider string            `json:"provider"`
	Status   string            `json:"status"`
	Method   string            `json:"method"`
	Verified bool              `json:"verified"`
	Details  map[string]string `json:"details,omitempty"`
}

// EvidenceRecord is the catalog entry written for every ingested file.
type EvidenceRecord struct {
	ContentHash      ContentHash        `json:"content_hash"`
	Filename         string             `json:"filename"`
	ContentType      string             `json:"content_type"`
	PlaintextSize    int                `json:"plaintext_size"`
	Descriptor       StorageDescriptor  `json:"descriptor"`
	Verification     VerificationResult `json:"verification"`
	ClusterAvailable bool               `json:"cluster_available"`
	ReceivedAt       time.Time          `json:"received_at"`
}
