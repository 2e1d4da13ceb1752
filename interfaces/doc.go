// Package interfaces defines core interfaces and types for the evidence store,
// separating interface definitions from implementations.
//
// # Addressing
//
// Every piece of persisted state is keyed by ContentHash, the SHA-256 digest of
// the raw evidence bytes:
//
//   - KeyStore: one EncryptionKey record per content hash
//   - StorageBackend: one encrypted blob per content hash
//   - Catalog: one EvidenceRecord per content hash
//
// StorageDescriptor.BackendIdentifier is derived from the ciphertext and is
// reported for display only. Retrieval always goes through the content hash.
//
// # Components
//
// KeyManager: derives and persists the deterministic key for a content hash.
//
// CipherCodec: authenticated encryption of blobs under such a key.
//
// ContentStore: places encrypted blobs in a StorageBackend.
//
// EvidenceService: orchestrates the above for submission and retrieval.
//
// VerificationProvider and ClusterStatusProvider are collaborators consulted
// during ingestion; they never influence what is stored.
//
// # Errors
//
// Failures are reported with the sentinel errors in this package (ErrKeyDerivation,
// ErrPersistence, ErrAuthentication, ErrContentNotFound, ErrStorageIO), wrapped in
// an OperationError carrying the operation name and content hash. Use errors.Is
// to classify them.
package interfaces
