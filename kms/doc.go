// Package kms manages the per-content encryption keys of the evidence store.
//
// It implements the interfaces.KeyManager interface:
//
//	// KeyManager returns the encryption key bound to a content hash.
//	type KeyManager interface {
//	    // GetOrCreateKey returns the persisted key for hash, deriving and
//	    // persisting one on first use.
//	    GetOrCreateKey(ctx context.Context, hash ContentHash) (EncryptionKey, error)
//	}
//
// # Key Derivation
//
// Keys are derived with PBKDF2-HMAC-SHA256 over the lowercase hex form of the
// content hash (see cryptoutils.DeriveContentKey). With the default parameters
// (salt "verichain_salt", 100000 iterations) the derivation is deterministic,
// so two processes racing on the first use of a hash persist identical keys.
//
// Once persisted, a key is authoritative: later calls return the stored key
// even if the derivation parameters have changed since.
//
// # Key Stores
//
// Persistence is delegated to an interfaces.KeyStore:
//
//   - FileKeyStore: one base64url encoded file per hash, written atomically
//   - BoltKeyStore: a single bbolt database, bucket content_keys
//   - VaultKeyStore: HashiCorp Vault KV v2, token or TLS client certificate auth
//   - MemoryKeyStore: process memory, for tests and ephemeral deployments
//
// KeyStoreFor selects an implementation from a location URI.
//
// # Errors
//
// A missing record is reported by stores as interfaces.ErrKeyNotFound and is
// handled by the manager. Any other read or write failure, including a
// malformed record, surfaces as interfaces.ErrPersistence. A malformed record
// is never replaced with a fresh key.
//
// # Usage Example
//
//	store, err := kms.KeyStoreFor(location, kms.KeyStoreOptions{}, logger)
//	if err != nil {
//	    log.Fatalf("Failed to open key store: %v", err)
//	}
//	manager := kms.NewContentKeyManager(store, logger)
//
//	key, err := manager.GetOrCreateKey(ctx, interfaces.ComputeContentHash(data))
package kms
