// Package cryptoutils provides the symmetric cryptography of the evidence store:
// deterministic content key derivation and authenticated blob encryption.
//
// # Content keys
//
// DeriveContentKey runs PBKDF2-HMAC-SHA256 over the lowercase hex form of a
// content hash with a fixed salt:
//
//   - Salt: "verichain_salt"
//   - Iterations: 100000 (DefaultKDFIterations)
//   - Key length: 32 bytes
//
// The derivation has no secret input. Confidentiality of stored blobs rests on
// the key store, not on the derivation; anyone holding the plaintext can
// recompute its key.
//
// # Blob encryption
//
// Two CipherCodec implementations are available, selected by name through
// NewCipherCodec:
//
//   - "aes-gcm": AES-256-GCM, 12-byte nonce (default)
//   - "xchacha20-poly1305": XChaCha20-Poly1305, 24-byte nonce
//
// Every Encrypt draws a fresh random nonce, so encrypting the same plaintext
// twice yields different ciphertexts. Ciphertexts follow this format:
//
//	[version (1 byte)][nonce][ciphertext || tag (16 bytes)]
//
// The version byte identifies the algorithm and is authenticated as
// additional data. Decrypt reports interfaces.ErrAuthentication for a wrong
// key, a modified byte anywhere in the ciphertext, a version mismatch or input
// too short to hold a nonce and tag.
package cryptoutils
