package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/ruteri/verichain/interfaces"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// AESGCMCodecName selects AES-256-GCM.
	AESGCMCodecName = "aes-gcm"
	// XChaCha20CodecName selects XChaCha20-Poly1305.
	XChaCha20CodecName = "xchacha20-poly1305"

	aesGCMVersion    byte = 0x01
	xchachaVersion   byte = 0x02
	versionPrefixLen      = 1
)

// NewCipherCodec returns the codec registered under name.
// An empty name selects AES-256-GCM.
func NewCipherCodec(name string) (interfaces.CipherCodec, error) {
	switch name {
	case "", AESGCMCodecName:
		return AESGCMCodec{}, nil
	case XChaCha20CodecName:
		return XChaCha20Codec{}, nil
	default:
		return nil, fmt.Errorf("unsupported cipher %q", name)
	}
}

// AESGCMCodec seals blobs with AES-256-GCM.
//
// Format: [version (1 byte) = 0x01][nonce (12 bytes)][ciphertext || tag (16 bytes)]
type AESGCMCodec struct{}

var _ interfaces.CipherCodec = AESGCMCodec{}

// Name returns the algorithm name.
func (AESGCMCodec) Name() string { return AESGCMCodecName }

// Encrypt seals plaintext with a fresh random nonce.
func (AESGCMCodec) Encrypt(plaintext []byte, key interfaces.EncryptionKey) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	return seal(aead, aesGCMVersion, plaintext)
}

// Decrypt opens a blob produced by Encrypt.
func (AESGCMCodec) Decrypt(ciphertext []byte, key interfaces.EncryptionKey) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	return open(aead, aesGCMVersion, ciphertext)
}

func newAESGCM(key interfaces.EncryptionKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// XChaCha20Codec seals blobs with XChaCha20-Poly1305. Its 24-byte nonce makes
// random nonces safe for any number of encryptions under one key.
//
// Format: [version (1 byte) = 0x02][nonce (24 bytes)][ciphertext || tag (16 bytes)]
type XChaCha20Codec struct{}

var _ interfaces.CipherCodec = XChaCha20Codec{}

// Name returns the algorithm name.
func (XChaCha20Codec) Name() string { return XChaCha20CodecName }

// Encrypt seals plaintext with a fresh random nonce.
func (XChaCha20Codec) Encrypt(plaintext []byte, key interfaces.EncryptionKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}
	return seal(aead, xchachaVersion, plaintext)
}

// Decrypt opens a blob produced by Encrypt.
func (XChaCha20Codec) Decrypt(ciphertext []byte, key interfaces.EncryptionKey) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}
	return open(aead, xchachaVersion, ciphertext)
}

func seal(aead cipher.AEAD, version byte, plaintext []byte) ([]byte, error) {
	nonceSize := aead.NonceSize()
	out := make([]byte, versionPrefixLen+nonceSize, versionPrefixLen+nonceSize+len(plaintext)+aead.Overhead())
	out[0] = version

	nonce := out[versionPrefixLen:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// The version byte is authenticated as additional data.
	return aead.Seal(out, nonce, plaintext, out[:versionPrefixLen]), nil
}

func open(aead cipher.AEAD, version byte, ciphertext []byte) ([]byte, error) {
	nonceSize := aead.NonceSize()
	if len(ciphertext) < versionPrefixLen+nonceSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", interfaces.ErrAuthentication)
	}
	if ciphertext[0] != version {
		return nil, fmt.Errorf("%w: unexpected format version 0x%02x", interfaces.ErrAuthentication, ciphertext[0])
	}

	nonce := ciphertext[versionPrefixLen : versionPrefixLen+nonceSize]
	plaintext, err := aead.Open(nil, nonce, ciphertext[versionPrefixLen+nonceSize:], ciphertext[:versionPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrAuthentication, err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
