package cryptoutils

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ruteri/verichain/interfaces"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultKDFIterations is the PBKDF2 iteration count used for content keys.
const DefaultKDFIterations = 100000

// DefaultKDFSalt is the application-wide salt for content keys. Changing it
// changes every derived key, so it is fixed for the lifetime of a deployment.
var DefaultKDFSalt = []byte("verichain_salt")

// KDFParams tunes the content key derivation.
type KDFParams struct {
	Iterations int
	Salt       []byte
}

// DefaultKDFParams returns the production derivation parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Iterations: DefaultKDFIterations,
		Salt:       append([]byte(nil), DefaultKDFSalt...),
	}
}

// Validate checks that the parameters can drive PBKDF2.
func (p KDFParams) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("iteration count must be positive, got %d", p.Iterations)
	}
	if len(p.Salt) == 0 {
		return errors.New("salt must not be empty")
	}
	return nil
}

// DeriveContentKey derives the deterministic key for a content hash using
// PBKDF2-HMAC-SHA256 over the lowercase hex form of the hash.
//
// The same hash and parameters always produce the same key, so a lost key
// record can be regenerated from the hash alone.
func DeriveContentKey(hash interfaces.ContentHash, params KDFParams) (interfaces.EncryptionKey, error) {
	if err := params.Validate(); err != nil {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: %w", interfaces.ErrKeyDerivation, err)
	}

	derived := pbkdf2.Key([]byte(hash.String()), params.Salt, params.Iterations, interfaces.EncryptionKeySize, sha256.New)

	key, err := interfaces.NewEncryptionKeyFromBytes(derived)
	if err != nil {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: %w", interfaces.ErrKeyDerivation, err)
	}
	return key, nil
}
