package kms

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/verichain/interfaces"
)

// KeyStoreOptions carries credentials that do not belong in a location URI.
type KeyStoreOptions struct {
	VaultToken      string
	VaultClientCert *tls.Certificate
}

// KeyStoreFor creates a key store from a location URI.
//
// Supported schemes:
//   - file:///var/lib/verichain/keys - one file per content hash
//   - bolt:///var/lib/verichain/keys.db - single bbolt database
//   - vault://vault.example.com:8200/secret/verichain/keys[?tls=false] - Vault KV v2
//   - memory:// - process memory, lost on restart
//
// Stores holding resources (bbolt) implement io.Closer.
func KeyStoreFor(location interfaces.StorageBackendLocation, opts KeyStoreOptions, log *slog.Logger) (interfaces.KeyStore, error) {
	switch location.Scheme {
	case "file":
		if location.LocalPath() == "" {
			return nil, fmt.Errorf("%w: file key store requires a path", interfaces.ErrInvalidLocationURI)
		}
		return NewFileKeyStore(location.LocalPath(), log)
	case "bolt":
		if location.LocalPath() == "" {
			return nil, fmt.Errorf("%w: bolt key store requires a path", interfaces.ErrInvalidLocationURI)
		}
		return OpenBoltKeyStore(location.LocalPath())
	case "vault":
		return createVaultKeyStore(location, opts, log)
	case "memory":
		return NewMemoryKeyStore(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported key store scheme %q", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// vault://host:port/<mount>/<data path>
func createVaultKeyStore(location interfaces.StorageBackendLocation, opts KeyStoreOptions, log *slog.Logger) (interfaces.KeyStore, error) {
	if location.Host == "" {
		return nil, fmt.Errorf("%w: vault key store requires a host", interfaces.ErrInvalidLocationURI)
	}

	parts := strings.SplitN(strings.Trim(location.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: vault key store requires a mount path", interfaces.ErrInvalidLocationURI)
	}
	mountPath := parts[0]
	dataPath := ""
	if len(parts) > 1 {
		dataPath = parts[1]
	}

	scheme := "https"
	if location.GetParam("tls") == "false" {
		scheme = "http"
	}

	return NewVaultKeyStore(VaultKeyStoreConfig{
		Address:    fmt.Sprintf("%s://%s", scheme, location.Host),
		MountPath:  mountPath,
		DataPath:   dataPath,
		Token:      opts.VaultToken,
		ClientCert: opts.VaultClientCert,
	}, log)
}
