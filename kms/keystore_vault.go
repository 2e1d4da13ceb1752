package kms

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/verichain/interfaces"
)

// VaultKeyStoreConfig configures a VaultKeyStore.
type VaultKeyStoreConfig struct {
	// Address of the Vault server, e.g. https://vault.example.com:8200
	Address string
	// MountPath of the KV v2 engine, e.g. "secret"
	MountPath string
	// DataPath under the mount, e.g. "verichain/keys"
	DataPath string
	// Token authenticates requests. Falls back to VAULT_TOKEN when empty.
	Token string
	// ClientCert enables TLS client certificate authentication when set.
	ClientCert *tls.Certificate
	Timeout    time.Duration
}

// VaultKeyStore persists keys in a HashiCorp Vault KV v2 engine, one secret per
// content hash at <mount>/data/<path>/<hex hash> with the key base64url encoded
// under the "key" field.
type VaultKeyStore struct {
	client    *api.Client
	mountPath string
	dataPath  string
	address   string
	log       *slog.Logger
}

var _ interfaces.KeyStore = (*VaultKeyStore)(nil)

func NewVaultKeyStore(cfg VaultKeyStoreConfig, log *slog.Logger) (*VaultKeyStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	config := api.DefaultConfig()
	config.Address = cfg.Address

	transport := &http.Transport{}
	if cfg.ClientCert != nil {
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{*cfg.ClientCert},
		}
	}
	config.HttpClient = &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Vault client: %w", interfaces.ErrPersistence, err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &VaultKeyStore{
		client:    client,
		mountPath: strings.Trim(cfg.MountPath, "/"),
		dataPath:  strings.Trim(cfg.DataPath, "/"),
		address:   cfg.Address,
		log:       log,
	}, nil
}

func (s *VaultKeyStore) LoadKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	path := s.secretPath(hash)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		s.log.Error("Failed to read key from Vault",
			slog.String("path", path),
			slog.String("content_id", hash.Short()),
			"err", err)
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: %w", interfaces.ErrPersistence, err)
	}
	if secret == nil || secret.Data == nil {
		return interfaces.EncryptionKey{}, interfaces.ErrKeyNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		// Soft-deleted secrets keep their metadata but carry no data.
		return interfaces.EncryptionKey{}, interfaces.ErrKeyNotFound
	}

	record, ok := data["key"].(string)
	if !ok {
		return interfaces.EncryptionKey{}, fmt.Errorf("%w: malformed key record at %s", interfaces.ErrPersistence, path)
	}

	return decodeKeyRecord(record)
}

func (s *VaultKeyStore) SaveKey(ctx context.Context, hash interfaces.ContentHash, key interfaces.EncryptionKey) error {
	path := s.secretPath(hash)

	_, err := s.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"data": map[string]interface{}{
			"key": encodeKeyRecord(key),
		},
	})
	if err != nil {
		s.log.Error("Failed to write key to Vault",
			slog.String("path", path),
			slog.String("content_id", hash.Short()),
			"err", err)
		return fmt.Errorf("%w: %w", interfaces.ErrPersistence, err)
	}

	s.log.Debug("Stored content key in Vault", slog.String("content_id", hash.Short()))
	return nil
}

func (s *VaultKeyStore) Name() string {
	return fmt.Sprintf("vault-%s", s.mountPath)
}

func (s *VaultKeyStore) secretPath(hash interfaces.ContentHash) string {
	if s.dataPath == "" {
		return fmt.Sprintf("%s/data/%s", s.mountPath, hash.String())
	}
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, hash.String())
}
