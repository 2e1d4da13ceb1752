package kms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/verichain/cryptoutils"
	"github.com/ruteri/verichain/interfaces"
)

// ContentKeyManager implements interfaces.KeyManager on top of a KeyStore.
// Keys are derived deterministically from the content hash, so concurrent
// first uses of the same hash persist identical key material.
type ContentKeyManager struct {
	store  interfaces.KeyStore
	params cryptoutils.KDFParams
	log    *slog.Logger
}

var _ interfaces.KeyManager = (*ContentKeyManager)(nil)

// Option configures a ContentKeyManager.
type Option func(*ContentKeyManager)

// WithKDFParams overrides the derivation parameters.
// Every process sharing a KeyStore must use the same parameters.
func WithKDFParams(params cryptoutils.KDFParams) Option {
	return func(m *ContentKeyManager) {
		m.params = params
	}
}

// NewContentKeyManager creates a key manager persisting keys in store.
func NewContentKeyManager(store interfaces.KeyStore, log *slog.Logger, opts ...Option) *ContentKeyManager {
	if log == nil {
		log = slog.Default()
	}

	m := &ContentKeyManager{
		store:  store,
		params: cryptoutils.DefaultKDFParams(),
		log:    log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreateKey returns the persisted key for hash. On first use the key is
// derived with PBKDF2, persisted, and then returned.
//
// Fails with ErrKeyDerivation when the KDF cannot run and with ErrPersistence
// when the key store cannot be read or written.
func (m *ContentKeyManager) GetOrCreateKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	key, err := m.store.LoadKey(ctx, hash)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		m.log.Error("Failed to load content key",
			slog.String("content_id", hash.Short()),
			slog.String("key_store", m.store.Name()),
			"err", err)
		return interfaces.EncryptionKey{}, asPersistenceError(err)
	}

	start := time.Now()
	key, err = cryptoutils.DeriveContentKey(hash, m.params)
	if err != nil {
		m.log.Error("Failed to derive content key",
			slog.String("content_id", hash.Short()),
			"err", err)
		return interfaces.EncryptionKey{}, err
	}

	if err := m.store.SaveKey(ctx, hash, key); err != nil {
		m.log.Error("Failed to persist content key",
			slog.String("content_id", hash.Short()),
			slog.String("key_store", m.store.Name()),
			"err", err)
		return interfaces.EncryptionKey{}, asPersistenceError(err)
	}

	m.log.Debug("Created content key",
		slog.String("content_id", hash.Short()),
		slog.String("key_store", m.store.Name()),
		slog.Duration("duration", time.Since(start)))

	return key, nil
}

func asPersistenceError(err error) error {
	if errors.Is(err, interfaces.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", interfaces.ErrPersistence, err)
}
