package kms

import (
	"context"
	"sync"

	"github.com/ruteri/verichain/interfaces"
)

// MemoryKeyStore keeps keys in process memory. Keys do not survive a restart.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[interfaces.ContentHash]interfaces.EncryptionKey
}

var _ interfaces.KeyStore = (*MemoryKeyStore)(nil)

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[interfaces.ContentHash]interfaces.EncryptionKey)}
}

func (s *MemoryKeyStore) LoadKey(ctx context.Context, hash interfaces.ContentHash) (interfaces.EncryptionKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[hash]
	if !ok {
		return interfaces.EncryptionKey{}, interfaces.ErrKeyNotFound
	}
	return key, nil
}

func (s *MemoryKeyStore) SaveKey(ctx context.Context, hash interfaces.ContentHash, key interfaces.EncryptionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[hash] = key
	return nil
}

func (s *MemoryKeyStore) Name() string {
	return "memory"
}

// Len returns the number of stored keys.
func (s *MemoryKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
