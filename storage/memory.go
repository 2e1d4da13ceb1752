package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/ruteri/verichain/interfaces"
)

// MemoryBackend keeps blobs in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[interfaces.ContentHash][]byte
	name  string
}

var _ interfaces.StorageBackend = (*MemoryBackend)(nil)

func NewMemoryBackend(name string) *MemoryBackend {
	if name == "" {
		name = "default"
	}
	return &MemoryBackend{
		blobs: make(map[interfaces.ContentHash][]byte),
		name:  name,
	}
}

func (b *MemoryBackend) Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	blob, ok := b.blobs[hash]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	return bytes.Clone(blob), nil
}

func (b *MemoryBackend) Store(ctx context.Context, hash interfaces.ContentHash, blob []byte) error {
	stored := bytes.Clone(blob)
	if stored == nil {
		stored = []byte{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[hash] = stored
	return nil
}

func (b *MemoryBackend) Available(ctx context.Context) bool {
	return true
}

func (b *MemoryBackend) Name() string {
	return "memory-" + b.name
}

func (b *MemoryBackend) LocationURI() string {
	return "memory://" + b.name
}

// Len returns the number of stored blobs.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
