// Package catalog keeps one EvidenceRecord per content hash so that ingested
// evidence can be listed and described without decrypting it.
//
// BoltCatalog stores records as JSON in the "evidence" bucket of a bbolt
// database. MemoryCatalog keeps them in process memory.
//
// Put replaces the record for a hash. List returns records newest first.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ruteri/verichain/interfaces"
	"go.etcd.io/bbolt"
)

var bucketEvidence = []byte("evidence")

// BoltCatalog implements interfaces.Catalog on bbolt.
type BoltCatalog struct {
	db *bbolt.DB
}

var _ interfaces.Catalog = (*BoltCatalog)(nil)

// OpenBoltCatalog opens or creates the catalog database at dbPath.
func OpenBoltCatalog(dbPath string) (*BoltCatalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("catalog: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvidence)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: create bucket: %w", err)
	}

	return &BoltCatalog{db: db}, nil
}

// Close closes the underlying database.
func (c *BoltCatalog) Close() error { return c.db.Close() }

func (c *BoltCatalog) Put(ctx context.Context, record interfaces.EvidenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("catalog: marshal record: %w", err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvidence).Put(record.ContentHash.Bytes(), data)
	})
}

func (c *BoltCatalog) Get(ctx context.Context, hash interfaces.ContentHash) (interfaces.EvidenceRecord, error) {
	var record interfaces.EvidenceRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEvidence).Get(hash.Bytes())
		if v == nil {
			return interfaces.ErrContentNotFound
		}
		return json.Unmarshal(v, &record)
	})
	return record, err
}

func (c *BoltCatalog) List(ctx context.Context) ([]interfaces.EvidenceRecord, error) {
	records := []interfaces.EvidenceRecord{}
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvidence).ForEach(func(k, v []byte) error {
			var record interfaces.EvidenceRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("catalog: decode record %x: %w", k[:8], err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(records)
	return records, nil
}

// MemoryCatalog implements interfaces.Catalog in process memory.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records map[interfaces.ContentHash]interfaces.EvidenceRecord
}

var _ interfaces.Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[interfaces.ContentHash]interfaces.EvidenceRecord)}
}

func (c *MemoryCatalog) Put(ctx context.Context, record interfaces.EvidenceRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[record.ContentHash] = record
	return nil
}

func (c *MemoryCatalog) Get(ctx context.Context, hash interfaces.ContentHash) (interfaces.EvidenceRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.records[hash]
	if !ok {
		return interfaces.EvidenceRecord{}, interfaces.ErrContentNotFound
	}
	return record, nil
}

func (c *MemoryCatalog) List(ctx context.Context) ([]interfaces.EvidenceRecord, error) {
	c.mu.RLock()
	records := make([]interfaces.EvidenceRecord, 0, len(c.records))
	for _, record := range c.records {
		records = append(records, record)
	}
	c.mu.RUnlock()

	sortNewestFirst(records)
	return records, nil
}

// sortNewestFirst orders by ReceivedAt descending, ties broken by hash.
func sortNewestFirst(records []interfaces.EvidenceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].ReceivedAt.Equal(records[j].ReceivedAt) {
			return records[i].ReceivedAt.After(records[j].ReceivedAt)
		}
		return bytes.Compare(records[i].ContentHash[:], records[j].ContentHash[:]) < 0
	})
}
