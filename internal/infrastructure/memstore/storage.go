// Package memstore provides in-process, reference implementations of the
// engine's ports: an in-memory/file-backed MetadataSession, a local-memory
// Storage, and a static registry-backed Environment. These are sufficient to
// run the engine end-to-end for tests and small deployments; they do not
// claim to be a production storage or SQL-runtime layer.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/ports"
)

// MemoryStorage is a single-process Storage adapter that keeps block
// contents in memory, keyed by block ID. It is the "local memory storage"
// every Worker invocation writes freshly-created blocks to, and can also
// stand in for a named target storage in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	url     string
	records map[string][]block.Record
	sdbs    map[string][]block.StoredDataBlock
}

// NewMemoryStorage constructs a MemoryStorage addressed at url.
func NewMemoryStorage(url string) *MemoryStorage {
	return &MemoryStorage{
		url:     url,
		records: make(map[string][]block.Record),
		sdbs:    make(map[string][]block.StoredDataBlock),
	}
}

// URL reports the storage's own address.
func (m *MemoryStorage) URL() string {
	return m.url
}

// CreateDataBlockFromRecords materializes records as a fresh DataBlock and
// its first StoredDataBlock on this storage.
func (m *MemoryStorage) CreateDataBlockFromRecords(ctx context.Context, nominal block.Schema, records []block.Record) (block.DataBlock, block.StoredDataBlock, error) {
	realized := nominal
	db := block.NewDataBlock(nominal, realized, len(records), now())
	sdb := block.NewStoredDataBlock(db, m.url, block.FormatRecordsList, now())

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]block.Record, len(records))
	copy(cp, records)
	m.records[db.ID] = cp
	m.sdbs[db.ID] = append(m.sdbs[db.ID], sdb)

	return db, sdb, nil
}

// ConvertLowestCost produces a StoredDataBlock for the block underlying sdb
// on targetStorage in targetFormat. Callers invoke this on the storage
// instance that already holds the block's bytes (its record payload never
// moves in this single-process reference implementation); only a new SDB
// entry noting the block's availability at targetStorage is recorded, or
// the existing one is returned if already present.
func (m *MemoryStorage) ConvertLowestCost(ctx context.Context, sdb block.StoredDataBlock, targetStorage string, targetFormat block.StorageFormat) (block.StoredDataBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sdbs[sdb.DataBlockID] {
		if existing.StorageURL == targetStorage && existing.Format == targetFormat {
			return existing, nil
		}
	}

	converted := block.StoredDataBlock{
		ID:          block.NewID("sdb"),
		DataBlockID: sdb.DataBlockID,
		StorageURL:  targetStorage,
		Format:      targetFormat,
		CreatedAt:   now(),
	}
	m.sdbs[sdb.DataBlockID] = append(m.sdbs[sdb.DataBlockID], converted)
	return converted, nil
}

// Records returns the record payload backing a block, for callers (tests,
// downstream pipes) that need to read block contents back. Not part of the
// ports.Storage contract, which only moves opaque SDBs.
func (m *MemoryStorage) Records(blockID string) ([]block.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.records[blockID]
	return recs, ok
}

// StoredDataBlocksFor returns every SDB this storage has materialized for a block.
func (m *MemoryStorage) StoredDataBlocksFor(blockID string) []block.StoredDataBlock {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]block.StoredDataBlock(nil), m.sdbs[blockID]...)
}

func now() time.Time {
	return time.Now()
}

var _ ports.Storage = (*MemoryStorage)(nil)
