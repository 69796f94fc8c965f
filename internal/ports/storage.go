package ports

import (
	"context"

	"github.com/blockgraph/runtime/internal/domain/block"
)

// LocalMemoryStorageURL is the scratch storage the worker writes freshly
// created StoredDataBlocks to before conversion into a target storage.
const LocalMemoryStorageURL = "memory://local"

// Storage is the cross-storage copy and materialization boundary. The
// engine never reads or writes records directly; it only asks Storage to
// place and convert StoredDataBlocks.
type Storage interface {
	// ConvertLowestCost produces a StoredDataBlock for db on targetStorage in
	// targetFormat, choosing the cheapest available conversion path. It may
	// be a no-op returning an existing SDB if one already satisfies the
	// request.
	ConvertLowestCost(ctx context.Context, sdb block.StoredDataBlock, targetStorage string, targetFormat block.StorageFormat) (block.StoredDataBlock, error)

	// CreateDataBlockFromRecords materializes records as a fresh DataBlock
	// and its first StoredDataBlock on local memory storage.
	CreateDataBlockFromRecords(ctx context.Context, nominal block.Schema, records []block.Record) (block.DataBlock, block.StoredDataBlock, error)

	// URL reports the storage's own address, used for allow-list filtering.
	URL() string
}
