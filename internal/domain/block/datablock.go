package block

import "time"

// Record is one row of a data block, represented as an opaque field map
// since the core never inspects record contents beyond schema bookkeeping.
type Record map[string]interface{}

// DataBlock is an immutable batch of records of one schema. Its identity and
// schema are fixed at creation (invariant 1) and it is never mutated or
// destroyed by the engine.
type DataBlock struct {
	ID             string
	NominalSchema  Schema
	RealizedSchema Schema
	CreatedAt      time.Time
	RecordCount    int
}

// NewDataBlock creates a DataBlock with a fresh identity. The realized schema
// is inferred by the caller (typically the worker, from the produced
// records) and may differ from the nominal schema declared on the producing
// slot.
func NewDataBlock(nominal, realized Schema, recordCount int, createdAt time.Time) DataBlock {
	return DataBlock{
		ID:             NewID("block"),
		NominalSchema:  nominal,
		RealizedSchema: realized,
		CreatedAt:      createdAt,
		RecordCount:    recordCount,
	}
}

// StorageFormat names the on-disk or in-memory representation a
// StoredDataBlock materializes into. The valid format classes form a closed
// set; this mirrors the FormatClass variant used for pipe signatures, but a
// storage format is narrower — it's one concrete materialization, not a
// signature-level class.
type StorageFormat string

const (
	FormatRecordsList StorageFormat = "records_list"
	FormatDataFrame   StorageFormat = "dataframe"
	FormatDatabase    StorageFormat = "database_table"
)

// StoredDataBlock is a materialization of a DataBlock in one (storage,
// format) pair. A block may have many SDBs; the first is created when its
// output is persisted.
type StoredDataBlock struct {
	ID          string
	DataBlockID string
	StorageURL  string
	Format      StorageFormat
	CreatedAt   time.Time
}

// NewStoredDataBlock materializes db onto storageURL in the given format.
func NewStoredDataBlock(db DataBlock, storageURL string, format StorageFormat, createdAt time.Time) StoredDataBlock {
	return StoredDataBlock{
		ID:          NewID("sdb"),
		DataBlockID: db.ID,
		StorageURL:  storageURL,
		Format:      format,
		CreatedAt:   createdAt,
	}
}

// DataSet is a named, accumulating view over one upstream node's outputs. It
// presents as a single "most recent" block to downstream consumers.
type DataSet struct {
	Name          string
	NodeKey       string
	LatestBlockID string
	UpdatedAt     time.Time
}

// WithLatest returns a copy of the DataSet pointing at a new most-recent block.
func (ds DataSet) WithLatest(blockID string, at time.Time) DataSet {
	ds.LatestBlockID = blockID
	ds.UpdatedAt = at
	return ds
}
