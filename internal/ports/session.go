package ports

import (
	"context"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// MetadataSession is the scoped, transactional metadata store the Worker
// mutates over the lifetime of one ExecutionManager.Execute call. It is
// exclusive to that call; nested sessions are not supported. On success the
// caller commits; on failure it rolls back, making everything written in
// that invocation invisible to later reads (the transactional discipline in
// the concurrency model).
type MetadataSession interface {
	// OpenPipeLog begins a new logical transaction for one invocation.
	OpenPipeLog(ctx context.Context, nodeKey, pipeKey, runtimeURL string, startedAt time.Time) (*runlog.PipeLog, error)

	// CommitPipeLog persists the PipeLog together with every block, SDB, and
	// DataBlockLog staged since OpenPipeLog, atomically.
	CommitPipeLog(ctx context.Context, log *runlog.PipeLog) error

	// RollbackPipeLog discards everything staged since OpenPipeLog except the
	// PipeLog row itself, which is still persisted with its error populated.
	RollbackPipeLog(ctx context.Context, log *runlog.PipeLog) error

	// StageDataBlock records a freshly produced block as part of the current
	// invocation, pending commit.
	StageDataBlock(ctx context.Context, db block.DataBlock, sdb block.StoredDataBlock) error

	// StageDataBlockLog records one input or output participation, pending commit.
	StageDataBlockLog(ctx context.Context, logEntry runlog.DataBlockLog) error

	// UpsertDataSet records the dataset's new most-recent block, pending commit.
	UpsertDataSet(ctx context.Context, ds block.DataSet) error

	// IsProcessed reports whether a DataBlockLog(direction=INPUT, node=nodeKey,
	// block=blockID) already exists (invariant 5).
	IsProcessed(ctx context.Context, nodeKey, blockID string) (bool, error)

	// BlocksProducedBy returns every DataBlock logged as OUTPUT for a node, in
	// creation order.
	BlocksProducedBy(ctx context.Context, nodeKey string) ([]block.DataBlock, error)

	// DataSetFor returns the current DataSet aggregate for a node, if any.
	DataSetFor(ctx context.Context, nodeKey string) (block.DataSet, bool, error)

	// StoredDataBlocksFor returns every materialization of a block.
	StoredDataBlocksFor(ctx context.Context, blockID string) ([]block.StoredDataBlock, error)

	// NodeState returns the persisted opaque state for a node.
	NodeState(ctx context.Context, nodeKey string) (runlog.NodeState, bool, error)

	// SaveNodeState persists a node's opaque state.
	SaveNodeState(ctx context.Context, state runlog.NodeState) error
}
