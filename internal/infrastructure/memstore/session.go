package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/blockgraph/runtime/internal/ports"
)

// pendingTxn accumulates everything staged by one open PipeLog, kept
// separate from the committed store until CommitPipeLog or
// RollbackPipeLog is called.
type pendingTxn struct {
	blocks        []block.DataBlock
	storedBlocks  []block.StoredDataBlock
	dataBlockLogs []runlog.DataBlockLog
	dataSets      []block.DataSet
}

// Session is an in-memory, optionally file-persisted MetadataSession. It is
// exclusive to one ExecutionManager.Execute call: nested sessions are not
// supported and callers must not share a Session across concurrent
// invocations (see the concurrency model's single-threaded contract).
type Session struct {
	mu sync.Mutex

	pipeLogs      []runlog.PipeLog
	dataBlocks    map[string]block.DataBlock
	storedBlocks  map[string][]block.StoredDataBlock
	dataBlockLogs []runlog.DataBlockLog
	dataSets      map[string]block.DataSet
	nodeStates    map[string]runlog.NodeState

	pending map[string]*pendingTxn

	persist func(snapshot) error
}

// NewSession constructs an empty in-memory session with no backing file.
func NewSession() *Session {
	return &Session{
		dataBlocks:   make(map[string]block.DataBlock),
		storedBlocks: make(map[string][]block.StoredDataBlock),
		dataSets:     make(map[string]block.DataSet),
		nodeStates:   make(map[string]runlog.NodeState),
		pending:      make(map[string]*pendingTxn),
	}
}

// OpenPipeLog begins a new logical transaction for one invocation.
func (s *Session) OpenPipeLog(ctx context.Context, nodeKey, pipeKey, runtimeURL string, startedAt time.Time) (*runlog.PipeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := runlog.Open(nodeKey, pipeKey, runtimeURL, startedAt)
	s.pending[log.ID] = &pendingTxn{}
	return log, nil
}

// StageDataBlock records a freshly produced block pending commit.
func (s *Session) StageDataBlock(ctx context.Context, db block.DataBlock, sdb block.StoredDataBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// There is at most one open transaction per Session at a time (the
	// single-threaded execution contract); attach to whichever is open.
	txn, id := s.onlyPending()
	if txn == nil {
		return fmt.Errorf("memstore: StageDataBlock called with no open pipe log")
	}
	txn.blocks = append(txn.blocks, db)
	txn.storedBlocks = append(txn.storedBlocks, sdb)
	_ = id
	return nil
}

// StageDataBlockLog records one input/output participation pending commit.
func (s *Session) StageDataBlockLog(ctx context.Context, entry runlog.DataBlockLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn := s.pending[entry.PipeLogID]
	if txn == nil {
		return fmt.Errorf("memstore: StageDataBlockLog for unknown pipe log %q", entry.PipeLogID)
	}
	txn.dataBlockLogs = append(txn.dataBlockLogs, entry)
	return nil
}

// UpsertDataSet records a dataset's new most-recent block pending commit.
func (s *Session) UpsertDataSet(ctx context.Context, ds block.DataSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, _ := s.onlyPending()
	if txn == nil {
		return fmt.Errorf("memstore: UpsertDataSet called with no open pipe log")
	}
	txn.dataSets = append(txn.dataSets, ds)
	return nil
}

// CommitPipeLog persists the PipeLog together with everything staged since
// OpenPipeLog, atomically with respect to readers (all under one lock, and
// flushed to any backing file in one write).
func (s *Session) CommitPipeLog(ctx context.Context, log *runlog.PipeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn := s.pending[log.ID]
	delete(s.pending, log.ID)

	s.pipeLogs = append(s.pipeLogs, *log)
	if txn != nil {
		for _, db := range txn.blocks {
			s.dataBlocks[db.ID] = db
		}
		for _, sdb := range txn.storedBlocks {
			s.storedBlocks[sdb.DataBlockID] = append(s.storedBlocks[sdb.DataBlockID], sdb)
		}
		s.dataBlockLogs = append(s.dataBlockLogs, txn.dataBlockLogs...)
		for _, ds := range txn.dataSets {
			s.dataSets[ds.NodeKey] = ds
		}
	}

	return s.persistLocked()
}

// RollbackPipeLog discards everything staged since OpenPipeLog except the
// PipeLog row itself, which is still persisted with its error populated
// (scenario D: a failed invocation leaves the PipeLog visible but no
// DataBlockLog rows).
func (s *Session) RollbackPipeLog(ctx context.Context, log *runlog.PipeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, log.ID)
	s.pipeLogs = append(s.pipeLogs, *log)

	return s.persistLocked()
}

// onlyPending returns the single open transaction, assuming the
// single-threaded-per-session contract; if more than one is open (a caller
// bug) which of them it returns is not defined.
func (s *Session) onlyPending() (*pendingTxn, string) {
	var lastID string
	var lastTxn *pendingTxn
	for id, txn := range s.pending {
		lastID, lastTxn = id, txn
	}
	return lastTxn, lastID
}

var _ ports.MetadataSession = (*Session)(nil)
