package memstore

import (
	"context"
	"sort"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// IsProcessed reports whether a DataBlockLog(direction=INPUT, node=nodeKey,
// block=blockID) has already been committed (invariant 5).
func (s *Session) IsProcessed(ctx context.Context, nodeKey, blockID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.dataBlockLogs {
		if entry.Direction != runlog.DirectionInput || entry.BlockID != blockID {
			continue
		}
		log := s.findPipeLog(entry.PipeLogID)
		if log != nil && log.NodeKey == nodeKey {
			return true, nil
		}
	}
	return false, nil
}

// BlocksProducedBy returns every DataBlock logged as OUTPUT for a node, in
// creation order.
func (s *Session) BlocksProducedBy(ctx context.Context, nodeKey string) ([]block.DataBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []block.DataBlock
	for _, entry := range s.dataBlockLogs {
		if entry.Direction != runlog.DirectionOutput {
			continue
		}
		log := s.findPipeLog(entry.PipeLogID)
		if log == nil || log.NodeKey != nodeKey {
			continue
		}
		if db, ok := s.dataBlocks[entry.BlockID]; ok {
			out = append(out, db)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DataSetFor returns the current DataSet aggregate for a node, if any.
func (s *Session) DataSetFor(ctx context.Context, nodeKey string) (block.DataSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.dataSets[nodeKey]
	return ds, ok, nil
}

// StoredDataBlocksFor returns every materialization of a block.
func (s *Session) StoredDataBlocksFor(ctx context.Context, blockID string) ([]block.StoredDataBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]block.StoredDataBlock(nil), s.storedBlocks[blockID]...), nil
}

// NodeState returns the persisted opaque state for a node.
func (s *Session) NodeState(ctx context.Context, nodeKey string) (runlog.NodeState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.nodeStates[nodeKey]
	return state, ok, nil
}

// SaveNodeState persists a node's opaque state immediately (NodeState is not
// scoped to a PipeLog transaction).
func (s *Session) SaveNodeState(ctx context.Context, state runlog.NodeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeStates[state.NodeKey] = state
	return s.persistLocked()
}

func (s *Session) findPipeLog(id string) *runlog.PipeLog {
	for i := range s.pipeLogs {
		if s.pipeLogs[i].ID == id {
			return &s.pipeLogs[i]
		}
	}
	return nil
}

// PipeLogsFor returns every PipeLog recorded for a node, in execution order.
// Exposed for CLI/log inspection and tests; not part of the ports.MetadataSession contract.
func (s *Session) PipeLogsFor(nodeKey string) []runlog.PipeLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []runlog.PipeLog
	for _, log := range s.pipeLogs {
		if log.NodeKey == nodeKey {
			out = append(out, log)
		}
	}
	return out
}

// AllPipeLogs returns every PipeLog recorded, in execution order.
func (s *Session) AllPipeLogs() []runlog.PipeLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]runlog.PipeLog(nil), s.pipeLogs...)
}

// AllDataBlockLogs returns every DataBlockLog recorded, in execution order.
func (s *Session) AllDataBlockLogs() []runlog.DataBlockLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]runlog.DataBlockLog(nil), s.dataBlockLogs...)
}
