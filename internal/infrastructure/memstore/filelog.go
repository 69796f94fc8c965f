package memstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// snapshot is the on-disk shape of a Session: the full pipe_log,
// data_block_log, and node_state tables from the persisted state layout,
// plus the blocks/SDBs/datasets needed to reconstruct query results.
type snapshot struct {
	Version       string                        `json:"version"`
	PipeLogs      []runlog.PipeLog              `json:"pipe_logs"`
	DataBlocks    []block.DataBlock             `json:"data_blocks"`
	StoredBlocks  []block.StoredDataBlock       `json:"stored_blocks"`
	DataBlockLogs []runlog.DataBlockLog         `json:"data_block_logs"`
	DataSets      []block.DataSet               `json:"data_sets"`
	NodeStates    map[string]runlog.NodeState   `json:"node_states"`
}

const snapshotVersion = "1.0"

// NewFileSession constructs a Session that atomically persists its full
// state to path on every commit, write-to-temp-then-rename, the same
// pattern the registry's file store uses. An existing file at path is
// loaded first.
func NewFileSession(path string) (*Session, error) {
	s := NewSession()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	if err := loadSnapshot(path, s); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	s.persist = func(snap snapshot) error {
		return saveSnapshot(path, snap)
	}

	return s, nil
}

func loadSnapshot(path string, s *Session) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse session snapshot: %w", err)
	}

	s.pipeLogs = snap.PipeLogs
	s.dataBlockLogs = snap.DataBlockLogs
	for _, db := range snap.DataBlocks {
		s.dataBlocks[db.ID] = db
	}
	for _, sdb := range snap.StoredBlocks {
		s.storedBlocks[sdb.DataBlockID] = append(s.storedBlocks[sdb.DataBlockID], sdb)
	}
	for _, ds := range snap.DataSets {
		s.dataSets[ds.NodeKey] = ds
	}
	for k, v := range snap.NodeStates {
		s.nodeStates[k] = v
	}
	return nil
}

func saveSnapshot(path string, snap snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary session file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temporary session file: %w", err)
	}
	return nil
}

// persistLocked flushes the current committed state to the backing file, if
// any. Callers must hold s.mu.
func (s *Session) persistLocked() error {
	if s.persist == nil {
		return nil
	}

	var blocks []block.DataBlock
	for _, db := range s.dataBlocks {
		blocks = append(blocks, db)
	}
	var stored []block.StoredDataBlock
	for _, sdbs := range s.storedBlocks {
		stored = append(stored, sdbs...)
	}
	var dataSets []block.DataSet
	for _, ds := range s.dataSets {
		dataSets = append(dataSets, ds)
	}

	snap := snapshot{
		Version:       snapshotVersion,
		PipeLogs:      s.pipeLogs,
		DataBlocks:    blocks,
		StoredBlocks:  stored,
		DataBlockLogs: s.dataBlockLogs,
		DataSets:      dataSets,
		NodeStates:    s.nodeStates,
	}
	return s.persist(snap)
}
