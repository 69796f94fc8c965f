// Package engine implements the execution and interface-binding core: the
// StreamSource filter chain, NodeInterfaceManager, Worker, and
// ExecutionManager.
package engine

import (
	"context"
	"sort"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/ports"
)

// Stream is a lazy, filterable source of candidate blocks from one upstream
// node. Each Filter* call returns a narrowed Stream; terminal picks (Next,
// MostRecent) resolve the filtered set against the session.
type Stream struct {
	ctx        context.Context
	session    ports.MetadataSession
	upstream   graph.Node
	candidates []block.DataBlock
	isDataset  bool
	datasetRef *block.DataSet
	logger     ports.Logger
}

// NewStream derives a stream of every block an upstream node has produced.
func NewStream(ctx context.Context, session ports.MetadataSession, upstream graph.Node, logger ports.Logger) (*Stream, error) {
	produced, err := session.BlocksProducedBy(ctx, upstream.Key)
	if err != nil {
		return nil, err
	}
	return &Stream{ctx: ctx, session: session, upstream: upstream, candidates: produced, logger: logger}, nil
}

// FilterStorages restricts the stream to blocks materialized on at least one
// of the listed storage URLs.
func (s *Stream) FilterStorages(ctx context.Context, allowed []string) (*Stream, error) {
	if len(allowed) == 0 {
		return s, nil
	}
	allowSet := make(map[string]bool, len(allowed))
	for _, u := range allowed {
		allowSet[u] = true
	}

	var kept []block.DataBlock
	for _, b := range s.candidates {
		sdbs, err := s.session.StoredDataBlocksFor(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		for _, sdb := range sdbs {
			if allowSet[sdb.StorageURL] {
				kept = append(kept, b)
				break
			}
		}
	}
	next := *s
	next.candidates = kept
	return &next, nil
}

// FilterUnprocessed excludes blocks already logged as INPUT for node, unless
// allowCycle is set (the self-ref slot's permitted cycle).
func (s *Stream) FilterUnprocessed(ctx context.Context, node graph.Node, allowCycle bool) (*Stream, error) {
	if allowCycle {
		return s, nil
	}
	var kept []block.DataBlock
	for _, b := range s.candidates {
		unprocessed, err := s.IsUnprocessed(ctx, b, node)
		if err != nil {
			return nil, err
		}
		if unprocessed {
			kept = append(kept, b)
		} else if s.logger != nil {
			s.logger.Debug(ctx, "skipping already-processed block", "node_key", node.Key, "block_id", b.ID)
		}
	}
	next := *s
	next.candidates = kept
	return &next, nil
}

// FilterDataset marks the stream as dataset-shaped, resolving candidates to
// the upstream's current DataSet aggregate rather than its individual output
// blocks.
func (s *Stream) FilterDataset(ctx context.Context) (*Stream, error) {
	ds, ok, err := s.session.DataSetFor(ctx, s.upstream.Key)
	if err != nil {
		return nil, err
	}
	next := *s
	next.isDataset = true
	if ok {
		next.datasetRef = &ds
	} else {
		next.datasetRef = nil
	}
	return &next, nil
}

// Next returns the oldest surviving candidate by creation order, ties broken
// by block ID.
func (s *Stream) Next(ctx context.Context) (*block.DataBlock, error) {
	if len(s.candidates) == 0 {
		return nil, nil
	}
	sorted := append([]block.DataBlock(nil), s.candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return &sorted[0], nil
}

// MostRecent returns the newest dataset aggregate block, or nil if the
// upstream has no dataset yet.
func (s *Stream) MostRecent(ctx context.Context) (*block.DataBlock, error) {
	if s.datasetRef == nil {
		return nil, nil
	}
	for _, b := range s.candidates {
		if b.ID == s.datasetRef.LatestBlockID {
			bb := b
			return &bb, nil
		}
	}
	return nil, nil
}

// IsUnprocessed reports whether block has not yet been logged as INPUT for node.
func (s *Stream) IsUnprocessed(ctx context.Context, b block.DataBlock, node graph.Node) (bool, error) {
	processed, err := s.session.IsProcessed(ctx, node.Key, b.ID)
	if err != nil {
		return false, err
	}
	return !processed, nil
}
