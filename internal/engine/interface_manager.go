package engine

import (
	"context"
	"fmt"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// NodeInterfaceManager discovers concrete input blocks for one node within
// an ExecutionContext and returns a BoundInterface ready for the Worker.
type NodeInterfaceManager struct {
	execCtx ExecutionContext
	node    graph.Node
}

// NewNodeInterfaceManager constructs a manager scoped to one node within one
// execution context.
func NewNodeInterfaceManager(execCtx ExecutionContext, node graph.Node) *NodeInterfaceManager {
	return &NodeInterfaceManager{execCtx: execCtx, node: node}
}

// Bind resolves each declared input slot to an upstream node and a concrete
// block, applying the unprocessed/exhaustion rules from the component
// design. It is the sole entry point the ExecutionManager's run loop calls.
func (m *NodeInterfaceManager) Bind(ctx context.Context) (*graph.BoundInterface, error) {
	bound := graph.NewBoundInterface(m.node.Interface)

	upstreams, err := m.resolveUpstreams(ctx)
	if err != nil {
		return nil, err
	}
	if err := bound.Connect(upstreams, &m.node); err != nil {
		return nil, err
	}

	anyBound := false
	anyUnprocessed := false

	for i := range bound.Inputs {
		slot := &bound.Inputs[i]
		if slot.BoundUpstream == nil {
			if !slot.Annotation.Optional {
				return nil, runlog.NewInputExhausted(
					fmt.Sprintf("required input %q has no upstream connected", slot.Name))
			}
			continue
		}

		picked, unprocessed, err := m.pickForSlot(ctx, *slot)
		if err != nil {
			return nil, err
		}

		if picked == nil {
			if !slot.Annotation.Optional {
				return nil, runlog.NewInputExhausted(
					fmt.Sprintf("required input %q is empty", slot.Name))
			}
			continue
		}

		bound.Bind(map[string]block.DataBlock{slot.Name: *picked})
		anyBound = true
		if unprocessed {
			anyUnprocessed = true
		}
	}

	if anyBound && !anyUnprocessed {
		return nil, runlog.NewInputExhausted("all inputs exhausted")
	}

	return &bound, nil
}

// resolveUpstreams looks up the upstream Node for each declared input.
func (m *NodeInterfaceManager) resolveUpstreams(ctx context.Context) (map[string]*graph.Node, error) {
	upstreams := make(map[string]*graph.Node, len(m.node.DeclaredInputs))
	for slotName, upstreamKey := range m.node.DeclaredInputs {
		n, err := m.execCtx.Env.GetNode(ctx, upstreamKey)
		if err != nil {
			return nil, err
		}
		node := n
		upstreams[slotName] = &node
	}
	return upstreams, nil
}

// pickForSlot derives a stream from the slot's bound upstream, filters it
// per the slot's format class, and terminal-picks a candidate block. The
// second return reports whether the pick counts as "genuinely unprocessed"
// for the exhaustion rule.
func (m *NodeInterfaceManager) pickForSlot(ctx context.Context, slot graph.NodeInput) (*block.DataBlock, bool, error) {
	stream, err := NewStream(ctx, m.execCtx.Session, *slot.BoundUpstream, m.execCtx.Logger)
	if err != nil {
		return nil, false, err
	}

	stream, err = stream.FilterStorages(ctx, m.execCtx.AllowedStorageURLs())
	if err != nil {
		return nil, false, err
	}

	switch slot.Annotation.FormatClass {
	case pipe.FormatDataSet:
		stream, err = stream.FilterDataset(ctx)
		if err != nil {
			return nil, false, err
		}
		picked, err := stream.MostRecent(ctx)
		if err != nil || picked == nil {
			return picked, false, err
		}
		unprocessed, err := stream.IsUnprocessed(ctx, *picked, m.node)
		if err != nil {
			return nil, false, err
		}
		return picked, unprocessed, nil

	default: // DataBlock and every other format class bind the same way
		stream, err = stream.FilterUnprocessed(ctx, m.node, slot.Annotation.SelfRef)
		if err != nil {
			return nil, false, err
		}
		picked, err := stream.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		// A DataBlock slot contributes "unprocessed" iff a block was bound
		// at all: FilterUnprocessed already excluded already-processed
		// blocks (unless self_ref permits the cycle).
		return picked, picked != nil, nil
	}
}
