package graph

import (
	"fmt"
	"sort"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// NodeInput is one slot on a node: its declared annotation, the upstream
// node it has been connected to, and the concrete block it has been bound
// to, if any.
type NodeInput struct {
	Name          string
	Annotation    pipe.Annotation
	BoundUpstream *Node
	BoundBlock    *block.DataBlock
}

// BoundInterface is a PipeInterface whose slots have been connected
// (upstream assigned) and bound (block chosen), ready to invoke.
type BoundInterface struct {
	Inputs       []NodeInput
	Output       *pipe.Annotation
	WantsContext bool
}

// NewBoundInterface builds an empty BoundInterface from a node's parsed
// pipe interface, with every slot unconnected and unbound.
func NewBoundInterface(iface pipe.Interface) BoundInterface {
	inputs := make([]NodeInput, len(iface.Inputs))
	for i, ann := range iface.Inputs {
		inputs[i] = NodeInput{Name: ann.Name, Annotation: ann}
	}
	return BoundInterface{
		Inputs:       inputs,
		Output:       iface.Output,
		WantsContext: iface.WantsContext,
	}
}

// Get looks up a slot by name.
func (b *BoundInterface) Get(name string) (*NodeInput, bool) {
	for i := range b.Inputs {
		if b.Inputs[i].Name == name {
			return &b.Inputs[i], true
		}
	}
	return nil, false
}

// Connect sets bound_upstream on each named slot from the given assignment.
// The self-ref slot, if present, is connected to self regardless of whether
// it appears in upstreams.
func (b *BoundInterface) Connect(upstreams map[string]*Node, self *Node) error {
	for i := range b.Inputs {
		slot := &b.Inputs[i]
		if slot.Annotation.SelfRef {
			slot.BoundUpstream = self
			continue
		}
		if n, ok := upstreams[slot.Name]; ok {
			slot.BoundUpstream = n
		}
	}
	return nil
}

// Bind sets bound_block on each named slot from the given assignment.
func (b *BoundInterface) Bind(blocks map[string]block.DataBlock) {
	for i := range b.Inputs {
		slot := &b.Inputs[i]
		if blk, ok := blocks[slot.Name]; ok {
			bound := blk
			slot.BoundBlock = &bound
		}
	}
}

// AsInvocationArgs materializes the keyword arguments to pass to the pipe
// callable, excluding slots left unbound (which must have been optional, or
// binding would have already failed).
func (b *BoundInterface) AsInvocationArgs() map[string]block.DataBlock {
	args := make(map[string]block.DataBlock)
	for _, slot := range b.Inputs {
		if slot.BoundBlock != nil {
			args[slot.Name] = *slot.BoundBlock
		}
	}
	return args
}

// RawInputs is the raw, declared-inputs shape supplied at node construction:
// either a single value (when the pipe has exactly one non-self-ref slot) or
// a name-keyed map.
type RawInputs struct {
	Single string
	Named  map[string]string
}

// AssignInputs validates and resolves raw declared inputs against a pipe
// interface's slot names, returning the name -> upstream-node-key map to
// connect. A single value is permitted only when the pipe has exactly one
// non-self-ref slot; otherwise the key set of the named map (minus "this")
// must equal the set of non-self-ref slot names.
func AssignInputs(iface pipe.Interface, raw RawInputs) (map[string]string, error) {
	nonSelfRefNames := iface.NonSelfRefNames()

	if raw.Named == nil {
		if len(nonSelfRefNames) != 1 {
			return nil, runlog.NewInvalidInputAssignment(
				fmt.Sprintf("a single input value is only valid when the pipe has exactly one non-self-ref slot, got %d", len(nonSelfRefNames)))
		}
		return map[string]string{nonSelfRefNames[0]: raw.Single}, nil
	}

	given := make(map[string]bool, len(raw.Named))
	for name := range raw.Named {
		if name == "this" {
			continue
		}
		given[name] = true
	}

	want := make(map[string]bool, len(nonSelfRefNames))
	for _, name := range nonSelfRefNames {
		want[name] = true
	}

	if !sameKeySet(given, want) {
		return nil, runlog.NewInvalidInputAssignment(
			fmt.Sprintf("declared inputs %v do not match pipe slot names %v", sortedKeys(given), sortedKeys(want)))
	}

	result := make(map[string]string, len(raw.Named))
	for name, upstream := range raw.Named {
		result[name] = upstream
	}
	return result, nil
}

func sameKeySet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
