package config

import (
	"fmt"

	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/pkg/xerrors"
)

// ValidateManifest runs struct-tag validation followed by the cross-field
// checks a single struct validator pass can't express: duplicate keys,
// dangling references between pipes/nodes/storages, a self-ref "this" slot
// naming any node other than its own, and declared input slot names that do
// not match the node's pipe. Cycles between distinct nodes are not detected.
func ValidateManifest(m *Manifest) error {
	if err := validatorInstance().Struct(m); err != nil {
		return xerrors.NewValidationError("", err.Error(), err)
	}

	pipeKeys := make(map[string]PipeSpec, len(m.Pipes))
	for _, p := range m.Pipes {
		if _, dup := pipeKeys[p.Key]; dup {
			return xerrors.NewValidationError("pipes", fmt.Sprintf("duplicate pipe key %q", p.Key), nil)
		}
		pipeKeys[p.Key] = p
	}

	storageURLs := make(map[string]bool, len(m.Storages))
	for _, s := range m.Storages {
		storageURLs[s.URL] = true
	}
	if !storageURLs[m.TargetStorage] {
		return xerrors.NewValidationError("target_storage",
			fmt.Sprintf("target_storage %q is not one of the declared storages", m.TargetStorage), nil)
	}

	nodeKeys := make(map[string]NodeSpec, len(m.Nodes))
	for _, n := range m.Nodes {
		if _, dup := nodeKeys[n.Key]; dup {
			return xerrors.NewValidationError("nodes", fmt.Sprintf("duplicate node key %q", n.Key), nil)
		}
		nodeKeys[n.Key] = n
	}

	for _, n := range m.Nodes {
		p, ok := pipeKeys[n.PipeKey]
		if !ok {
			return xerrors.NewValidationError("nodes",
				fmt.Sprintf("node %q references unknown pipe %q", n.Key, n.PipeKey), nil)
		}
		for slot, upstream := range n.Inputs {
			if slot == "this" {
				if upstream != n.Key {
					return xerrors.NewValidationError("nodes",
						fmt.Sprintf("node %q declares self-ref slot %q pointing at %q, not itself", n.Key, slot, upstream), nil)
				}
				continue
			}
			if _, ok := nodeKeys[upstream]; !ok {
				return xerrors.NewValidationError("nodes",
					fmt.Sprintf("node %q input %q references unknown node %q", n.Key, slot, upstream), nil)
			}
		}

		// A node's declared input slot names must match its pipe's
		// non-self-ref slots exactly (invariant enforced structurally by
		// assign_inputs in the original), so a mistyped or stale slot name
		// raises InvalidInputAssignment here rather than silently degrading
		// to InputExhausted at bind time.
		iface, err := pipe.ParseInterface(toSignature(p))
		if err != nil {
			return xerrors.NewValidationError("pipes", fmt.Sprintf("pipe %q: %s", p.Key, err.Error()), err)
		}
		raw := graph.RawInputs{Named: n.Inputs}
		if raw.Named == nil {
			raw.Named = map[string]string{}
		}
		if _, err := graph.AssignInputs(iface, raw); err != nil {
			return err
		}
	}

	return nil
}
