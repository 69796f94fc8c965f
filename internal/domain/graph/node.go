// Package graph models nodes in the execution graph and the process of
// connecting and binding a pipe's declared interface to concrete upstream
// nodes and blocks.
package graph

import (
	"github.com/blockgraph/runtime/internal/domain/pipe"
)

// Node is a named, configured instance of a pipe in the graph. It is
// immutable after construction: declared inputs and configuration are fixed
// at creation time.
type Node struct {
	Key            string
	PipeKey        string
	Interface      pipe.Interface
	DeclaredInputs map[string]string // slot name -> upstream node key
	Config         map[string]interface{}
}

// NewNode constructs a Node, copying the declared-inputs and config maps so
// later mutation of the caller's maps cannot violate immutability.
func NewNode(key, pipeKey string, iface pipe.Interface, declaredInputs map[string]string, config map[string]interface{}) Node {
	inputs := make(map[string]string, len(declaredInputs))
	for k, v := range declaredInputs {
		inputs[k] = v
	}
	cfg := make(map[string]interface{}, len(config))
	for k, v := range config {
		cfg[k] = v
	}
	return Node{
		Key:            key,
		PipeKey:        pipeKey,
		Interface:      iface,
		DeclaredInputs: inputs,
		Config:         cfg,
	}
}

// IsSource reports whether the node's pipe declares no input slots.
func (n Node) IsSource() bool {
	return len(n.Interface.Inputs) == 0
}
