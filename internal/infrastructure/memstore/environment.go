package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/blockgraph/runtime/internal/ports"
)

// Environment is a static, in-memory registry of schemas, pipes, and nodes.
// It stands in for the out-of-scope collaborator spec.md §6 describes:
// resolving types, pipes, and nodes, and minting metadata sessions.
type Environment struct {
	mu       sync.RWMutex
	schemas  map[string]block.Schema
	pipes    map[string]ports.Pipe
	nodes    map[string]graph.Node
	sessions func(ctx context.Context) (ports.MetadataSession, error)
}

// NewEnvironment constructs an empty Environment. sessionFactory is called
// by NewMetadataSession each time a fresh scoped session is needed.
func NewEnvironment(sessionFactory func(ctx context.Context) (ports.MetadataSession, error)) *Environment {
	return &Environment{
		schemas:  make(map[string]block.Schema),
		pipes:    make(map[string]ports.Pipe),
		nodes:    make(map[string]graph.Node),
		sessions: sessionFactory,
	}
}

// RegisterSchema adds a schema to the environment's registry.
func (e *Environment) RegisterSchema(s block.Schema) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemas[s.Ref] = s
}

// RegisterPipe adds a pipe definition to the environment's registry.
func (e *Environment) RegisterPipe(p ports.Pipe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pipes[p.Key] = p
}

// RegisterNode adds a configured node instance to the environment's registry.
func (e *Environment) RegisterNode(n graph.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[n.Key] = n
}

// GetSchema resolves a schema reference, defaulting unknown-but-well-formed
// generic/Any references to a bare Schema value rather than failing, since
// those are resolved structurally rather than by registry lookup.
func (e *Environment) GetSchema(ctx context.Context, ref string) (block.Schema, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.schemas[ref]; ok {
		return s, nil
	}
	s := block.NewSchema(ref)
	if s.IsAny() || s.IsGeneric() {
		return s, nil
	}
	return block.Schema{}, runlog.NewNoSuchDefinition(ref, "schema")
}

// GetPipe resolves a registered pipe by key.
func (e *Environment) GetPipe(ctx context.Context, key string) (ports.Pipe, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pipes[key]
	if !ok {
		return ports.Pipe{}, fmt.Errorf("memstore: no such pipe %q", key)
	}
	return p, nil
}

// GetNode resolves a registered node by key.
func (e *Environment) GetNode(ctx context.Context, key string) (graph.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.nodes[key]
	if !ok {
		return graph.Node{}, fmt.Errorf("memstore: no such node %q", key)
	}
	return n, nil
}

// NewMetadataSession mints a fresh scoped session via the configured factory.
func (e *Environment) NewMetadataSession(ctx context.Context) (ports.MetadataSession, error) {
	return e.sessions(ctx)
}

var _ ports.Environment = (*Environment)(nil)
