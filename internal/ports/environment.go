package ports

import (
	"context"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
)

// Pipe is a registered transformation: its parsed interface plus one
// definition per compatible runtime class.
type Pipe struct {
	Key         string
	Interface   pipe.Interface
	Definitions map[pipe.RuntimeClass]Definition
}

// Definition is one runtime-class-specific implementation of a pipe: either
// a Go callable, or a SQL template string (selected only when the chosen
// runtime's class is DATABASE; executing SQL definitions is out of scope for
// the engine itself).
type Definition struct {
	Class    pipe.RuntimeClass
	Callable Callable
	SQL      string
}

// Callable is a pipe's Go-native implementation: it receives the bound
// invocation arguments (and, when WantsContext is set, a PipeContext the
// caller attaches to ctx, read back with engine.PipeContextFrom) and
// returns a value conforming to the declared output format class, or nil
// for no output this iteration.
type Callable func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error)

// Environment resolves the external, registry-backed collaborators the
// engine consumes but does not own: schema lookup, pipe/node registries, and
// metadata session acquisition.
type Environment interface {
	GetSchema(ctx context.Context, ref string) (block.Schema, error)
	GetPipe(ctx context.Context, key string) (Pipe, error)
	GetNode(ctx context.Context, key string) (graph.Node, error)
	NewMetadataSession(ctx context.Context) (MetadataSession, error)
}
