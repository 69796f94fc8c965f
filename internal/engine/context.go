package engine

import (
	"context"

	"github.com/blockgraph/runtime/internal/ports"
)

// ExecutionContext is the read-only handle to the environment, storages, and
// selected runtime an invocation runs under. A PipeContext (see worker.go)
// exposes a view of it to callables that request it.
type ExecutionContext struct {
	Env              ports.Environment
	Session          ports.MetadataSession
	Storages         []string // allow-list of storage URLs candidate blocks must reside on
	LocalMemory      ports.Storage
	TargetStorage    ports.Storage
	TargetStorageURL string
	CurrentRuntime   *ports.Runtime
	Logger           ports.Logger
}

// WithRuntime returns a copy of the context scoped to a chosen runtime, as
// ExecutionManager.Execute does once before its run loop starts.
func (c ExecutionContext) WithRuntime(rt ports.Runtime) ExecutionContext {
	c.CurrentRuntime = &rt
	return c
}

// AllowedStorageURLs returns the storage allow-list for stream filtering:
// the context's configured storages plus local memory.
func (c ExecutionContext) AllowedStorageURLs() []string {
	urls := append([]string(nil), c.Storages...)
	if c.LocalMemory != nil {
		urls = append(urls, c.LocalMemory.URL())
	}
	return urls
}

type pipeContextKey struct{}

// WithPipeContext attaches pc to ctx so a callable whose interface declared
// a context parameter can retrieve it with PipeContextFrom.
func WithPipeContext(ctx context.Context, pc PipeContext) context.Context {
	return context.WithValue(ctx, pipeContextKey{}, pc)
}

// PipeContextFrom retrieves the PipeContext attached by Worker.invoke, if
// the invoking pipe's interface declared a context parameter.
func PipeContextFrom(ctx context.Context) (PipeContext, bool) {
	pc, ok := ctx.Value(pipeContextKey{}).(PipeContext)
	return pc, ok
}
