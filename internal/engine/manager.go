package engine

import (
	"context"
	"errors"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/blockgraph/runtime/internal/ports"
)

// ExecutionManager drives one node to output or to exhaustion: it selects a
// compatible runtime, then repeatedly constructs bound interfaces and
// dispatches them to the Worker.
type ExecutionManager struct {
	env      ports.Environment
	runtimes []ports.Runtime
}

// NewExecutionManager constructs a manager with the given environment and
// the ordered list of runtimes a context may dispatch to.
func NewExecutionManager(env ports.Environment, runtimes []ports.Runtime) *ExecutionManager {
	return &ExecutionManager{env: env, runtimes: runtimes}
}

// selectRuntime returns the first runtime whose class is compatible with the
// pipe's declared compatibility set. A pipe that declares no compatible
// runtimes gets the first runtime in the list.
func (m *ExecutionManager) selectRuntime(p ports.Pipe) (ports.Runtime, error) {
	compatible := make(map[string]bool, len(p.Interface.CompatibleRuntimes))
	for _, c := range p.Interface.CompatibleRuntimes {
		compatible[string(c)] = true
	}
	if len(compatible) == 0 {
		if len(m.runtimes) == 0 {
			return ports.Runtime{}, runlog.NewNoCompatibleRuntime(p.Key)
		}
		return m.runtimes[0], nil
	}
	for _, rt := range m.runtimes {
		if compatible[string(rt.Class)] {
			return rt, nil
		}
	}
	return ports.Runtime{}, runlog.NewNoCompatibleRuntime(p.Key)
}

// Execute drives node, using session as the scoped metadata session for the
// whole call, storages as the stream allow-list, and targetStorage as the
// destination for freshly produced blocks. When toExhaustion is true the
// node is re-run until InputExhausted or, for a source pipe, once.
func (m *ExecutionManager) Execute(
	ctx context.Context,
	node graph.Node,
	session ports.MetadataSession,
	localMemory ports.Storage,
	targetStorage ports.Storage,
	targetStorageURL string,
	storages []string,
	logger ports.Logger,
	toExhaustion bool,
) (*block.DataBlock, error) {
	p, err := m.env.GetPipe(ctx, node.PipeKey)
	if err != nil {
		return nil, err
	}

	runtime, err := m.selectRuntime(p)
	if err != nil {
		return nil, err
	}

	execCtx := ExecutionContext{
		Env:              m.env,
		Session:          session,
		Storages:         storages,
		LocalMemory:      localMemory,
		TargetStorage:    targetStorage,
		TargetStorageURL: targetStorageURL,
		Logger:           logger,
	}.WithRuntime(runtime)

	var last *block.DataBlock
	runs, outputs := 0, 0

	for {
		bound, bindErr := NewNodeInterfaceManager(execCtx, node).Bind(ctx)
		if bindErr != nil {
			var de *runlog.DomainError
			if errors.As(bindErr, &de) && de.Code == runlog.ErrCodeInputExhausted {
				// InputExhausted inside the run loop is always recovered:
				// it terminates the loop cleanly and Execute returns the
				// most recent output, even on the very first iteration
				// (a sink with no upstream work produces zero PipeLog rows
				// and a nil result rather than propagating an error).
				break
			}
			return nil, bindErr
		}

		defn, ok := p.Definitions[runtime.Class]
		if !ok {
			return nil, runlog.NewNoSuchDefinition(p.Key, string(runtime.Class))
		}

		worker := NewWorker(execCtx)
		out, runErr := worker.Run(ctx, Executable{
			NodeKey:       node.Key,
			PipeKey:       p.Key,
			Definition:    defn,
			Bound:         bound,
			Configuration: node.Config,
		})
		if runErr != nil {
			return nil, runErr
		}

		runs++
		if out != nil {
			last = out
			outputs++
		}

		if !toExhaustion || len(bound.Inputs) == 0 {
			break
		}
	}

	if logger != nil {
		logger.Info(ctx, "node drained", "node_key", node.Key, "pipe_key", p.Key, "n_runs", runs, "n_outputs", outputs)
	}

	return last, nil
}
