package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/blockgraph/runtime/internal/ports"
)

// Executable bundles everything one Worker invocation needs: the node being
// run, the pipe definition selected for the current runtime, the bound
// interface, and the node's configuration.
type Executable struct {
	NodeKey       string
	PipeKey       string
	Definition    ports.Definition
	Bound         *graph.BoundInterface
	Configuration map[string]interface{}
}

// PipeContext is passed to the pipe callable when its interface wants it.
type PipeContext struct {
	ExecutionContext ExecutionContext
	Worker           *Worker
	Executable       Executable
}

// Config is a shortcut for executable.configuration[key].
func (c PipeContext) Config(key string) (interface{}, bool) {
	v, ok := c.Executable.Configuration[key]
	return v, ok
}

// Worker executes a single invocation: it opens a run session, invokes the
// pipe, conforms the output, and logs inputs/output atomically.
type Worker struct {
	execCtx ExecutionContext
}

// NewWorker constructs a Worker scoped to one execution context.
func NewWorker(execCtx ExecutionContext) *Worker {
	return &Worker{execCtx: execCtx}
}

// Run executes exe and returns the produced block's metadata, or nil if the
// invocation produced no output this iteration.
func (w *Worker) Run(ctx context.Context, exe Executable) (*block.DataBlock, error) {
	session := w.execCtx.Session
	logger := w.execCtx.Logger
	runtimeURL := ""
	if w.execCtx.CurrentRuntime != nil {
		runtimeURL = w.execCtx.CurrentRuntime.URL
	}

	started := time.Now()
	log, err := session.OpenPipeLog(ctx, exe.NodeKey, exe.PipeKey, runtimeURL, started)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug(ctx, "invocation started", "node_key", exe.NodeKey, "pipe_key", log.PipeKey, "runtime_url", runtimeURL)
	}

	out, runErr := w.invoke(ctx, exe)
	if runErr != nil {
		log.Fail(runErr, time.Now())
		if rbErr := session.RollbackPipeLog(ctx, log); rbErr != nil {
			return nil, rbErr
		}
		if logger != nil {
			logger.Error(ctx, "invocation failed", "node_key", exe.NodeKey, "error", runErr.Error())
		}
		return nil, runErr
	}

	produced, conformErr := w.conformOutput(ctx, exe, out)
	if conformErr != nil {
		log.Fail(conformErr, time.Now())
		if rbErr := session.RollbackPipeLog(ctx, log); rbErr != nil {
			return nil, rbErr
		}
		return nil, conformErr
	}

	if err := w.stageLogs(ctx, log, exe, produced); err != nil {
		log.Fail(err, time.Now())
		_ = session.RollbackPipeLog(ctx, log)
		return nil, err
	}

	log.Complete(time.Now())
	if err := session.CommitPipeLog(ctx, log); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info(ctx, "invocation completed", "node_key", exe.NodeKey, "pipe_key", log.PipeKey)
	}

	return produced, nil
}

// invoke builds the invocation arguments and calls the pipe definition.
func (w *Worker) invoke(ctx context.Context, exe Executable) (interface{}, error) {
	if exe.Definition.Callable == nil {
		return nil, runlog.NewNoSuchDefinition(exe.PipeKey, string(exe.Definition.Class))
	}

	args := exe.Bound.AsInvocationArgs()

	if exe.Bound.WantsContext {
		ctx = WithPipeContext(ctx, PipeContext{ExecutionContext: w.execCtx, Worker: w, Executable: exe})
	}

	out, err := func() (out interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		return exe.Definition.Callable(ctx, args)
	}()
	if err != nil {
		return nil, runlog.NewPipeFailure(err)
	}
	return out, nil
}

// conformOutput implements the conformance table: nil means no output;
// metadata values pass through; concrete payloads (records lists) are
// materialized to a fresh block in local memory and converted into the
// target storage.
func (w *Worker) conformOutput(ctx context.Context, exe Executable, out interface{}) (*block.DataBlock, error) {
	if out == nil {
		return nil, nil
	}

	if exe.Bound.Output == nil {
		return nil, runlog.NewUnsupportedOutputType("pipe returned a value but declares no output")
	}

	switch v := out.(type) {
	case block.DataBlock:
		return &v, nil

	case block.DataSet:
		// A DataSet-output pipe returns the aggregate metadata directly; it
		// is merged into the session as-is and produces no new DataBlockLog.
		if err := w.execCtx.Session.UpsertDataSet(ctx, v); err != nil {
			return nil, err
		}
		return nil, nil

	case []block.Record:
		if len(v) == 0 {
			return nil, nil
		}
		return w.materialize(ctx, exe, v)

	case func() ([]block.Record, bool):
		// A reusable generator yielding records lists. Peek the first
		// element; if absent, the output is empty. Otherwise every records
		// list it yields is materialized into one block.
		first, ok := v()
		if !ok {
			return nil, nil
		}
		records := append([]block.Record(nil), first...)
		for {
			chunk, more := v()
			if !more {
				break
			}
			records = append(records, chunk...)
		}
		return w.materialize(ctx, exe, records)

	default:
		return nil, runlog.NewUnsupportedOutputType(
			fmt.Sprintf("pipe output of type %T does not match declared output format class %s", out, exe.Bound.Output.FormatClass))
	}
}

func (w *Worker) materialize(ctx context.Context, exe Executable, records []block.Record) (*block.DataBlock, error) {
	if w.execCtx.LocalMemory == nil {
		return nil, fmt.Errorf("engine: execution context has no local memory storage")
	}

	resolved, err := exe.Bound.ResolveGenerics()
	if err != nil {
		return nil, err
	}
	output := graph.SpecializeOutput(exe.Bound.Output, resolved)

	db, sdb, err := w.execCtx.LocalMemory.CreateDataBlockFromRecords(ctx, output.Schema, records)
	if err != nil {
		return nil, err
	}

	if err := w.execCtx.Session.StageDataBlock(ctx, db, sdb); err != nil {
		return nil, err
	}

	if w.execCtx.TargetStorage == nil {
		return nil, runlog.NewMissingTargetStorage()
	}
	targetSDB, err := w.execCtx.LocalMemory.ConvertLowestCost(ctx, sdb, w.execCtx.TargetStorageURL, block.FormatRecordsList)
	if err != nil {
		return nil, err
	}
	if targetSDB.StorageURL != sdb.StorageURL {
		// Register the target-storage materialization too, so stream
		// filtering by storage allow-list (session.StoredDataBlocksFor)
		// sees every place the block actually lives, not just local memory.
		if err := w.execCtx.Session.StageDataBlock(ctx, db, targetSDB); err != nil {
			return nil, err
		}
	}

	return &db, nil
}

// stageLogs writes DataBlockLog(INPUT) for every bound input slot that had a
// block, and DataBlockLog(OUTPUT) if a block was produced. Output is staged
// before inputs, matching the source order; both are committed atomically
// with the PipeLog by the caller.
func (w *Worker) stageLogs(ctx context.Context, log *runlog.PipeLog, exe Executable, produced *block.DataBlock) error {
	now := time.Now()

	if produced != nil {
		entry := runlog.NewDataBlockLog(log.ID, produced.ID, runlog.DirectionOutput, now)
		if err := w.execCtx.Session.StageDataBlockLog(ctx, entry); err != nil {
			return err
		}
	}

	for _, slot := range exe.Bound.Inputs {
		if slot.BoundBlock == nil {
			continue
		}
		entry := runlog.NewDataBlockLog(log.ID, slot.BoundBlock.ID, runlog.DirectionInput, now)
		if err := w.execCtx.Session.StageDataBlockLog(ctx, entry); err != nil {
			return err
		}
	}

	return nil
}
