package runlog

import (
	"encoding/json"
	"errors"
	"time"
)

// Direction distinguishes whether a block was consumed or produced by a
// pipe-log entry.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// ExecutionError is the structured error payload persisted on a failed
// PipeLog, truncated to keep log rows bounded.
type ExecutionError struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

const maxTracebackLen = 5000

// NewExecutionError builds an ExecutionError from a message and traceback
// text, truncating the traceback to the persisted-row budget.
func NewExecutionError(message, traceback string) *ExecutionError {
	if len(traceback) > maxTracebackLen {
		traceback = traceback[:maxTracebackLen]
	}
	return &ExecutionError{Message: message, Traceback: traceback}
}

// PipeLog is one execution record: the scope of a single Worker invocation.
type PipeLog struct {
	ID             string
	NodeKey        string
	PipeKey        string
	NodeStartState json.RawMessage
	NodeEndState   json.RawMessage
	RuntimeURL     string
	StartedAt      time.Time
	CompletedAt    *time.Time
	Error          *ExecutionError
}

// Open returns a new PipeLog scoped to the given node/pipe invocation, with
// started_at set to now.
func Open(nodeKey, pipeKey, runtimeURL string, now time.Time) *PipeLog {
	return &PipeLog{
		ID:         "pipelog_" + nodeKey + "_" + now.Format(time.RFC3339Nano),
		NodeKey:    nodeKey,
		PipeKey:    pipeKey,
		RuntimeURL: runtimeURL,
		StartedAt:  now,
	}
}

// Fail finalizes the log with an error at the given completion time
// (invariant 6: completed_at is always set and >= started_at). The stored
// message unwraps a DomainError to its cause's own text, so a pipe callable's
// error reads back as written rather than wrapped in engine diagnostic
// prefixes (the code/context still travel on the returned error itself).
func (p *PipeLog) Fail(err error, now time.Time) {
	p.CompletedAt = &now
	p.Error = NewExecutionError(causeMessage(err), "")
}

func causeMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Cause != nil {
		return de.Cause.Error()
	}
	return err.Error()
}

// Complete finalizes the log successfully at the given completion time.
func (p *PipeLog) Complete(now time.Time) {
	p.CompletedAt = &now
}

// DataBlockLog is a per-block input/output record tied to one PipeLog.
type DataBlockLog struct {
	PipeLogID   string
	BlockID     string
	Direction   Direction
	ProcessedAt time.Time
}

// NewDataBlockLog constructs a log row for one block's participation in one
// pipe-log invocation.
func NewDataBlockLog(pipeLogID, blockID string, direction Direction, at time.Time) DataBlockLog {
	return DataBlockLog{PipeLogID: pipeLogID, BlockID: blockID, Direction: direction, ProcessedAt: at}
}

// NodeState is the opaque JSON state a node persists across runs.
type NodeState struct {
	NodeKey string
	State   json.RawMessage
}
