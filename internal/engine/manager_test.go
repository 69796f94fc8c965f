package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires a minimal environment, session, and local-memory storage for
// driving ExecutionManager against hand-built pipes and nodes.
type harness struct {
	t       *testing.T
	env     *memstore.Environment
	session *memstore.Session
	local   *memstore.MemoryStorage
	target  *memstore.MemoryStorage
	mgr     *ExecutionManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := memstore.NewEnvironment(func(ctx context.Context) (ports.MetadataSession, error) {
		return memstore.NewSession(), nil
	})
	return &harness{
		t:       t,
		env:     env,
		session: memstore.NewSession(),
		local:   memstore.NewMemoryStorage("memory://local"),
		target:  memstore.NewMemoryStorage("memory://target"),
		mgr:     NewExecutionManager(env, []ports.Runtime{{Class: ports.RuntimeClassPython, URL: "local://runtime"}}),
	}
}

func (h *harness) execute(t *testing.T, node graph.Node, toExhaustion bool) (*block.DataBlock, error) {
	t.Helper()
	return h.mgr.Execute(
		context.Background(),
		node,
		h.session,
		h.local,
		h.target,
		h.target.URL(),
		[]string{h.local.URL(), h.target.URL()},
		nil,
		toExhaustion,
	)
}

func mustIface(t *testing.T, sig pipe.Signature) pipe.Interface {
	t.Helper()
	iface, err := pipe.ParseInterface(sig)
	require.NoError(t, err)
	return iface
}

// Scenario A — source pipe, single shot.
func TestSourcePipeRunsExactlyOnce(t *testing.T) {
	h := newHarness(t)

	iface := mustIface(t, pipe.Signature{
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T4]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})

	calls := 0
	h.env.RegisterPipe(ports.Pipe{
		Key:       "src",
		Interface: iface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					calls++
					return []block.Record{{"f1": "2"}, {"f2": 3}}, nil
				},
			},
		},
	})

	node := graph.NewNode("src_node", "src", iface, nil, nil)
	h.env.RegisterNode(node)

	out, err := h.execute(t, node, true)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "T4", out.NominalSchema.Ref)

	produced, err := h.session.BlocksProducedBy(context.Background(), "src_node")
	require.NoError(t, err)
	require.Len(t, produced, 1)

	logs := h.session.AllDataBlockLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, runlog.DirectionOutput, logs[0].Direction)

	records, ok := h.local.Records(out.ID)
	require.True(t, ok)
	assert.Equal(t, []block.Record{{"f1": "2"}, {"f2": 3}}, records)
}

// Scenario B — exhaustion on empty input.
func TestSinkOnEmptyInputExhaustsImmediately(t *testing.T) {
	h := newHarness(t)

	upstreamIface := mustIface(t, pipe.Signature{
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T1]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	upstream := graph.NewNode("upstream", "noop_src", upstreamIface, nil, nil)
	h.env.RegisterNode(upstream)

	sinkIface := mustIface(t, pipe.Signature{
		Inputs:             []pipe.ParamSpec{{Name: "input", TypeAnnotation: "DataBlock[T1]"}},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	called := false
	h.env.RegisterPipe(ports.Pipe{
		Key:       "sink",
		Interface: sinkIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					called = true
					return nil, nil
				},
			},
		},
	})
	sinkNode := graph.NewNode("sink_node", "sink", sinkIface, map[string]string{"input": "upstream"}, nil)
	h.env.RegisterNode(sinkNode)

	out, err := h.execute(t, sinkNode, true)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.False(t, called)

	logs := h.session.AllPipeLogs()
	assert.Empty(t, logs)
}

// Scenario C — one-block flow, with no new logs on rerun.
func TestOneBlockFlowProducesNoNewLogsOnRerun(t *testing.T) {
	h := newHarness(t)

	srcIface := mustIface(t, pipe.Signature{
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T1]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	h.env.RegisterPipe(ports.Pipe{
		Key:       "src",
		Interface: srcIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					return []block.Record{{"v": 1}}, nil
				},
			},
		},
	})
	srcNode := graph.NewNode("src_node", "src", srcIface, nil, nil)
	h.env.RegisterNode(srcNode)

	b1, err := h.execute(t, srcNode, true)
	require.NoError(t, err)
	require.NotNil(t, b1)

	xformIface := mustIface(t, pipe.Signature{
		Inputs:             []pipe.ParamSpec{{Name: "input", TypeAnnotation: "DataBlock[T1]"}},
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T2]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	xformCalls := 0
	h.env.RegisterPipe(ports.Pipe{
		Key:       "xform",
		Interface: xformIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					xformCalls++
					in := args["input"]
					return []block.Record{{"from": in.ID}}, nil
				},
			},
		},
	})
	xformNode := graph.NewNode("xform_node", "xform", xformIface, map[string]string{"input": "src_node"}, nil)
	h.env.RegisterNode(xformNode)

	b2, err := h.execute(t, xformNode, true)
	require.NoError(t, err)
	require.NotNil(t, b2)
	assert.Equal(t, 1, xformCalls)

	logs := h.session.AllDataBlockLogs()
	var inputLogs, outputLogs int
	for _, l := range logs {
		switch l.Direction {
		case runlog.DirectionInput:
			if l.BlockID == b1.ID {
				inputLogs++
			}
		case runlog.DirectionOutput:
			if l.BlockID == b2.ID {
				outputLogs++
			}
		}
	}
	assert.Equal(t, 1, inputLogs)
	assert.Equal(t, 1, outputLogs)

	logCountBefore := len(h.session.AllDataBlockLogs())
	b3, err := h.execute(t, xformNode, true)
	require.NoError(t, err)
	assert.Nil(t, b3)
	assert.Equal(t, 1, xformCalls, "rerun must not invoke the pipe callable again")
	assert.Equal(t, logCountBefore, len(h.session.AllDataBlockLogs()), "rerun must not add new log rows")
}

// Scenario D — pipe failure rolls back the invocation but keeps the failed PipeLog.
func TestPipeFailureRollsBackAndPropagates(t *testing.T) {
	h := newHarness(t)

	iface := mustIface(t, pipe.Signature{
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T1]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	h.env.RegisterPipe(ports.Pipe{
		Key:       "flaky",
		Interface: iface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					return nil, fmt.Errorf("pipe FAIL")
				},
			},
		},
	})
	node := graph.NewNode("flaky_node", "flaky", iface, nil, nil)
	h.env.RegisterNode(node)

	out, err := h.execute(t, node, true)
	require.Error(t, err)
	assert.Nil(t, out)

	var de *runlog.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, runlog.ErrCodePipeFailure, de.Code)

	pipeLogs := h.session.AllPipeLogs()
	require.Len(t, pipeLogs, 1)
	require.NotNil(t, pipeLogs[0].Error)
	assert.Equal(t, "pipe FAIL", pipeLogs[0].Error.Message)
	assert.NotZero(t, pipeLogs[0].CompletedAt)

	assert.Empty(t, h.session.AllDataBlockLogs())
	produced, err := h.session.BlocksProducedBy(context.Background(), "flaky_node")
	require.NoError(t, err)
	assert.Empty(t, produced)
}

// Scenario E — self-ref accumulator cycle.
func TestSelfRefAccumulatorConsumesItsOwnOutput(t *testing.T) {
	h := newHarness(t)

	iface := mustIface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "this", TypeAnnotation: "Optional[DataBlock[T1]]"},
			{Name: "new", TypeAnnotation: "DataBlock[T1]"},
		},
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T1]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})

	seenThis := []bool{}
	h.env.RegisterPipe(ports.Pipe{
		Key:       "acc",
		Interface: iface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					_, ok := args["this"]
					seenThis = append(seenThis, ok)
					return []block.Record{{"n": len(seenThis)}}, nil
				},
			},
		},
	})

	feederIface := mustIface(t, pipe.Signature{
		Output:             &pipe.ParamSpec{TypeAnnotation: "RecordsList[T1]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	feederCalls := 0
	h.env.RegisterPipe(ports.Pipe{
		Key:       "feeder",
		Interface: feederIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					feederCalls++
					if feederCalls > 2 {
						return nil, nil
					}
					return []block.Record{{"feed": feederCalls}}, nil
				},
			},
		},
	})
	feederNode := graph.NewNode("feeder_node", "feeder", feederIface, nil, nil)
	h.env.RegisterNode(feederNode)

	accNode := graph.NewNode("acc_node", "acc", iface, map[string]string{
		"this": "acc_node",
		"new":  "feeder_node",
	}, nil)
	h.env.RegisterNode(accNode)

	_, err := h.execute(t, feederNode, false)
	require.NoError(t, err)
	out1, err := h.execute(t, accNode, false)
	require.NoError(t, err)
	require.NotNil(t, out1)

	_, err = h.execute(t, feederNode, false)
	require.NoError(t, err)
	out2, err := h.execute(t, accNode, false)
	require.NoError(t, err)
	require.NotNil(t, out2)

	require.Len(t, seenThis, 2)
	assert.False(t, seenThis[0], "first iteration has no prior self output")
	assert.True(t, seenThis[1], "second iteration must see its own first output as this")
}

// Scenario F — invalid signature rejects construction before any execution.
func TestInvalidSignatureRejectsTwoNonOptionalDataBlocks(t *testing.T) {
	_, err := pipe.ParseInterface(pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "a", TypeAnnotation: "DataBlock[T1]"},
			{Name: "b", TypeAnnotation: "DataBlock[T1]"},
		},
	})
	require.Error(t, err)
	var de *runlog.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, runlog.ErrCodeInvalidSignature, de.Code)
}
