package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/engine"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
)

// harness mirrors internal/engine's own test harness: a minimal environment,
// session, and local-memory storage for driving ExecutionManager directly.
type harness struct {
	t       *testing.T
	env     *memstore.Environment
	session *memstore.Session
	local   *memstore.MemoryStorage
	target  *memstore.MemoryStorage
	mgr     *engine.ExecutionManager
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
		mgr:     engine.NewExecutionManager(env, []ports.Runtime{{Class: ports.RuntimeClassPython, URL: "local://runtime"}}),
	}
}

func (h *harness) execute(node graph.Node) (*block.DataBlock, error) {
	h.t.Helper()
	return h.mgr.Execute(
		context.Background(),
		node,
		h.session,
		h.local,
		h.target,
		h.target.URL(),
		[]string{h.local.URL(), h.target.URL()},
		nil,
		true,
	)
}

func TestStaticSourceCallableReadsConfigThroughPipeContext(t *testing.T) {
	h := newHarness(t)

	iface, err := pipe.ParseInterface(pipe.Signature{
		Inputs:             []pipe.ParamSpec{{Name: "context", TypeAnnotation: "Context"}},
		Output:             &pipe.ParamSpec{Name: "out", TypeAnnotation: "RecordsList[demo.event]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	require.NoError(t, err)
	require.True(t, iface.WantsContext)

	h.env.RegisterPipe(ports.Pipe{
		Key:       "source.static",
		Interface: iface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {Class: ports.RuntimeClassPython, Callable: staticSourceCallable},
		},
	})

	node := graph.NewNode("source", "source.static", iface, nil, map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{"id": "1", "name": "first"},
			map[string]interface{}{"id": "2", "name": "second"},
		},
	})
	h.env.RegisterNode(node)

	out, err := h.execute(node)
	require.NoError(t, err)
	require.NotNil(t, out)

	records, ok := h.local.Records(out.ID)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0]["name"])
}

func TestStaticSourceCallableWithNoRecordsProducesNoOutput(t *testing.T) {
	h := newHarness(t)

	iface, err := pipe.ParseInterface(pipe.Signature{
		Inputs:             []pipe.ParamSpec{{Name: "context", TypeAnnotation: "Context"}},
		Output:             &pipe.ParamSpec{Name: "out", TypeAnnotation: "RecordsList[demo.event]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	require.NoError(t, err)

	h.env.RegisterPipe(ports.Pipe{
		Key:       "source.static",
		Interface: iface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {Class: ports.RuntimeClassPython, Callable: staticSourceCallable},
		},
	})

	node := graph.NewNode("source", "source.static", iface, nil, nil)
	h.env.RegisterNode(node)

	out, err := h.execute(node)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSummarizeSinkCallableFoldsUpstreamMetadata(t *testing.T) {
	h := newHarness(t)

	sourceIface, err := pipe.ParseInterface(pipe.Signature{
		Output:             &pipe.ParamSpec{Name: "out", TypeAnnotation: "RecordsList[demo.event]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	require.NoError(t, err)

	calls := 0
	h.env.RegisterPipe(ports.Pipe{
		Key:       "source.literal",
		Interface: sourceIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {
				Class: ports.RuntimeClassPython,
				Callable: func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
					calls++
					if calls > 1 {
						return nil, nil
					}
					return []block.Record{{"id": "1"}}, nil
				},
			},
		},
	})
	source := graph.NewNode("source", "source.literal", sourceIface, nil, nil)
	h.env.RegisterNode(source)

	sinkIface, err := pipe.ParseInterface(pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "in", TypeAnnotation: "DataBlock[demo.event]"},
			{Name: "context", TypeAnnotation: "Context"},
		},
		Output:             &pipe.ParamSpec{Name: "out", TypeAnnotation: "DataSet[demo.summary]"},
		CompatibleRuntimes: []pipe.RuntimeClass{ports.RuntimeClassPython},
	})
	require.NoError(t, err)
	h.env.RegisterPipe(ports.Pipe{
		Key:       "sink.summarize",
		Interface: sinkIface,
		Definitions: map[pipe.RuntimeClass]ports.Definition{
			ports.RuntimeClassPython: {Class: ports.RuntimeClassPython, Callable: summarizeSinkCallable},
		},
	})
	sink := graph.NewNode("summary", "sink.summarize", sinkIface, map[string]string{"in": "source"},
		map[string]interface{}{"name": "event-summary"})
	h.env.RegisterNode(sink)

	_, err = h.execute(source)
	require.NoError(t, err)

	out, err := h.execute(sink)
	require.NoError(t, err)
	assert.Nil(t, out, "a DataSet-returning sink produces no new DataBlock")

	dataset, ok, err := h.session.DataSetFor(context.Background(), "summary")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "event-summary", dataset.Name)
	assert.Equal(t, "summary", dataset.NodeKey)
}
