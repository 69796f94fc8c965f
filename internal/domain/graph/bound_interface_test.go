package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInterface(t *testing.T, sig pipe.Signature) pipe.Interface {
	t.Helper()
	iface, err := pipe.ParseInterface(sig)
	require.NoError(t, err)
	return iface
}

func TestAssignInputsSingleValue(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{{Name: "input", TypeAnnotation: "DataBlock[T1]"}},
	})
	resolved, err := AssignInputs(iface, RawInputs{Single: "src"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"input": "src"}, resolved)
}

func TestAssignInputsNamedMapMismatch(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{{Name: "a", TypeAnnotation: "DataBlock[T1]"}},
	})
	_, err := AssignInputs(iface, RawInputs{Named: map[string]string{"wrong": "src"}})
	require.Error(t, err)
	var de *runlog.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, runlog.ErrCodeInvalidInputAssign, de.Code)
}

func TestAssignInputsIgnoresThisKey(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "this", TypeAnnotation: "DataBlock[T]"},
			{Name: "new", TypeAnnotation: "DataBlock[T]"},
		},
	})
	resolved, err := AssignInputs(iface, RawInputs{Named: map[string]string{"this": "acc", "new": "src"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"this": "acc", "new": "src"}, resolved)
}

func TestConnectBindsSelfRefToNode(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "this", TypeAnnotation: "DataBlock[T]"},
			{Name: "new", TypeAnnotation: "DataBlock[T]"},
		},
	})
	self := NewNode("acc", "acc_pipe", iface, nil, nil)
	src := NewNode("src", "src_pipe", pipe.Interface{}, nil, nil)

	bound := NewBoundInterface(iface)
	err := bound.Connect(map[string]*Node{"new": &src}, &self)
	require.NoError(t, err)

	thisSlot, ok := bound.Get("this")
	require.True(t, ok)
	assert.Equal(t, "acc", thisSlot.BoundUpstream.Key)

	newSlot, ok := bound.Get("new")
	require.True(t, ok)
	assert.Equal(t, "src", newSlot.BoundUpstream.Key)
}

func TestAsInvocationArgsExcludesUnbound(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "required", TypeAnnotation: "DataBlock[T1]"},
			{Name: "opt", TypeAnnotation: "Optional[DataBlock[T1]]"},
		},
	})
	bound := NewBoundInterface(iface)
	b1 := block.NewDataBlock(block.NewSchema("T1"), block.NewSchema("T1"), 1, time.Unix(0, 0))
	bound.Bind(map[string]block.DataBlock{"required": b1})

	args := bound.AsInvocationArgs()
	assert.Len(t, args, 1)
	_, ok := args["opt"]
	assert.False(t, ok)
}

func TestResolveGenericsMapsLabelToRealizedSchema(t *testing.T) {
	iface := mustInterface(t, pipe.Signature{
		Inputs: []pipe.ParamSpec{
			{Name: "a", TypeAnnotation: "DataBlock[T]"},
			{Name: "b", TypeAnnotation: "Optional[DataBlock[T1]]"},
		},
	})
	bound := NewBoundInterface(iface)
	a := block.NewDataBlock(block.NewSchema("T"), block.NewSchema("concrete1"), 1, time.Unix(0, 0))
	bound.Bind(map[string]block.DataBlock{"a": a})

	resolved, err := bound.ResolveGenerics()
	require.NoError(t, err)
	assert.Equal(t, "concrete1", resolved["T"].Ref)
}
