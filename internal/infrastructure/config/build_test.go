package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
)

func TestBuildRegistersSchemasPipesAndNodes(t *testing.T) {
	m := &Manifest{
		Version:       "1.0.0",
		Name:          "demo",
		Schemas:       []SchemaSpec{{Ref: "T1"}},
		Runtimes:      []RuntimeSpec{{Class: "PYTHON", URL: "local://runtime"}},
		Storages:      []StorageSpec{{URL: "memory://local"}},
		TargetStorage: "memory://local",
		Pipes: []PipeSpec{
			{
				Key:                "extract_rows",
				Output:             &ParamSpec{Name: "out", Type: "RecordsList[T1]"},
				CompatibleRuntimes: []string{"PYTHON"},
			},
			{
				Key:                "double_rows",
				Inputs:             []ParamSpec{{Name: "records", Type: "DataBlock[T1]"}},
				Output:             &ParamSpec{Name: "out", Type: "RecordsList[T1]"},
				CompatibleRuntimes: []string{"PYTHON"},
			},
		},
		Nodes: []NodeSpec{
			{Key: "extract", PipeKey: "extract_rows"},
			{Key: "double", PipeKey: "double_rows", Inputs: map[string]string{"records": "extract"}},
		},
	}

	called := map[string]int{}
	callables := Callables{
		"extract_rows": {
			"PYTHON": func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
				called["extract_rows"]++
				return nil, nil
			},
		},
		"double_rows": {
			"PYTHON": func(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
				called["double_rows"]++
				return nil, nil
			},
		},
	}

	sessionFactory := func(ctx context.Context) (ports.MetadataSession, error) {
		return memstore.NewSession(), nil
	}

	env, runtimes, err := Build(context.Background(), m, callables, sessionFactory, nil)
	require.NoError(t, err)
	require.Len(t, runtimes, 1)
	assert.Equal(t, "local://runtime", runtimes[0].URL)

	p, err := env.GetPipe(context.Background(), "double_rows")
	require.NoError(t, err)
	assert.Len(t, p.Interface.Inputs, 1)
	require.Contains(t, p.Definitions, ports.RuntimeClassPython)

	node, err := env.GetNode(context.Background(), "double")
	require.NoError(t, err)
	assert.Equal(t, "extract", node.DeclaredInputs["records"])

	_, err = p.Definitions[ports.RuntimeClassPython].Callable(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, called["double_rows"])
}

func TestBuildFailsOnUnknownPipeSignature(t *testing.T) {
	m := &Manifest{
		Pipes: []PipeSpec{
			{Key: "bad", Output: &ParamSpec{Name: "out", Type: "NotAFormatClass"}},
		},
	}

	_, _, err := Build(context.Background(), m, nil, nil, nil)
	require.Error(t, err)
}
