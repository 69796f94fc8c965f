package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockgraph/runtime/internal/domain/graph"
)

func TestFindNode(t *testing.T) {
	nodes := []graph.Node{{Key: "source"}, {Key: "summary"}}

	n, ok := findNode(nodes, "summary")
	require.True(t, ok)
	assert.Equal(t, "summary", n.Key)

	_, ok = findNode(nodes, "missing")
	assert.False(t, ok)
}

func TestLoadEnvironmentAndRunAll(t *testing.T) {
	ctx := context.Background()
	manifestPath := filepath.Join("..", "..", "examples", "static-summary.yaml")

	env, runtimes, nodes, err := loadEnvironment(ctx, manifestPath, nil)
	require.NoError(t, err)
	require.Len(t, runtimes, 1)
	require.Len(t, nodes, 2)

	_ = env

	err = runNodes(ctx, manifestPath, runOptions{all: true}, nil)
	require.NoError(t, err)
}

func TestRunNodesRejectsUnknownNode(t *testing.T) {
	manifestPath := filepath.Join("..", "..", "examples", "static-summary.yaml")
	err := runNodes(context.Background(), manifestPath, runOptions{node: "does-not-exist"}, nil)
	require.Error(t, err)
}

func TestNewRunCmdRequiresManifestOrTarget(t *testing.T) {
	app := &AppContext{}
	flags := &rootFlags{}
	cmd := newRunCmd(flags, app)

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--manifest")

	flags.manifest = filepath.Join("..", "..", "examples", "static-summary.yaml")
	err = cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--node")
}
