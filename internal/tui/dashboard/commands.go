package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/engine"
	"github.com/blockgraph/runtime/internal/ports"
)

// RunConfig bundles everything one node execution needs, wired in by
// whatever process constructs the dashboard (see cmd/blockgraphd).
type RunConfig struct {
	manager          *engine.ExecutionManager
	session          ports.MetadataSession
	localStorage     ports.Storage
	targetStorage    ports.Storage
	targetStorageURL string
	storageAllowList []string
	logger           ports.Logger
}

// NewRunConfig constructs a RunConfig for wiring into NewModel.
func NewRunConfig(
	manager *engine.ExecutionManager,
	session ports.MetadataSession,
	localStorage ports.Storage,
	targetStorage ports.Storage,
	targetStorageURL string,
	storageAllowList []string,
	logger ports.Logger,
) RunConfig {
	return RunConfig{
		manager:          manager,
		session:          session,
		localStorage:     localStorage,
		targetStorage:    targetStorage,
		targetStorageURL: targetStorageURL,
		storageAllowList: storageAllowList,
		logger:           logger,
	}
}

// runNodeCmd drives node to exhaustion and reports its outcome.
func runNodeCmd(ctx context.Context, rc RunConfig, node graph.Node) tea.Cmd {
	return func() tea.Msg {
		out, err := rc.manager.Execute(ctx, node, rc.session, rc.localStorage, rc.targetStorage,
			rc.targetStorageURL, rc.storageAllowList, rc.logger, true)
		return nodeRunCompleteMsg{NodeKey: node.Key, Output: out, Err: err, FinishedAt: time.Now()}
	}
}

// runAllStepCmd drives the node at nodes[index] to exhaustion, reporting its
// position in the sweep so the caller can chain the next step on completion.
// Nodes are visited in the declared order, which callers are expected to
// have already sorted topologically — the dashboard does not reorder them.
func runAllStepCmd(ctx context.Context, rc RunConfig, nodes []graph.Node, index int) tea.Cmd {
	node := nodes[index]
	return func() tea.Msg {
		out, err := rc.manager.Execute(ctx, node, rc.session, rc.localStorage, rc.targetStorage,
			rc.targetStorageURL, rc.storageAllowList, rc.logger, true)
		return runAllStepMsg{NodeKey: node.Key, Index: index, Total: len(nodes), Output: out, Err: err}
	}
}
