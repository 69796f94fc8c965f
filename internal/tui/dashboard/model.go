// Package dashboard is a live bubbletea viewer over node execution: a
// scrollable node list with per-node status, a detail pane showing the most
// recent output or error, and a backlog sweep that drives every node to
// exhaustion in declared order.
package dashboard

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
)

// nodeStatus is the dashboard's own display status for a node, distinct
// from any persisted NodeState the engine tracks.
type nodeStatus struct {
	state      string // "idle", "running", "done", "failed"
	lastOutput *block.DataBlock
	lastErr    string
}

// Model is the dashboard's bubbletea model.
type Model struct {
	ctx context.Context
	rc  RunConfig

	nodes    []graph.Node
	statuses map[string]nodeStatus

	viewMode ViewMode
	cursor   int

	spinner     spinner.Model
	progress    backlogProgress
	sweepActive bool
	sweepDone   int

	showError bool
	errorMsg  string

	width  int
	height int
}

// NewModel constructs a dashboard model over nodes, which the caller must
// have already sorted into a valid execution order.
func NewModel(ctx context.Context, nodes []graph.Node, rc RunConfig) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	statuses := make(map[string]nodeStatus, len(nodes))
	for _, n := range nodes {
		statuses[n.Key] = nodeStatus{state: "idle"}
	}

	return Model{
		ctx:      ctx,
		rc:       rc,
		nodes:    nodes,
		statuses: statuses,
		viewMode: ViewList,
		spinner:  s,
		progress: newBacklogProgress(len(nodes)),
		width:    80,
		height:   24,
	}
}

// Init starts the spinner ticking; it renders inert until a run begins.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) selectedNode() (graph.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return graph.Node{}, false
	}
	return m.nodes[m.cursor], true
}

func (m *Model) moveCursorUp() {
	if len(m.nodes) == 0 {
		return
	}
	m.cursor--
	if m.cursor < 0 {
		m.cursor = len(m.nodes) - 1
	}
}

func (m *Model) moveCursorDown() {
	if len(m.nodes) == 0 {
		return
	}
	m.cursor++
	if m.cursor >= len(m.nodes) {
		m.cursor = 0
	}
}

func (m *Model) anyRunning() bool {
	if m.sweepActive {
		return true
	}
	for _, s := range m.statuses {
		if s.state == "running" {
			return true
		}
	}
	return false
}
