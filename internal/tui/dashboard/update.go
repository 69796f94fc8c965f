package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and advances the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case nodeRunCompleteMsg:
		status := m.statuses[msg.NodeKey]
		if msg.Err != nil {
			status.state = "failed"
			status.lastErr = msg.Err.Error()
			m.showError = true
			m.errorMsg = "node " + msg.NodeKey + " failed: " + msg.Err.Error()
		} else {
			status.state = "done"
			status.lastOutput = msg.Output
			status.lastErr = ""
		}
		m.statuses[msg.NodeKey] = status
		return m, nil

	case runAllStepMsg:
		status := m.statuses[msg.NodeKey]
		if msg.Err != nil {
			status.state = "failed"
			status.lastErr = msg.Err.Error()
			m.showError = true
			m.errorMsg = "node " + msg.NodeKey + " failed: " + msg.Err.Error()
		} else {
			status.state = "done"
			status.lastOutput = msg.Output
			status.lastErr = ""
		}
		m.statuses[msg.NodeKey] = status
		m.sweepDone = msg.Index + 1

		if msg.Err != nil || msg.Index+1 >= msg.Total {
			m.sweepActive = false
			return m, nil
		}
		next := m.nodes[msg.Index+1]
		nextStatus := m.statuses[next.Key]
		nextStatus.state = "running"
		m.statuses[next.Key] = nextStatus
		return m, runAllStepCmd(m.ctx, m.rc, m.nodes, msg.Index+1)

	case runAllCompleteMsg:
		m.sweepActive = false
		return m, nil

	case toggleHelpMsg:
		if m.viewMode == ViewHelp {
			m.viewMode = ViewList
		} else {
			m.viewMode = ViewHelp
		}
		return m, nil

	case clearErrorMsg:
		m.showError = false
		m.errorMsg = ""
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.viewMode == ViewHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.viewMode = ViewList
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "?":
		m.viewMode = ViewHelp
		return m, nil

	case "up", "k":
		m.moveCursorUp()
		return m, nil

	case "down", "j":
		m.moveCursorDown()
		return m, nil

	case "enter":
		if m.viewMode == ViewList {
			m.viewMode = ViewDetail
			return m, nil
		}
		m.viewMode = ViewList
		return m, nil

	case "esc":
		m.viewMode = ViewList
		return m, nil

	case "r":
		if m.anyRunning() {
			return m, nil
		}
		node, ok := m.selectedNode()
		if !ok {
			return m, nil
		}
		status := m.statuses[node.Key]
		status.state = "running"
		m.statuses[node.Key] = status
		return m, runNodeCmd(m.ctx, m.rc, node)

	case "a":
		if m.anyRunning() || len(m.nodes) == 0 {
			return m, nil
		}
		m.sweepActive = true
		m.sweepDone = 0
		for k, s := range m.statuses {
			s.state = "idle"
			m.statuses[k] = s
		}
		first := m.statuses[m.nodes[0].Key]
		first.state = "running"
		m.statuses[m.nodes[0].Key] = first
		return m, runAllStepCmd(m.ctx, m.rc, m.nodes, 0)

	case "e":
		m.showError = false
		m.errorMsg = ""
		return m, nil
	}

	return m, nil
}
