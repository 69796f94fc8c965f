package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.viewMode == ViewHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("blockgraph dashboard"))
	b.WriteString("\n")

	if m.showError {
		b.WriteString(errorBannerStyle.Render(m.errorMsg))
		b.WriteString("\n")
	}

	if m.sweepActive {
		b.WriteString(m.spinner.View() + " running backlog sweep  " + m.progress.View(m.sweepDone))
		b.WriteString("\n\n")
	}

	switch m.viewMode {
	case ViewDetail:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderList() string {
	if len(m.nodes) == 0 {
		return emptyStateStyle.Render("no nodes registered")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("nodes (%d)", len(m.nodes))))
	b.WriteString("\n")

	for i, n := range m.nodes {
		status := m.statuses[n.Key]
		line := fmt.Sprintf("%-24s %s", n.Key, m.renderStatus(status))
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatus(s nodeStatus) string {
	switch s.state {
	case "running":
		return statusStyle("running").Render(m.spinner.View() + " running")
	case "done":
		summary := "done (no output)"
		if s.lastOutput != nil {
			summary = fmt.Sprintf("done (%d records)", s.lastOutput.RecordCount)
		}
		return statusStyle("done").Render(summary)
	case "failed":
		return statusStyle("failed").Render("failed: " + s.lastErr)
	default:
		return statusStyle("idle").Render("idle")
	}
}

func (m Model) renderDetail() string {
	node, ok := m.selectedNode()
	if !ok {
		return emptyStateStyle.Render("no node selected")
	}
	status := m.statuses[node.Key]

	var b strings.Builder
	b.WriteString(headerStyle.Render("node: " + node.Key))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("pipe:   %s\n", node.PipeKey))
	b.WriteString(fmt.Sprintf("status: %s\n", m.renderStatus(status)))
	if len(node.DeclaredInputs) > 0 {
		b.WriteString("inputs:\n")
		for slot, upstream := range node.DeclaredInputs {
			b.WriteString(fmt.Sprintf("  %s <- %s\n", slot, upstream))
		}
	}
	if status.lastOutput != nil {
		b.WriteString(fmt.Sprintf("last output: schema=%s records=%d\n",
			status.lastOutput.NominalSchema.String(), status.lastOutput.RecordCount))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	help := "up/down: navigate  enter: detail  r: run node  a: run all  ?: help  q: quit"
	return footerStyle.Render(help)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(helpKeyStyle.Render("up/k") + helpDescStyle.Render("move selection up") + "\n")
	b.WriteString(helpKeyStyle.Render("down/j") + helpDescStyle.Render("move selection down") + "\n")
	b.WriteString(helpKeyStyle.Render("enter") + helpDescStyle.Render("toggle detail view") + "\n")
	b.WriteString(helpKeyStyle.Render("r") + helpDescStyle.Render("run the selected node to exhaustion") + "\n")
	b.WriteString(helpKeyStyle.Render("a") + helpDescStyle.Render("run every node to exhaustion, in order") + "\n")
	b.WriteString(helpKeyStyle.Render("e") + helpDescStyle.Render("dismiss the error banner") + "\n")
	b.WriteString(helpKeyStyle.Render("q") + helpDescStyle.Render("quit") + "\n")
	return helpBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, b.String()))
}
