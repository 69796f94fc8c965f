package dashboard

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// backlogProgress renders how much of a "run all" sweep has drained.
type backlogProgress struct {
	bar   progress.Model
	total int
}

func newBacklogProgress(total int) backlogProgress {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return backlogProgress{bar: bar, total: total}
}

func (p backlogProgress) View(completed int) string {
	ratio := 0.0
	if p.total > 0 {
		ratio = math.Min(1.0, float64(completed)/float64(p.total))
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", completed, p.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(ratio))
}
