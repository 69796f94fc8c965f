package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("99")  // Purple
	successColor = lipgloss.Color("42")  // Green
	errorColor   = lipgloss.Color("196") // Red
	mutedColor   = lipgloss.Color("245") // Gray
	accentColor  = lipgloss.Color("212") // Pink

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor).
			PaddingBottom(1).
			MarginBottom(1)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			PaddingRight(2)

	selectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				PaddingRight(2).
				Foreground(accentColor).
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(primaryColor)

	statusIdleStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	statusRunningStyle = lipgloss.NewStyle().
				Foreground(primaryColor).
				Bold(true)

	statusDoneStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	statusFailedStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(mutedColor).
			PaddingTop(1).
			MarginTop(1)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Background(lipgloss.Color("52")).
				Bold(true).
				Padding(1, 2).
				MarginBottom(1).
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(errorColor)

	helpBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 3)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Width(12)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	emptyStateStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true).
				PaddingTop(2).
				PaddingBottom(2)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	progressBarColor = lipgloss.Color("42")
)

// statusStyle returns the style for a node's display status.
func statusStyle(s string) lipgloss.Style {
	switch s {
	case "running":
		return statusRunningStyle
	case "done":
		return statusDoneStyle
	case "failed":
		return statusFailedStyle
	default:
		return statusIdleStyle
	}
}
