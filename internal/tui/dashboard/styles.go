package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/user-dev-arch/MarketSentimentApp/internal/format"
)

var (
	mutedColor   = lipgloss.Color("241")
	warningColor = lipgloss.Color("214")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#"+format.CardBorder)).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#" + format.ChartLine))

	headerStyle  = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
)
