package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
)

func (m Model) renderView() string {
	if m.Width > 0 && m.Width < MinWidth {
		return fmt.Sprintf("Terminal too narrow (need %d columns)", MinWidth)
	}

	var sb strings.Builder
	header := headerStyle.Render("Market Sentiment")
	if m.Loading {
		header += "  " + m.spinner.View()
	} else if !m.LastRefresh.IsZero() {
		header += "  " + subtleStyle.Render("updated "+m.LastRefresh.Format("15:04:05"))
	}
	sb.WriteString(header)
	sb.WriteString("\n")

	if m.Err != nil {
		sb.WriteString(warningStyle.Render(ansi.Truncate("Showing sample data: "+m.Err.Error(), m.contentWidth(), "…")))
		sb.WriteString("\n")
	}

	sb.WriteString(m.panel("Top movers", m.topMoverRows()))
	sb.WriteString("\n")
	sb.WriteString(m.panel("News buzz", m.newsBuzzRows()))
	sb.WriteString("\n")
	sb.WriteString(m.panel("Sentiment movers", m.sentimentMoverRows()))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys))
	return sb.String()
}

func (m Model) contentWidth() int {
	if m.Width <= 0 {
		return 76
	}
	return m.Width - 4
}

func (m Model) panel(title string, rows []string) string {
	if len(rows) == 0 {
		rows = []string{subtleStyle.Render("no data")}
	}
	width := m.contentWidth()
	for i, r := range rows {
		rows[i] = ansi.Truncate(r, width, "…")
	}
	body := panelTitleStyle.Render(title) + "\n" + strings.Join(rows, "\n")
	return panelStyle.Width(width + 2).Render(body)
}

func (m Model) topMoverRows() []string {
	rows := make([]string, 0, len(m.State.TopMovers))
	for _, tm := range m.State.TopMovers {
		rows = append(rows, output.TopMoverLine(tm))
	}
	return rows
}

func (m Model) newsBuzzRows() []string {
	rows := make([]string, 0, len(m.State.NewsBuzz))
	for _, b := range m.State.NewsBuzz {
		rows = append(rows, output.NewsBuzzLine(b, 12))
	}
	return rows
}

func (m Model) sentimentMoverRows() []string {
	rows := make([]string, 0, len(m.State.SentimentMovers))
	for _, sm := range m.State.SentimentMovers {
		rows = append(rows, output.SentimentMoverLine(sm))
	}
	return rows
}
