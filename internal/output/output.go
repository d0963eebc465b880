// Package output provides styled terminal output helpers (success, error,
// warning, market rows) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/user-dev-arch/MarketSentimentApp/internal/format"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	tickerStyle  = lipgloss.NewStyle().Bold(true).Width(6)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	buzzStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9900"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeNetwork      = "network_error"
	ErrCodeStorage      = "storage_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// Colored renders s in the hex colour hex (without '#').
func Colored(hex, s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#" + hex)).Render(s)
}

// FormatChange renders a signed percentage in the accent colour of its sign.
func FormatChange(v float64) string {
	return Colored(format.SignColor(v), format.Percent(v))
}

// FormatAbsoluteChange renders a signed dollar change.
func FormatAbsoluteChange(v float64) string {
	s := format.Price(v)
	if v >= 0 {
		s = "+" + s
	}
	return Colored(format.SignColor(v), s)
}

// SentimentBadge renders a sentiment label on its sentiment colour.
func SentimentBadge(s models.Sentiment) string {
	if s == "" {
		return subtleStyle.Render("[unanalysed]")
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#"+format.SentimentColor(s))).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(string(s))
}

// TopMoverLine formats a top mover row.
func TopMoverLine(m models.TopMover) string {
	return strings.Join([]string{
		tickerStyle.Render(m.Ticker),
		format.Price(m.PriceValue()),
		FormatAbsoluteChange(m.ChangeValue()),
	}, "  ")
}

// NewsBuzzLine formats a news buzz row with a bar for the score.
func NewsBuzzLine(b models.NewsBuzz, barWidth int) string {
	score := b.ScoreValue()
	return strings.Join([]string{
		tickerStyle.Render(b.Ticker),
		buzzStyle.Render(format.Bar(score, barWidth)),
		format.Two(score * 100),
		subtleStyle.Render(b.CompanyFullName),
	}, "  ")
}

// SentimentMoverLine formats a sentiment mover row.
func SentimentMoverLine(m models.SentimentMover) string {
	change := fmt.Sprintf("%+.0f", m.Change)
	return strings.Join([]string{
		tickerStyle.Render(m.Ticker),
		Colored(format.SignColor(m.Change), change),
		fmt.Sprintf("score %d", m.SentimentScore),
		SentimentBadge(m.SentimentValue()),
	}, "  ")
}

// StockLine formats a stock list row truncated to width cells. width <= 0
// disables truncation.
func StockLine(s models.Stock, width int) string {
	parts := []string{
		tickerStyle.Render(s.Ticker),
		format.Price(s.PriceValue()),
		FormatChange(s.ChangeValue()),
	}
	if s.SentimentScore != nil {
		parts = append(parts, subtleStyle.Render(fmt.Sprintf("sentiment %d", *s.SentimentScore)))
	}
	parts = append(parts, s.CompanyFullName)
	return truncate(strings.Join(parts, "  "), width)
}

// NewsLine formats a news row: badge, ticker, age, title.
func NewsLine(n models.News, width int) string {
	line := strings.Join([]string{
		SentimentBadge(n.SentimentLabel()),
		titleStyle.Render(n.Ticker),
		subtleStyle.Render(FormatTimeAgo(n.Date.Time)),
		n.Title,
		subtleStyle.Render(shortID(n.ID)),
	}, "  ")
	return truncate(line, width)
}

// SentimentSplit renders the bullish, neutral and bearish shares as bars.
func SentimentSplit(c models.SentimentCard, barWidth int) string {
	bull, neu, bear := c.Fractions()
	rows := []struct {
		label string
		frac  float64
		count int
		hex   string
	}{
		{"Bullish", bull, c.Bullish, format.GreenSent},
		{"Neutral", neu, c.Neutral, format.GraySent},
		{"Bearish", bear, c.Bearish, format.RedSent},
	}
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "  %-8s %s %5s%% (%d)\n", r.label,
			Colored(r.hex, format.Bar(r.frac, barWidth)), format.Two(r.frac*100), r.count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStockDetails formats the detail page of a ticker.
func FormatStockDetails(ticker string, d models.StockDetails) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", ticker, d.CompanyFullName)))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Price: %s  %s\n", format.Price(d.Price), FormatChange(d.ChangeInDay))
	fmt.Fprintf(&sb, "Market cap: %s | Volume: %s | News buzz: %s\n",
		d.MarketCap, d.Volume, format.Two(d.NewsBuzzValue()*100))

	if len(d.PricesHistory) > 0 {
		lo, hi := d.PricesHistory[0], d.PricesHistory[0]
		for _, p := range d.PricesHistory {
			lo = min(lo, p)
			hi = max(hi, p)
		}
		fmt.Fprintf(&sb, "%d-day range: %s - %s\n", len(d.PricesHistory), format.Price(lo), format.Price(hi))
	}

	sb.WriteString(SectionHeader(fmt.Sprintf("News sentiment (%d articles)", d.NewsSentiment.Total())))
	sb.WriteString(SentimentSplit(d.NewsSentiment, 20))
	sb.WriteString("\n")

	if len(d.RecentNews) > 0 {
		sb.WriteString(SectionHeader("Recent news"))
		for _, n := range d.RecentNews {
			sb.WriteString("  ")
			sb.WriteString(NewsLine(n, 0))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nTOP MOVERS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
