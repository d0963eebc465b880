package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// ArticleMarkdown builds the markdown document for a news article.
func ArticleMarkdown(n models.News) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", strings.TrimSpace(n.Title))

	meta := []string{"**" + n.Ticker + "**", n.Source}
	if n.Author != nil && *n.Author != "" {
		meta = append(meta, "by "+*n.Author)
	}
	if !n.Date.IsZero() {
		meta = append(meta, n.Date.Format("2006-01-02 15:04 MST"))
	}
	if label := n.SentimentLabel(); label != "" {
		meta = append(meta, "sentiment: *"+string(label)+"*")
	}
	sb.WriteString(strings.Join(meta, " · "))
	sb.WriteString("\n\n")

	if content := strings.TrimSpace(n.Content); content != "" {
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}
	if n.Link != "" {
		fmt.Fprintf(&sb, "[Read the full article](%s)\n", n.Link)
	}
	return sb.String()
}

// RenderArticle renders a news article for the terminal.
func RenderArticle(n models.News) (string, error) {
	return RenderMarkdown(ArticleMarkdown(n))
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}
