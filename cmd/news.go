package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/viewmodel"
)

var errArticleNotFound = errors.New("article not found")

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "List news articles",
	Long: `List recent news articles, optionally filtered by sentiment, stock and
time period.

Sentiment accepts bullish, neutral, bearish or the scores 2, 1, 0.
Periods: 24h, 1d, 7d, 30d.`,
	Example: `  msent news --sentiment bullish --period 7d
  msent news --stock AAPL
  msent news show 3f0c8e1a-...`,
	GroupID: "market",
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := newsModel(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		loadErr := vm.LoadNews(ctx)
		st := vm.State()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(st.News)
		}
		if loadErr != nil {
			output.Warning("%s", fallbackNotice(loadErr))
		}
		if len(st.News) == 0 {
			fmt.Println("No news found.")
			return nil
		}
		width := output.TerminalWidth(80)
		for _, n := range st.News {
			fmt.Println(output.NewsLine(n, width))
		}
		return nil
	},
}

var newsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a news article with its sentiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		vm, err := newsModel(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		loadErr := vm.LoadNews(ctx)

		article, ok := findArticle(vm.State().News, id)
		if !ok {
			if loadErr != nil {
				output.Warning("%s", fallbackNotice(loadErr))
			}
			output.Error("article %s not found (try --period 30d)", id)
			return fmt.Errorf("%w: %s", errArticleNotFound, id)
		}

		// The list may predate analysis; ask the server for the current label.
		if loadErr == nil {
			report, err := client.Fetch[models.SentimentEnvelope](ctx, newClient(), endpoint.Sentiment(article.ID))
			if err == nil && report.Data.Sentiment != "" {
				label := report.Data.Sentiment
				article.Sentiment = &label
			}
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(article)
		}
		if loadErr != nil {
			output.Warning("%s", fallbackNotice(loadErr))
		}
		rendered, err := output.RenderArticle(article)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

// newsModel builds the news view model from the filter flags.
func newsModel(cmd *cobra.Command) (*viewmodel.News, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return nil, fmt.Errorf("--limit must be positive")
	}
	p, _ := cmd.Flags().GetString("period")
	period := models.NewsTimePeriod(strings.ToLower(strings.TrimSpace(p)))
	if !models.IsValidPeriod(period) {
		return nil, fmt.Errorf("invalid period %q (use 24h, 1d, 7d or 30d)", p)
	}

	var score *models.SentimentScore
	if v, _ := cmd.Flags().GetString("sentiment"); v != "" {
		s, ok := models.ParseSentimentScore(v)
		if !ok {
			return nil, fmt.Errorf("invalid sentiment %q (use bullish, neutral or bearish)", v)
		}
		score = &s
	}

	var stock *models.Stock
	if t, _ := cmd.Flags().GetString("stock"); strings.TrimSpace(t) != "" {
		stock = &models.Stock{Ticker: models.NormalizeTicker(t)}
	}

	vm := viewmodel.NewNews(newClient(), limit)
	vm.SetFilter(score, stock, period)
	return vm, nil
}

func findArticle(news []models.News, id string) (models.News, bool) {
	for _, n := range news {
		if n.ID == id {
			return n, true
		}
	}
	// Accept the short id shown in listings.
	if len(id) >= 8 {
		for _, n := range news {
			if strings.HasPrefix(n.ID, id) {
				return n, true
			}
		}
	}
	return models.News{}, false
}

func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.AddCommand(newsShowCmd)

	newsCmd.PersistentFlags().StringP("sentiment", "s", "", "Filter by sentiment")
	newsCmd.PersistentFlags().String("stock", "", "Filter by ticker")
	newsCmd.PersistentFlags().StringP("period", "p", string(models.Period24h), "Time period")
	newsCmd.PersistentFlags().IntP("limit", "n", viewmodel.NewsLimit, "Maximum articles")
	newsCmd.PersistentFlags().Bool("json", false, "Output as JSON")
}
