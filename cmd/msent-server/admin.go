package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/jobs"
	"github.com/user-dev-arch/MarketSentimentApp/internal/logging"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/store"
)

var populateStocksCmd = &cobra.Command{
	Use:   "populate-stocks [ticker...]",
	Short: "Fetch quotes for the popular tickers and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetFloat64("delay")
		retries, _ := cmd.Flags().GetInt("retry")

		tickers := make([]string, 0, len(args))
		for _, a := range args {
			if t := models.NormalizeTicker(a); t != "" {
				tickers = append(tickers, t)
			}
		}

		return withRunner(cmd, func(ctx context.Context, r *jobs.Runner, out io.Writer) error {
			res, err := r.PopulateStocks(ctx, jobs.StocksOptions{
				Delay:   seconds(delay),
				Retries: retries,
				Tickers: tickers,
			})
			printStocksSummary(out, res)
			return err
		})
	},
}

var populateNewsCmd = &cobra.Command{
	Use:   "populate-news",
	Short: "Fetch recent news for every stored stock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetFloat64("delay")
		retries, _ := cmd.Flags().GetInt("retry")
		limit, _ := cmd.Flags().GetInt("limit")
		period, _ := cmd.Flags().GetString("period")
		ticker, _ := cmd.Flags().GetString("ticker")
		skip, _ := cmd.Flags().GetBool("skip-existing")

		p := models.NewsTimePeriod(strings.ToLower(period))
		if !models.IsValidPeriod(p) {
			return fmt.Errorf("invalid --period %q (use 1d, 7d or 30d)", period)
		}
		if limit < 1 {
			return fmt.Errorf("--limit must be positive")
		}

		return withRunner(cmd, func(ctx context.Context, r *jobs.Runner, out io.Writer) error {
			res, err := r.PopulateNews(ctx, jobs.NewsOptions{
				Delay:        seconds(delay),
				Retries:      retries,
				Limit:        limit,
				Period:       p,
				Ticker:       ticker,
				SkipExisting: skip,
			})
			printNewsSummary(out, res)
			return err
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify the sentiment of stored news articles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, _ := cmd.Flags().GetInt("batch-size")
		limit, _ := cmd.Flags().GetInt("limit")
		ticker, _ := cmd.Flags().GetString("ticker")
		force, _ := cmd.Flags().GetBool("force")
		delay, _ := cmd.Flags().GetFloat64("delay")

		if batch < 1 {
			return fmt.Errorf("--batch-size must be positive")
		}

		return withRunner(cmd, func(ctx context.Context, r *jobs.Runner, out io.Writer) error {
			res, err := r.Analyze(ctx, jobs.AnalyzeOptions{
				BatchSize: batch,
				Limit:     limit,
				Ticker:    ticker,
				Force:     force,
				Delay:     seconds(delay),
			})
			printAnalyzeSummary(out, res)
			return err
		})
	},
}

func init() {
	populateStocksCmd.Flags().Float64("delay", 1.0, "seconds to wait between tickers")
	populateStocksCmd.Flags().Int("retry", 3, "attempts per ticker")

	populateNewsCmd.Flags().Float64("delay", 2.0, "seconds to wait between stocks")
	populateNewsCmd.Flags().Int("retry", 3, "attempts per stock")
	populateNewsCmd.Flags().Int("limit", 10, "articles per stock")
	populateNewsCmd.Flags().String("period", string(models.Period7d), "time period: 1d, 7d or 30d")
	populateNewsCmd.Flags().String("ticker", "", "only fetch news for this ticker")
	populateNewsCmd.Flags().Bool("skip-existing", false, "skip stocks with news from the last 24 hours")

	analyzeCmd.Flags().Int("batch-size", 100, "articles per batch")
	analyzeCmd.Flags().Int("limit", 0, "maximum articles to analyze (0 = all)")
	analyzeCmd.Flags().String("ticker", "", "only analyze news for this ticker")
	analyzeCmd.Flags().Bool("force", false, "re-analyze articles that already have a sentiment")
	analyzeCmd.Flags().Float64("delay", 0.1, "seconds to wait between batches")

	rootCmd.AddCommand(populateStocksCmd, populateNewsCmd, analyzeCmd)
}

// withRunner opens the service, runs fn until it finishes or the process is
// interrupted, then closes the database.
func withRunner(cmd *cobra.Command, fn func(ctx context.Context, r *jobs.Runner, out io.Writer) error) error {
	cfg := loadConfig()
	logging.Setup(cfg.LogLevel, "console")

	db, svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	return fn(ctx, jobs.NewRunner(svc, out), out)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func seconds(f float64) time.Duration {
	if f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func printStocksSummary(w io.Writer, res jobs.StocksResult) {
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Created: %d\n", res.Created)
	fmt.Fprintf(w, "  Updated: %d\n", res.Updated)
	fmt.Fprintf(w, "  Failed:  %d\n", len(res.Failed))
	if len(res.Failed) > 0 {
		fmt.Fprintf(w, "  Failed tickers: %s\n", strings.Join(res.Failed, ", "))
	}
}

func printNewsSummary(w io.Writer, res jobs.NewsResult) {
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Stocks processed: %d\n", res.Stocks)
	fmt.Fprintf(w, "  Stocks skipped:   %d\n", res.Skipped)
	fmt.Fprintf(w, "  Stocks failed:    %d\n", len(res.Failed))
	fmt.Fprintf(w, "  Articles fetched: %d\n", res.Fetched)
	fmt.Fprintf(w, "  Articles saved:   %d\n", res.Saved)
	if len(res.Failed) > 0 {
		fmt.Fprintf(w, "  Failed tickers: %s\n", strings.Join(res.Failed, ", "))
	}
}

func printAnalyzeSummary(w io.Writer, res jobs.AnalyzeResult) {
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Articles found:     %d\n", res.Found)
	fmt.Fprintf(w, "  Processed:          %d\n", res.Processed)
	fmt.Fprintf(w, "  Analyzed:           %d\n", res.Analyzed)
	fmt.Fprintf(w, "  Sentiment changed:  %d\n", res.Updated)
	fmt.Fprintf(w, "  Skipped (no text):  %d\n", res.Skipped)
	fmt.Fprintf(w, "  Errors:             %d\n", res.Errors)
	fmt.Fprintf(w, "  History snapshots:  %d\n", res.Snapshots)
	printDistribution(w, res.Distribution)
}

func printDistribution(w io.Writer, c store.SentimentCounts) {
	total := c.Total()
	fmt.Fprintln(w, "\nSentiment distribution:")
	for _, row := range []struct {
		label models.Sentiment
		n     int
	}{
		{models.SentimentBullish, c.Bullish},
		{models.SentimentNeutral, c.Neutral},
		{models.SentimentBearish, c.Bearish},
	} {
		pct := 0.0
		if total > 0 {
			pct = float64(row.n) * 100 / float64(total)
		}
		fmt.Fprintf(w, "  %-8s %6d (%.1f%%)\n", row.label, row.n, pct)
	}
	fmt.Fprintf(w, "  %-8s %6d\n", "Total", total)
}
