package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
	"github.com/user-dev-arch/MarketSentimentApp/internal/viewmodel"
)

// stockJSON is the --json shape of the stock page.
type stockJSON struct {
	Ticker  string               `json:"ticker"`
	Saved   bool                 `json:"saved"`
	Sample  bool                 `json:"sample"`
	Details *models.StockDetails `json:"details"`
}

var stockCmd = &cobra.Command{
	Use:   "stock [ticker]",
	Short: "Show price, buzz and news sentiment for a stock",
	Long: `Show the detail page for a stock: price, daily change, market data,
news buzz, the sentiment split of its recent news and the latest articles.

Without a ticker an interactive picker lists the tracked stocks.`,
	Example: `  msent stock AAPL
  msent stock TSLA --save`,
	GroupID: "market",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		unsave, _ := cmd.Flags().GetBool("unsave")
		if save && unsave {
			output.Error("--save and --unsave are mutually exclusive")
			return errors.New("conflicting flags")
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		var ticker string
		if len(args) == 1 {
			ticker = models.NormalizeTicker(args[0])
		} else {
			picked, err := pickTicker(cmd)
			if err != nil {
				return err
			}
			ticker = picked
		}
		if ticker == "" {
			output.Error("ticker is required")
			return errors.New("ticker is required")
		}

		p, wl, err := openWatchlist()
		if err != nil {
			output.Error("open watchlist: %v", err)
			return err
		}
		defer p.Close()

		page := viewmodel.NewStockPage(newClient(), wl)
		switch {
		case save:
			if err := page.Save(ticker); err != nil {
				output.Error("save %s: %v", ticker, err)
				return err
			}
		case unsave:
			if err := page.Delete(ticker); err != nil {
				output.Error("remove %s: %v", ticker, err)
				return err
			}
		default:
			page.RefreshSaved(ticker)
		}
		loadErr := page.LoadDetails(ctx, ticker)
		st := page.State()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(stockJSON{Ticker: st.Ticker, Saved: st.IsSaved, Sample: st.Fallback, Details: st.Details})
		}
		if loadErr != nil {
			output.Warning("%s", fallbackNotice(loadErr))
		}
		fmt.Print(output.FormatStockDetails(st.Ticker, *st.Details))
		switch {
		case save:
			output.Success("Saved %s to watchlist", ticker)
		case unsave:
			output.Success("Removed %s from watchlist", ticker)
		case st.IsSaved:
			output.Info("★ in watchlist")
		}
		return nil
	},
}

// pickTicker asks for a ticker from the tracked stocks. Non-interactive
// sessions get an error instead.
func pickTicker(cmd *cobra.Command) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		output.Error("ticker is required")
		return "", errors.New("ticker is required")
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	stocks, err := client.Fetch[[]models.Stock](ctx, newClient(), endpoint.Stocks(endpoint.Int(viewmodel.StocksLimit)))
	if err != nil {
		output.Warning("%s", fallbackNotice(err))
		stocks = preview.Stocks()
	}
	if len(stocks) == 0 {
		return "", errors.New("no stocks to choose from")
	}

	options := make([]huh.Option[string], 0, len(stocks))
	for _, s := range stocks {
		label := s.Ticker
		if s.CompanyFullName != "" {
			label += " - " + s.CompanyFullName
		}
		options = append(options, huh.NewOption(label, s.Ticker))
	}

	var ticker string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Stock").
			Options(options...).
			Height(12).
			Value(&ticker),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return ticker, nil
}

func init() {
	rootCmd.AddCommand(stockCmd)
	stockCmd.Flags().Bool("save", false, "Add the stock to the watchlist")
	stockCmd.Flags().Bool("unsave", false, "Remove the stock from the watchlist")
	stockCmd.Flags().Bool("json", false, "Output as JSON")
}
