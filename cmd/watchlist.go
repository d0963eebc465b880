package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user-dev-arch/MarketSentimentApp/internal/format"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/viewmodel"
)

// watchlistEntry is one row of `watchlist list --json`.
type watchlistEntry struct {
	Ticker  string               `json:"ticker"`
	Details *models.StockDetails `json:"details"`
}

// rowFetchLimit bounds concurrent detail requests for the watchlist.
const rowFetchLimit = 4

var watchlistCmd = &cobra.Command{
	Use:     "watchlist",
	Aliases: []string{"wl"},
	Short:   "Manage saved stocks",
	GroupID: "watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved stocks with their latest price",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, wl, err := openWatchlist()
		if err != nil {
			output.Error("open watchlist: %v", err)
			return err
		}
		defer p.Close()

		tickers := viewmodel.NewWatchlist(newClient(), wl).State().SavedTickers
		jsonOut, _ := cmd.Flags().GetBool("json")
		if len(tickers) == 0 {
			if jsonOut {
				return output.JSON([]watchlistEntry{})
			}
			fmt.Println("Watchlist is empty. Add stocks with: msent watchlist add <ticker>")
			return nil
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		// Rows fail independently; a failed row keeps nil details.
		rows := make([]watchlistEntry, len(tickers))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(rowFetchLimit)
		for i, t := range tickers {
			g.Go(func() error {
				row := viewmodel.NewWatchlistRow(newClient())
				_ = row.LoadDetails(gctx, t)
				st := row.State()
				rows[i] = watchlistEntry{Ticker: st.Ticker, Details: st.Details}
				return nil
			})
		}
		_ = g.Wait()

		if jsonOut {
			return output.JSON(rows)
		}
		for _, r := range rows {
			if r.Details == nil {
				fmt.Printf("%-6s  %s\n", r.Ticker, "unavailable")
				continue
			}
			fmt.Printf("%-6s  %10s  %s  %s\n", r.Ticker, format.Price(r.Details.Price),
				output.FormatChange(r.Details.ChangeInDay), r.Details.CompanyFullName)
		}
		return nil
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <ticker>...",
	Short: "Save stocks to the watchlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, wl, err := openWatchlist()
		if err != nil {
			output.Error("open watchlist: %v", err)
			return err
		}
		defer p.Close()

		for _, a := range args {
			t := models.NormalizeTicker(a)
			if t == "" {
				continue
			}
			if wl.IsSaved(t) {
				output.Info("%s already saved", t)
				continue
			}
			if err := wl.Save(t); err != nil {
				output.Error("save %s: %v", t, err)
				return err
			}
			output.Success("Saved %s", t)
		}
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:     "remove <ticker>...",
	Aliases: []string{"rm"},
	Short:   "Remove stocks from the watchlist",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, wl, err := openWatchlist()
		if err != nil {
			output.Error("open watchlist: %v", err)
			return err
		}
		defer p.Close()

		for _, a := range args {
			t := models.NormalizeTicker(a)
			if !wl.IsSaved(t) {
				output.Warning("%s is not in the watchlist", t)
				continue
			}
			if err := wl.Remove(t); err != nil {
				output.Error("remove %s: %v", t, err)
				return err
			}
			output.Success("Removed %s", t)
		}
		return nil
	},
}

var watchlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved stock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, wl, err := openWatchlist()
		if err != nil {
			output.Error("open watchlist: %v", err)
			return err
		}
		defer p.Close()

		n := len(wl.All())
		if n == 0 {
			fmt.Println("Watchlist is already empty.")
			return nil
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			confirmed := false
			err := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove %d saved stocks?", n)).
					Affirmative("Remove").
					Negative("Cancel").
					Value(&confirmed),
			)).Run()
			if err != nil && !errors.Is(err, huh.ErrUserAborted) {
				return err
			}
			if !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := wl.Clear(); err != nil {
			output.Error("clear watchlist: %v", err)
			return err
		}
		output.Success("Removed %d stocks", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd, watchlistAddCmd, watchlistRemoveCmd, watchlistClearCmd)
	watchlistListCmd.Flags().Bool("json", false, "Output as JSON")
	watchlistClearCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
