package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/endpoint"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/preview"
)

var stocksCmd = &cobra.Command{
	Use:     "stocks",
	Aliases: []string{"ls"},
	Short:   "List tracked stocks",
	GroupID: "market",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 1 {
			output.Error("--limit must be positive")
			return fmt.Errorf("invalid limit %d", limit)
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		stocks, err := client.Fetch[[]models.Stock](ctx, newClient(), endpoint.Stocks(endpoint.Int(limit)))
		if err != nil {
			stocks = preview.Stocks()
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(stocks)
		}
		if err != nil {
			output.Warning("%s", fallbackNotice(err))
		}
		if len(stocks) == 0 {
			fmt.Println("No stocks. Run msent-server populate-stocks first.")
			return nil
		}
		width := output.TerminalWidth(80)
		for _, s := range stocks {
			fmt.Println(output.StockLine(s, width))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stocksCmd)
	stocksCmd.Flags().IntP("limit", "n", 50, "Maximum stocks to list")
	stocksCmd.Flags().Bool("json", false, "Output as JSON")
}
