package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/config"
	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/tui/dashboard"
	"github.com/user-dev-arch/MarketSentimentApp/internal/viewmodel"
)

// dashboardJSON is the --json shape of the dashboard.
type dashboardJSON struct {
	TopMovers       []models.TopMover       `json:"topMovers"`
	NewsBuzz        []models.NewsBuzz       `json:"newsBuzz"`
	SentimentMovers []models.SentimentMover `json:"sentimentMovers"`
	Sample          bool                    `json:"sample"`
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "home"},
	Short:   "Show top movers, news buzz and sentiment movers",
	Long: `Show the market dashboard: the biggest price moves of the day, the
most talked-about stocks and the largest news sentiment swings.

Key bindings (--live):
  r   Refresh now
  q   Quit`,
	GroupID: "market",
	RunE: func(cmd *cobra.Command, args []string) error {
		vm := viewmodel.NewDashboard(newClient())

		if live, _ := cmd.Flags().GetBool("live"); live {
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval < time.Second {
				interval = 30 * time.Second
			}
			model := dashboard.NewModel(vm, interval, config.GetTimeout())
			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running dashboard: %w", err)
			}
			return nil
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		loadErr := vm.LoadAll(ctx)
		st := vm.State()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(dashboardJSON{
				TopMovers:       st.TopMovers,
				NewsBuzz:        st.NewsBuzz,
				SentimentMovers: st.SentimentMovers,
				Sample:          st.Fallback,
			})
		}

		if loadErr != nil {
			output.Warning("%s", fallbackNotice(loadErr))
		}
		fmt.Print(output.SectionHeader("top movers"))
		for _, m := range st.TopMovers {
			fmt.Println("  " + output.TopMoverLine(m))
		}
		fmt.Print(output.SectionHeader("news buzz"))
		for _, b := range st.NewsBuzz {
			fmt.Println("  " + output.NewsBuzzLine(b, 20))
		}
		fmt.Print(output.SectionHeader("sentiment movers"))
		for _, m := range st.SentimentMovers {
			fmt.Println("  " + output.SentimentMoverLine(m))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().Bool("json", false, "Output as JSON")
	dashboardCmd.Flags().Bool("live", false, "Live-updating terminal dashboard")
	dashboardCmd.Flags().Duration("interval", 30*time.Second, "Refresh interval for --live")
}
