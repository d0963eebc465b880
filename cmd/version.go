package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/version"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the msent version",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := appVersion
		if v == "" {
			v = "dev"
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]any{
				"version":     v,
				"development": version.IsDevelopmentVersion(v),
				"go":          runtime.Version(),
			})
		}
		fmt.Printf("msent %s (%s %s/%s)\n", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "Output as JSON")
}
