package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user-dev-arch/MarketSentimentApp/internal/config"
	"github.com/user-dev-arch/MarketSentimentApp/internal/output"
	"github.com/user-dev-arch/MarketSentimentApp/internal/suggest"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change client settings",
	Long: `Read and change settings stored in ~/.config/msent/config.json
(or $MSENT_CONFIG_DIR/config.json).

Keys:
  api.url       API base URL (default ` + config.DefaultAPIURL + `)
  api.timeout   Request timeout, e.g. 10s
  api.retries   Retries for failed requests
  api.rate      Requests per second, 0 for unlimited
  log.level     trace, debug, info, warn, error or disabled

Environment variables MSENT_API_URL and MSENT_LOG_LEVEL take precedence.`,
	GroupID: "system",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Get(args[0])
		if err != nil {
			output.Error("%v%s", err, keyHint(err, args[0]))
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting; omit the value to unset it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		if err := config.Set(args[0], value); err != nil {
			output.Error("%v%s", err, keyHint(err, args[0]))
			return err
		}
		if value == "" {
			output.Success("Unset %s", args[0])
		} else {
			output.Success("Set %s = %s", args[0], value)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print all settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make(map[string]string)
		for _, k := range config.Keys() {
			v, err := config.Get(k)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			values[k] = v
		}
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(values)
		}
		for _, k := range config.Keys() {
			v := values[k]
			if v == "" {
				v = "(default)"
			}
			fmt.Printf("%-12s  %s\n", k, v)
		}
		return nil
	},
}

// keyHint suggests known keys for an unknown-key error.
func keyHint(err error, key string) string {
	if !errors.Is(err, config.ErrUnknownKey) {
		return ""
	}
	if hint := suggest.Hint(suggest.Closest(key, config.Keys())); hint != "" {
		return " (" + hint + ")"
	}
	return " (see msent config --help)"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	configListCmd.Flags().Bool("json", false, "Output as JSON")
}
