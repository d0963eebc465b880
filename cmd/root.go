package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/user-dev-arch/MarketSentimentApp/internal/client"
	"github.com/user-dev-arch/MarketSentimentApp/internal/config"
	"github.com/user-dev-arch/MarketSentimentApp/internal/logging"
	"github.com/user-dev-arch/MarketSentimentApp/internal/prefs"
	"github.com/user-dev-arch/MarketSentimentApp/internal/suggest"
	"github.com/user-dev-arch/MarketSentimentApp/internal/watchlist"
)

var (
	appVersion string
	apiURL     string
)

// SetVersion sets the version string
func SetVersion(v string) {
	appVersion = v
}

var rootCmd = &cobra.Command{
	Use:   "msent",
	Short: "Market sentiment in your terminal",
	Long: `msent - stock movers, news buzz and news sentiment from a msent-server API.

Falls back to sample data when the server cannot be reached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		logging.Setup(config.GetLogLevel(), "console")
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	// Custom usage template that shows aliases inline
	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`)

	rootCmd.AddGroup(
		&cobra.Group{ID: "market", Title: "Market Commands:"},
		&cobra.Group{ID: "watchlist", Title: "Watchlist Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config and MSENT_API_URL)")
	rootCmd.SetFlagErrorFunc(flagError)
}

// flagError adds "did you mean" hints to unknown flag errors.
func flagError(cmd *cobra.Command, err error) error {
	msg := err.Error()
	name, ok := strings.CutPrefix(msg, "unknown flag: ")
	if !ok {
		return err
	}
	var names []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			names = append(names, f.Name)
		}
	})
	if hint := suggest.Hint(suggest.Flag(name, names)); hint != "" {
		return fmt.Errorf("%w (%s)", err, hint)
	}
	return err
}

// newClient builds the API client from the config file and environment.
func newClient() *client.Client {
	url := apiURL
	if url == "" {
		url = config.GetAPIURL()
	}
	retries := config.GetRetries()
	if retries == 0 {
		retries = -1
	}
	return client.New(client.Options{
		BaseURL:    strings.TrimRight(url, "/"),
		Timeout:    config.GetTimeout(),
		Retries:    retries,
		RatePerSec: config.GetRate(),
	})
}

// openWatchlist opens the preference database and the watchlist on top of it.
// The caller closes the returned prefs store.
func openWatchlist() (*prefs.Store, *watchlist.Store, error) {
	path, err := config.PrefsPath()
	if err != nil {
		return nil, nil, err
	}
	p, err := prefs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	wl, err := watchlist.New(p)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return p, wl, nil
}

// requestContext bounds a command's API calls.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, config.GetTimeout()*time.Duration(config.GetRetries()+2))
}

// fallbackNotice tells the user the server was unreachable.
func fallbackNotice(err error) string {
	return fmt.Sprintf("server unavailable, showing sample data (%v)", err)
}
