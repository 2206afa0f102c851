// Package cli implements the orderctl command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"orderconsole/internal/config"
	"orderconsole/internal/console"
)

var version = "dev"

type options struct {
	cfgFile     string
	baseURL     string
	timeout     time.Duration
	itemDetails bool
	logLevel    string
}

// NewRootCmd builds the orderctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "orderctl",
		Short: "Operator console for the orders API",
		Long: `orderctl drives the orders REST API from the terminal.

Each action reads the order form, issues one request and writes the
response back into the form, the status banner and the result tables.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	pf.StringVar(&opts.baseURL, "base-url", "", "orders API base URL (CONSOLE_BASE_URL)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout, 0 for none (CONSOLE_TIMEOUT)")
	pf.BoolVar(&opts.itemDetails, "item-details", true, "show item details in search results (CONSOLE_ITEM_DETAILS)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")

	for _, action := range console.Actions {
		root.AddCommand(newActionCmd(opts, action))
	}
	root.AddCommand(newShellCmd(opts))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orderctl %s\n", version)
		},
	})
	return root
}

// SetVersion sets the string printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs orderctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig merges defaults, environment, the config file and changed flags.
func loadConfig(cmd *cobra.Command, opts *options) (config.ConsoleConfig, error) {
	v, err := config.New(opts.cfgFile)
	if err != nil {
		return config.ConsoleConfig{}, err
	}
	pf := cmd.Root().PersistentFlags()
	bindings := map[string]string{
		config.KeyConsoleBaseURL:     "base-url",
		config.KeyConsoleTimeout:     "timeout",
		config.KeyConsoleItemDetails: "item-details",
		config.KeyLogLevel:           "log-level",
	}
	for key, name := range bindings {
		if f := pf.Lookup(name); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	return config.Console(v)
}
