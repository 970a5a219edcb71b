// Package cmd implements the tacore command line utility.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cobra "github.com/spf13/cobra"

	config "github.com/tradingagents/core/config"
	envparse "github.com/tradingagents/core/internal/envparse"
	logger "github.com/tradingagents/core/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tacore",
	Short: "Cost-aware execution substrate for trading analysis agents",
	Long: `tacore manages the configuration, cost accounting, caching, and
backend plumbing underneath the trading analysis pipeline. Use it to
inspect usage, probe storage backends, maintain the artifact cache, and
run analyses.`,
	SilenceUsage: true,
}

// Execute runs the root command. Exit codes: 0 success, 1 failure,
// 2 unrecognized command.
func Execute() {
	defer logger.Close()

	cmd, _, err := rootCmd.Find(os.Args[1:])
	if err != nil || (cmd == rootCmd && len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-")) {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tacore --help' for usage.\n")
		os.Exit(2)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config directory (default is ./.tradingagents)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if err := envparse.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
	logger.Init(verbose)
}

// openConfig builds the config store for the directory chosen by flag.
func openConfig() (*config.Store, error) {
	dir, _ := rootCmd.PersistentFlags().GetString("config")
	store, err := config.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	return store, nil
}
