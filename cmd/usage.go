package cmd

import (
	"encoding/json"
	"fmt"

	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and cost statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		tr, ledgerStore, err := newTracker(store)
		if err != nil {
			return err
		}
		defer func() { _ = ledgerStore.Close() }()

		days, _ := cmd.Flags().GetInt("days")
		stats, err := tr.Statistics(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("failed to aggregate usage: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(stats)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
		case "table":
			currency := store.Settings().Currency
			fmt.Printf("Usage over the last %d day(s):\n\n", days)
			fmt.Printf("  Total cost:    %.6f %s\n", stats.TotalCost, currency)
			fmt.Printf("  Input tokens:  %d\n", stats.TotalInputTokens)
			fmt.Printf("  Output tokens: %d\n", stats.TotalOutputTokens)
			fmt.Printf("  Requests:      %d\n", stats.TotalRequests)
			if len(stats.ProviderStats) > 0 {
				fmt.Println("\n  By provider:")
				for provider, ps := range stats.ProviderStats {
					fmt.Printf("    %-12s %.6f %s over %d request(s)\n",
						provider, ps.Cost, currency, ps.Requests)
				}
			}
		default:
			return fmt.Errorf("unsupported format %q (use table, yaml, or json)", format)
		}
		return nil
	},
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete usage records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		tr, ledgerStore, err := newTracker(store)
		if err != nil {
			return err
		}
		defer func() { _ = ledgerStore.Close() }()

		days, _ := cmd.Flags().GetInt("days")
		removed, err := tr.Prune(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("failed to prune usage records: %w", err)
		}
		fmt.Printf("Removed %d record(s) older than %d day(s)\n", removed, days)
		return nil
	},
}

func init() {
	usageCmd.Flags().Int("days", 30, "statistics window in days")
	usageCmd.Flags().String("format", "table", "output format: table, yaml, or json")
	usagePruneCmd.Flags().Int("days", 90, "retention window in days")

	usageCmd.AddCommand(usagePruneCmd)
	rootCmd.AddCommand(usageCmd)
}
