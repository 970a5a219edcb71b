package cmd

import (
	"encoding/json"
	"fmt"

	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tacore configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Config directory: %s\n\n", store.Dir())

		fmt.Println("Models:")
		for _, m := range store.Models() {
			state := "disabled"
			if m.Enabled {
				state = "enabled"
			}
			key := "no key"
			if m.APIKey != "" {
				key = "key set"
			}
			fmt.Printf("  %-40s %-8s (%s)\n", m.Key(), state, key)
		}

		fmt.Println("\nPricing:")
		for _, p := range store.Pricing() {
			fmt.Printf("  %-40s in %.6f / out %.6f per 1k (%s)\n",
				p.Key(), p.InputPricePer1K, p.OutputPricePer1K, p.Currency)
		}

		settings := store.Settings()
		fmt.Println("\nSettings:")
		fmt.Printf("  data_dir:             %s\n", settings.DataDir)
		fmt.Printf("  cache_dir:            %s\n", settings.CacheDir)
		fmt.Printf("  results_dir:          %s\n", settings.ResultsDir)
		fmt.Printf("  default_provider:     %s\n", settings.DefaultProvider)
		fmt.Printf("  cost_tracking:        %t\n", settings.CostTrackingEnabled)
		fmt.Printf("  cost_alert_threshold: %.2f %s\n", settings.CostAlertThreshold, settings.Currency)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory with default files",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.EnsureDirectories(); err != nil {
			return err
		}
		fmt.Printf("Configuration initialized in %s\n", store.Dir())
		return nil
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the effective configuration as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		snapshot := map[string]any{
			"models":   store.Models(),
			"pricing":  store.Pricing(),
			"settings": store.Settings(),
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(snapshot)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
		default:
			return fmt.Errorf("unsupported format %q (use yaml or json)", format)
		}
		return nil
	},
}

func init() {
	configExportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configExportCmd)
	rootCmd.AddCommand(configCmd)
}
