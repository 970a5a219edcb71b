package cmd

import (
	"fmt"

	cobra "github.com/spf13/cobra"

	backend "github.com/tradingagents/core/internal/backend"
	ledger "github.com/tradingagents/core/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe storage backends and report availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		kv, doc := backendConfigs()
		detector := backend.NewDetector(kv, doc)
		status := detector.Probe(cmd.Context())

		fmt.Println("Backend status:")
		fmt.Printf("  kv (redis):      %s\n", availability(status.KVAvailable))
		fmt.Printf("  doc (postgres):  %s\n", availability(status.DocStoreAvailable))
		fmt.Printf("  file:            available\n")
		fmt.Printf("\n  primary backend: %s\n", status.PrimaryBackend)

		ledgerStore, err := ledger.NewStore(ledgerConfig(store.Settings()))
		if err != nil {
			return err
		}
		defer func() { _ = ledgerStore.Close() }()

		fmt.Println("\nLedger:")
		if err := ledgerStore.Health(cmd.Context()); err != nil {
			fmt.Printf("  unhealthy: %v\n", err)
		} else {
			fmt.Println("  healthy")
		}
		return nil
	},
}

func availability(up bool) string {
	if up {
		return "available"
	}
	return "unavailable"
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
