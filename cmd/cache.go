package cmd

import (
	"fmt"

	cobra "github.com/spf13/cobra"

	backend "github.com/tradingagents/core/internal/backend"
	cache "github.com/tradingagents/core/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the artifact cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired entries from the file cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openConfig()
		if err != nil {
			return err
		}

		kv, doc := backendConfigs()
		detector := backend.NewDetector(kv, doc)

		c, err := cache.New(detector, cache.Options{
			FileDir: store.Settings().CacheDir,
		})
		if err != nil {
			return err
		}

		removed, err := c.CleanExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("cache clean failed: %w", err)
		}
		fmt.Printf("Removed %d expired cache entries\n", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}
