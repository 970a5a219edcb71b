package cmd

import (
	"fmt"
	"strings"
	"time"

	cobra "github.com/spf13/cobra"

	config "github.com/tradingagents/core/config"
	adapters "github.com/tradingagents/core/internal/adapters"
	domain "github.com/tradingagents/core/internal/domain"
	envparse "github.com/tradingagents/core/internal/envparse"
	memory "github.com/tradingagents/core/internal/memory"
	orchestrate "github.com/tradingagents/core/internal/orchestrate"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Run the analysis pipeline for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := args[0]

		store, err := openConfig()
		if err != nil {
			return err
		}
		if err := store.EnsureDirectories(); err != nil {
			return err
		}

		tr, ledgerStore, err := newTracker(store)
		if err != nil {
			return err
		}
		defer func() { _ = ledgerStore.Close() }()

		descriptor, err := pickModel(store)
		if err != nil {
			return err
		}
		adapter, err := adapters.ForDescriptor(cmd.Context(), descriptor, tr)
		if err != nil {
			return err
		}

		settings := store.Settings()
		registry := memory.NewRegistry(memory.NewChain(cmd.Context(), memory.EngineConfig{
			Preferred:        "google",
			GoogleAPIKey:     envparse.String("GOOGLE_API_KEY", ""),
			OpenAIAPIKey:     envparse.String("OPENAI_API_KEY", ""),
			OpenAIEndpoint:   envparse.String("EMBEDDING_ENDPOINT", ""),
			MaxContentLength: settings.MaxEmbeddingLength,
			LengthCheck:      settings.EmbeddingLengthCheck,
		}))

		windowEnd, _ := cmd.Flags().GetString("date")
		if windowEnd == "" {
			windowEnd = time.Now().UTC().Format("2006-01-02")
		}
		end, err := time.Parse("2006-01-02", windowEnd)
		if err != nil {
			return domain.NewError(domain.KindConfigMalformed,
				"invalid analysis date: "+windowEnd, "use YYYY-MM-DD", err)
		}
		windowStart := end.AddDate(0, 0, -7).Format("2006-01-02")

		state := orchestrate.NewState(symbol, windowStart, windowEnd)
		graph := orchestrate.NewGraph(orchestrate.NewPipeline(orchestrate.PipelineConfig{
			Adapter: adapter,
			Retry:   orchestrate.DefaultRetryConfig(),
			Memory:  registry,
		}), func(p orchestrate.Progress) {
			fmt.Printf("[%d/%d] %s: %s\n", p.Step, p.TotalSteps, p.Stage, p.Message)
		})

		fmt.Printf("Analyzing %s (%s to %s), session %s\n\n",
			symbol, windowStart, windowEnd, state.SessionID)

		if err := graph.Run(cmd.Context(), state); err != nil {
			return err
		}

		fmt.Printf("\nDecision:\n%s\n", state.Decision)
		fmt.Printf("\nSession cost: %.6f %s\n",
			tr.SessionCost(cmd.Context(), string(state.SessionID)), settings.Currency)
		return nil
	},
}

// pickModel chooses the enabled model matching the default provider, or
// the first enabled model.
func pickModel(store *config.Store) (config.ModelDescriptor, error) {
	enabled := store.EnabledModels()
	if len(enabled) == 0 {
		return config.ModelDescriptor{}, domain.NewError(domain.KindCredentialMissing,
			"no enabled models",
			"set a provider api key (e.g. OPENAI_API_KEY) or enable a model in models.json", nil)
	}

	preferred := store.Settings().DefaultProvider
	for _, m := range enabled {
		if strings.EqualFold(m.Provider, preferred) {
			return m, nil
		}
	}
	return enabled[0], nil
}

func init() {
	analyzeCmd.Flags().String("date", "", "analysis window end date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(analyzeCmd)
}
