package orchestrate

import (
	"context"
	"fmt"

	"github.com/tradingagents/core/internal/adapters"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/memory"
)

// Pipeline stage names, in execution order.
const (
	StageAnalyst   = "market_analyst"
	StageResearch  = "research_debate"
	StageTrader    = "trader_plan"
	StageRisk      = "risk_review"
	StagePortfolio = "portfolio_decision"
)

// PipelineConfig wires the built-in analysis pipeline.
type PipelineConfig struct {
	Adapter adapters.Adapter
	Retry   RetryConfig

	// Memory is optional; with a registry set, completed runs insert
	// their situation/decision pair into a provider-tagged collection.
	Memory *memory.Registry
}

// NewPipeline builds the standard stage sequence: analyst, researcher
// debate, trader plan, risk committee, portfolio decision.
func NewPipeline(cfg PipelineConfig) []Stage {
	stages := []Stage{
		promptStage(cfg, StageAnalyst,
			"You are a market analyst. Summarize the technical and fundamental picture.",
			func(s *State) string {
				return fmt.Sprintf("Analyze %s over %s to %s.", s.Symbol, s.WindowStart, s.WindowEnd)
			}),
		promptStage(cfg, StageResearch,
			"You are a research team debating bull and bear cases. Weigh both sides and conclude.",
			func(s *State) string {
				return fmt.Sprintf("Market analysis:\n%s\n\nDebate the bull and bear cases for %s.",
					s.Transcript(StageAnalyst), s.Symbol)
			}),
		promptStage(cfg, StageTrader,
			"You are a trader. Propose a concrete position and entry plan.",
			func(s *State) string {
				return fmt.Sprintf("Research conclusion:\n%s\n\nPropose a trading plan for %s.",
					s.Transcript(StageResearch), s.Symbol)
			}),
		promptStage(cfg, StageRisk,
			"You are a risk committee. Challenge the plan and flag exposure limits.",
			func(s *State) string {
				return fmt.Sprintf("Trading plan:\n%s\n\nReview the risks of this plan for %s.",
					s.Transcript(StageTrader), s.Symbol)
			}),
		{
			Name: StagePortfolio,
			Run: func(ctx context.Context, state *State) error {
				result, err := generate(ctx, cfg.Adapter, cfg.Retry, []adapters.Message{
					{Role: adapters.RoleSystem, Content: "You are a portfolio manager. Issue the final decision: BUY, SELL, or HOLD, with sizing."},
					{Role: adapters.RoleUser, Content: fmt.Sprintf(
						"Plan:\n%s\n\nRisk review:\n%s\n\nFinal decision for %s:",
						state.Transcript(StageTrader), state.Transcript(StageRisk), state.Symbol)},
				},
					adapters.WithSession(string(state.SessionID)),
					adapters.WithAnalysisType(StagePortfolio))
				if err != nil {
					return err
				}
				state.Record(StagePortfolio, result.Content)
				state.Decision = result.Content
				return nil
			},
		},
	}

	if cfg.Memory != nil {
		stages = append(stages, memoryStage(cfg))
	}
	return stages
}

func promptStage(cfg PipelineConfig, name, system string, prompt func(*State) string) Stage {
	return Stage{
		Name: name,
		Run: func(ctx context.Context, state *State) error {
			result, err := generate(ctx, cfg.Adapter, cfg.Retry, []adapters.Message{
				{Role: adapters.RoleSystem, Content: system},
				{Role: adapters.RoleUser, Content: prompt(state)},
			},
				adapters.WithSession(string(state.SessionID)),
				adapters.WithAnalysisType(name))
			if err != nil {
				return err
			}
			state.Record(name, result.Content)
			return nil
		},
	}
}

// memoryStage inserts the run's situation/decision pair into a collection
// tagged with the adapter's provider, so memories from different
// providers never mix. Memory failures are recovered locally.
func memoryStage(cfg PipelineConfig) Stage {
	return Stage{
		Name: "memory_insert",
		Run: func(ctx context.Context, state *State) error {
			if state.Decision == "" {
				return nil
			}
			collection := cfg.Memory.Get(string(cfg.Adapter.Provider()) + "_trader_memory")
			err := collection.Add(ctx, []memory.SituationAdvice{{
				Situation: state.Transcript(StageAnalyst),
				Advice:    state.Decision,
			}})
			if err != nil {
				logger.Warn("failed to insert analysis into memory",
					"session_id", state.SessionID,
					"error", err)
			}
			return nil
		},
	}
}
