package orchestrate

import (
	"context"
	"fmt"

	"github.com/tradingagents/core/internal/logger"
)

// Progress is an advisory stage update. Dropping or ignoring progress
// events never affects the run's outcome.
type Progress struct {
	Stage      string `json:"stage"`
	Message    string `json:"message"`
	Step       int    `json:"step,omitempty"`
	TotalSteps int    `json:"total_steps,omitempty"`
}

// ProgressFunc receives progress events during a run.
type ProgressFunc func(Progress)

// Stage is one step of the analysis pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context, state *State) error
}

// Graph executes stages serially against one shared state.
type Graph struct {
	stages   []Stage
	progress ProgressFunc
}

// NewGraph builds a graph over the given stages. progress may be nil.
func NewGraph(stages []Stage, progress ProgressFunc) *Graph {
	return &Graph{stages: stages, progress: progress}
}

// Run executes every stage in order, stopping at the first failure.
func (g *Graph) Run(ctx context.Context, state *State) error {
	total := len(g.stages)
	for i, stage := range g.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		g.emit(Progress{
			Stage:      stage.Name,
			Message:    "started",
			Step:       i + 1,
			TotalSteps: total,
		})
		logger.Info("stage started",
			"stage", stage.Name,
			"session_id", state.SessionID,
			"symbol", state.Symbol)

		if err := stage.Run(ctx, state); err != nil {
			g.emit(Progress{
				Stage:      stage.Name,
				Message:    "failed: " + err.Error(),
				Step:       i + 1,
				TotalSteps: total,
			})
			return fmt.Errorf("stage %s failed: %w", stage.Name, err)
		}

		g.emit(Progress{
			Stage:      stage.Name,
			Message:    "completed",
			Step:       i + 1,
			TotalSteps: total,
		})
	}
	return nil
}

func (g *Graph) emit(p Progress) {
	if g.progress != nil {
		g.progress(p)
	}
}
