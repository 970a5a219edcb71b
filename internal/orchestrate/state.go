// Package orchestrate runs the multi-agent analysis pipeline: a serial
// graph of stages that read and extend a shared analysis state, calling
// models only through the adapter layer so every token is accounted for.
package orchestrate

import (
	"github.com/tradingagents/core/internal/domain"
)

// State is the shared working state of one analysis run. Stages append
// transcripts under their own names and the final stage sets Decision.
type State struct {
	SessionID   domain.SessionID
	Symbol      string
	WindowStart string
	WindowEnd   string

	// Transcripts holds stage output keyed by stage name.
	Transcripts map[string]string

	Decision string
}

// NewState builds the initial state for one analysis session.
func NewState(symbol, windowStart, windowEnd string) *State {
	return &State{
		SessionID:   domain.GenerateSessionID(),
		Symbol:      symbol,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Transcripts: make(map[string]string),
	}
}

// Record stores a stage's transcript.
func (s *State) Record(stage, transcript string) {
	s.Transcripts[stage] = transcript
}

// Transcript returns the named stage's output, or empty.
func (s *State) Transcript(stage string) string {
	return s.Transcripts[stage]
}
