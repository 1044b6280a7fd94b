// Package agent provides decision-agent implementations for the backtest
// engine's Agent seam.
package agent

import (
	"context"
	"sync"

	"github.com/yourusername/hedgesim/internal/backtest"
)

// ScriptedAgent replays a predefined sequence of daily decisions. Each call
// to Decide consumes the next step; once the script is exhausted every
// subsequent day holds. Useful for deterministic simulations and as a
// harness around strategies whose decisions were produced offline.
type ScriptedAgent struct {
	name  string
	steps []map[string]backtest.RawDecision

	mu   sync.Mutex
	next int
}

// NewScriptedAgent creates an agent that emits steps[0] on its first
// invocation, steps[1] on its second, and so on.
func NewScriptedAgent(name string, steps []map[string]backtest.RawDecision) *ScriptedAgent {
	return &ScriptedAgent{name: name, steps: steps}
}

// Name returns the agent's display name.
func (a *ScriptedAgent) Name() string { return a.name }

// Decide returns the next scripted step, or an all-hold response once the
// script has run out. It never fails.
func (a *ScriptedAgent) Decide(_ context.Context, input backtest.DecisionInput) (*backtest.AgentResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	decisions := map[string]backtest.RawDecision{}
	if a.next < len(a.steps) {
		for ticker, d := range a.steps[a.next] {
			decisions[ticker] = d
		}
	}
	a.next++

	for _, ticker := range input.Tickers {
		if _, ok := decisions[ticker]; !ok {
			decisions[ticker] = backtest.RawDecision{Action: "hold", Quantity: 0}
		}
	}
	return &backtest.AgentResponse{
		Decisions:      decisions,
		AnalystSignals: map[string]any{},
	}, nil
}

// Step reports how many decisions have been consumed so far.
func (a *ScriptedAgent) Step() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
