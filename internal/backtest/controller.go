package backtest

import (
	"context"
	"fmt"

	"github.com/yourusername/hedgesim/internal/models"
)

// ModelConfig identifies the model a decision agent should run with. The
// engine passes it through untouched; it is meaningful only to the agent.
type ModelConfig struct {
	Name             string
	Provider         string
	SelectedAnalysts []string
}

// DecisionInput is everything an agent sees for one simulated day. Portfolio
// is a deep snapshot: agents can inspect it freely but cannot reach the live
// ledger through it.
type DecisionInput struct {
	Tickers   []string
	StartDate string
	EndDate   string
	Portfolio PortfolioSnapshot
	Model     ModelConfig
}

// RawDecision is the unvalidated per-ticker instruction as the agent emitted
// it. The controller owns turning it into a canonical models.Decision.
type RawDecision struct {
	Action   string  `json:"action"`
	Quantity float64 `json:"quantity"`
}

// AgentResponse is the raw agent output before normalization.
type AgentResponse struct {
	Decisions      map[string]RawDecision `json:"decisions"`
	AnalystSignals map[string]any         `json:"analyst_signals"`
}

// Agent is the pluggable decision-making seam. Implementations range from
// LLM-driven analyst ensembles to deterministic scripted sequences for tests;
// engine correctness must not depend on which one is plugged in.
type Agent interface {
	Name() string
	Decide(ctx context.Context, input DecisionInput) (*AgentResponse, error)
}

// AgentOutput is the normalized result of one agent invocation: a canonical
// decision for every requested ticker plus the opaque analyst signals.
type AgentOutput struct {
	Decisions      map[string]models.Decision
	AnalystSignals map[string]any
}

// AgentController invokes the pluggable agent for one simulated day and
// normalizes its output: every requested ticker gets a decision (hold/0 when
// absent), quantities are coerced to float64, and unknown actions degrade to
// hold instead of propagating ambiguity into the executor.
type AgentController struct{}

// NewAgentController creates an agent controller.
func NewAgentController() *AgentController {
	return &AgentController{}
}

// RunAgent snapshots the portfolio, invokes the agent over the given date
// window and returns the normalized output. AnalystSignals pass through
// unchanged; their shape is opaque to the controller.
func (c *AgentController) RunAgent(ctx context.Context, a Agent, tickers []string, startDate, endDate string, portfolio *Portfolio, model ModelConfig) (*AgentOutput, error) {
	response, err := a.Decide(ctx, DecisionInput{
		Tickers:   tickers,
		StartDate: startDate,
		EndDate:   endDate,
		Portfolio: portfolio.Snapshot(),
		Model:     model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAgentFailed, err)
	}

	out := &AgentOutput{
		Decisions:      make(map[string]models.Decision, len(tickers)),
		AnalystSignals: map[string]any{},
	}
	if response != nil && response.AnalystSignals != nil {
		out.AnalystSignals = response.AnalystSignals
	}

	for _, ticker := range tickers {
		if response == nil {
			out.Decisions[ticker] = models.HoldDecision()
			continue
		}
		raw, ok := response.Decisions[ticker]
		if !ok {
			out.Decisions[ticker] = models.HoldDecision()
			continue
		}
		out.Decisions[ticker] = models.Decision{
			Action:   models.ParseAction(raw.Action),
			Quantity: raw.Quantity,
		}
	}
	return out, nil
}
