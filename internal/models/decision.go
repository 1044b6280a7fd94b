package models

// Action is a canonical trade instruction emitted by a decision agent.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionShort Action = "short"
	ActionCover Action = "cover"
	ActionHold  Action = "hold"
)

// ParseAction maps an arbitrary agent-supplied action string onto the
// canonical set. Anything unrecognized degrades to hold so ambiguity never
// reaches the trade executor.
func ParseAction(raw string) Action {
	switch Action(raw) {
	case ActionBuy, ActionSell, ActionShort, ActionCover, ActionHold:
		return Action(raw)
	default:
		return ActionHold
	}
}

// Decision is one normalized per-ticker instruction for a simulated day.
type Decision struct {
	Action   Action  `json:"action"`
	Quantity float64 `json:"quantity"`
}

// HoldDecision is the synthesized no-op decision for tickers the agent did
// not mention.
func HoldDecision() Decision {
	return Decision{Action: ActionHold, Quantity: 0}
}
