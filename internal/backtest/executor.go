package backtest

import (
	"github.com/yourusername/hedgesim/internal/models"
)

// TradeExecutor validates and applies one trade instruction against a
// portfolio. Invalid instructions are defensive no-ops rather than errors:
// the executor clips rather than raises, so over-selling and over-covering
// are unreachable by construction.
type TradeExecutor struct{}

// NewTradeExecutor creates a trade executor.
func NewTradeExecutor() *TradeExecutor {
	return &TradeExecutor{}
}

// ExecuteTrade applies a single instruction and returns the executed share
// count, which may be less than requested:
//   - sell is clipped to the held long quantity, cover to the held short;
//   - buy and short execute the full requested quantity (cash sufficiency is
//     the caller's concern, preserved intentionally);
//   - hold, unknown actions and non-positive quantities execute nothing.
func (e *TradeExecutor) ExecuteTrade(ticker string, action models.Action, requestedQuantity float64, price float64, portfolio *Portfolio) int {
	quantity := int(requestedQuantity)
	if quantity <= 0 {
		return 0
	}

	switch action {
	case models.ActionBuy:
		portfolio.ApplyLongBuy(ticker, quantity, price)
		return quantity
	case models.ActionSell:
		held := portfolio.Position(ticker).Long
		if quantity > held {
			quantity = held
		}
		if quantity == 0 {
			return 0
		}
		portfolio.ApplyLongSell(ticker, quantity, price)
		return quantity
	case models.ActionShort:
		portfolio.ApplyShortOpen(ticker, quantity, price)
		return quantity
	case models.ActionCover:
		held := portfolio.Position(ticker).Short
		if quantity > held {
			quantity = held
		}
		if quantity == 0 {
			return 0
		}
		portfolio.ApplyShortCover(ticker, quantity, price)
		return quantity
	default:
		// hold and anything unrecognized
		return 0
	}
}
