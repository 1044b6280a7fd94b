// Package marketdata provides access to historical market data: daily price
// bars, fundamental metrics, insider trades and corporate calendar events.
package marketdata

import (
	"context"

	"github.com/yourusername/hedgesim/internal/models"
)

// Provider is the contract the backtest engine consumes. Implementations
// return an empty slice when no data exists for the window; an error means a
// transport failure, never "no data". Dates are YYYY-MM-DD strings.
type Provider interface {
	// GetPrices returns daily bars for [startDate, endDate], oldest first.
	GetPrices(ctx context.Context, ticker, startDate, endDate string) ([]models.Price, error)

	// GetFinancialMetrics returns up to limit reporting periods ending at or
	// before endDate, newest first.
	GetFinancialMetrics(ctx context.Context, ticker, endDate string, limit int) ([]models.FinancialMetrics, error)

	// GetInsiderTrades returns insider transactions filed in
	// [startDate, endDate], up to limit.
	GetInsiderTrades(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.InsiderTrade, error)

	// GetCompanyEvents returns corporate calendar entries in
	// [startDate, endDate], up to limit.
	GetCompanyEvents(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.CompanyEvent, error)
}
