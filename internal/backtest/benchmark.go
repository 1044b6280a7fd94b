package backtest

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/marketdata"
)

// DefaultBenchmarkTicker is the reference index used for comparison display.
const DefaultBenchmarkTicker = "OMXS30"

// BenchmarkCalculator computes the close-to-close return of a reference index
// over the backtest window. A missing benchmark degrades the display but
// never the backtest itself, so failures surface as nil, not errors.
type BenchmarkCalculator struct {
	provider marketdata.Provider
	logger   *logrus.Logger
}

// NewBenchmarkCalculator creates a benchmark calculator over the given data
// provider.
func NewBenchmarkCalculator(provider marketdata.Provider, logger *logrus.Logger) *BenchmarkCalculator {
	if logger == nil {
		logger = logrus.New()
	}
	return &BenchmarkCalculator{provider: provider, logger: logger}
}

// ReturnPct returns the benchmark's percentage return between startDate and
// asOfDate, or nil when either endpoint's price is unavailable.
func (b *BenchmarkCalculator) ReturnPct(ctx context.Context, ticker, startDate, asOfDate string) *float64 {
	prices, err := b.provider.GetPrices(ctx, ticker, startDate, asOfDate)
	if err != nil {
		b.logger.WithError(err).WithField("ticker", ticker).Debug("benchmark price fetch failed")
		return nil
	}
	if len(prices) < 2 {
		return nil
	}
	first := prices[0].Close
	last := prices[len(prices)-1].Close
	if first == 0 {
		return nil
	}
	pct := (last/first - 1.0) * 100.0
	return &pct
}
