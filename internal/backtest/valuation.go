package backtest

// Exposures summarizes the dollar value of the book at current prices.
// LongShortRatio is nil when there is no short exposure.
type Exposures struct {
	LongExposure   float64
	ShortExposure  float64
	GrossExposure  float64
	NetExposure    float64
	LongShortRatio *float64
}

// PortfolioSummary is the per-day roll-up printed below the trade rows.
type PortfolioSummary struct {
	TotalValue         float64
	ReturnPct          float64
	CashBalance        float64
	TotalPositionValue float64
	Metrics            *PerformanceMetrics
}

// CalculatePortfolioValue marks the book to market: cash plus long value
// minus short liability. Every ticker holding a position must have a price;
// the engine guarantees this by skipping days with missing data.
func CalculatePortfolioValue(portfolio *Portfolio, currentPrices map[string]float64) float64 {
	total := portfolio.Cash()
	for _, ticker := range portfolio.Tickers() {
		pos := portfolio.Position(ticker)
		price := currentPrices[ticker]
		total += float64(pos.Long) * price
		total -= float64(pos.Short) * price
	}
	return total
}

// ComputeExposures computes long/short/gross/net dollar exposures at current
// prices.
func ComputeExposures(portfolio *Portfolio, currentPrices map[string]float64) Exposures {
	var exp Exposures
	for _, ticker := range portfolio.Tickers() {
		pos := portfolio.Position(ticker)
		price := currentPrices[ticker]
		exp.LongExposure += float64(pos.Long) * price
		exp.ShortExposure += float64(pos.Short) * price
	}
	exp.GrossExposure = exp.LongExposure + exp.ShortExposure
	exp.NetExposure = exp.LongExposure - exp.ShortExposure
	if exp.ShortExposure > 0 {
		ratio := exp.LongExposure / exp.ShortExposure
		exp.LongShortRatio = &ratio
	}
	return exp
}

// ComputePortfolioSummary derives the display summary for one day. The
// identity totalValue == cash + TotalPositionValue holds exactly.
func ComputePortfolioSummary(portfolio *Portfolio, totalValue, initialValue float64, metrics *PerformanceMetrics) PortfolioSummary {
	return PortfolioSummary{
		TotalValue:         totalValue,
		ReturnPct:          (totalValue/initialValue - 1.0) * 100.0,
		CashBalance:        portfolio.Cash(),
		TotalPositionValue: totalValue - portfolio.Cash(),
		Metrics:            metrics,
	}
}
