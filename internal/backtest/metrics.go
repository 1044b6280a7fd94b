package backtest

import (
	"math"
)

const (
	tradingDaysPerYear = 252
	// minimum sample needed for meaningful variance estimates
	minValuePoints = 4
)

// PerformanceMetricsCalculator recomputes risk/return statistics from scratch
// on every call. O(n) per day is fine for backtest horizons of months.
type PerformanceMetricsCalculator struct{}

// NewPerformanceMetricsCalculator creates a metrics calculator.
func NewPerformanceMetricsCalculator() *PerformanceMetricsCalculator {
	return &PerformanceMetricsCalculator{}
}

// ComputeMetrics derives Sharpe, Sortino and max drawdown from the portfolio
// value series. Returns nil when fewer than four points exist. Individual
// fields stay nil when the underlying variance is degenerate (zero
// volatility, no downside days).
func (c *PerformanceMetricsCalculator) ComputeMetrics(points []PortfolioValuePoint) *PerformanceMetrics {
	if len(points) < minValuePoints {
		return nil
	}

	returns := dailyReturns(points)
	annualize := math.Sqrt(tradingDaysPerYear)
	m := &PerformanceMetrics{}

	meanReturn := mean(returns)
	if std := sampleStddev(returns); std > 0 {
		sharpe := meanReturn / std * annualize
		m.SharpeRatio = &sharpe
	}
	if downside := sampleStddev(negativeReturns(returns)); downside > 0 {
		sortino := meanReturn / downside * annualize
		m.SortinoRatio = &sortino
	}

	drawdown, troughDate := maxDrawdown(points)
	m.MaxDrawdown = &drawdown
	if troughDate != "" {
		m.MaxDrawdownDate = &troughDate
	}

	last := points[len(points)-1]
	m.LongShortRatio = last.LongShortRatio
	gross := last.GrossExposure
	m.GrossExposure = &gross
	net := last.NetExposure
	m.NetExposure = &net

	return m
}

func dailyReturns(points []PortfolioValuePoint) []float64 {
	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].PortfolioValue
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, points[i].PortfolioValue/prev-1.0)
	}
	return returns
}

// maxDrawdown returns the largest peak-to-trough decline as a negative
// percentage plus the date (YYYY-MM-DD) of the trough. A series that never
// dips below its running peak reports 0 with no date.
func maxDrawdown(points []PortfolioValuePoint) (float64, string) {
	peak := math.Inf(-1)
	worst := 0.0
	troughDate := ""
	for _, point := range points {
		if point.PortfolioValue > peak {
			peak = point.PortfolioValue
		}
		if peak <= 0 {
			continue
		}
		drawdown := point.PortfolioValue/peak - 1.0
		if drawdown < worst {
			worst = drawdown
			troughDate = point.Date.Format("2006-01-02")
		}
	}
	return worst * 100.0, troughDate
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStddev is the n-1 estimator. Sharpe and Sortino both use it so the
// two ratios never mix variance conventions.
func sampleStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

func negativeReturns(returns []float64) []float64 {
	negatives := make([]float64, 0)
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	return negatives
}
