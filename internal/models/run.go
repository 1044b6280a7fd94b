package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestRun is one persisted backtest execution: configuration summary plus
// the final performance figures. Metric pointers stay nil when the run was
// too short to produce them.
type BacktestRun struct {
	ID              uuid.UUID
	RunDate         time.Time
	StartDate       time.Time
	EndDate         time.Time
	Tickers         []string
	ModelName       string
	InitialCapital  float64
	FinalCapital    float64
	TotalReturnPct  float64
	SharpeRatio     *float64
	SortinoRatio    *float64
	MaxDrawdownPct  *float64
	MaxDrawdownDate *string
	BenchmarkTicker string
	BenchmarkReturn *float64
	CreatedAt       time.Time
}

// EquityPoint is one persisted daily portfolio valuation belonging to a run.
type EquityPoint struct {
	RunID          uuid.UUID
	Date           time.Time
	PortfolioValue float64
	LongExposure   float64
	ShortExposure  float64
	GrossExposure  float64
	NetExposure    float64
	LongShortRatio *float64
}
