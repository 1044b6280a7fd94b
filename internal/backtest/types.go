package backtest

import (
	"time"

	"github.com/yourusername/hedgesim/internal/models"
)

// PortfolioValuePoint is one business day's valuation of the book. The
// sequence built by the engine is append-only and chronologically ordered by
// construction; points are never mutated after creation.
type PortfolioValuePoint struct {
	Date           time.Time
	PortfolioValue float64
	LongExposure   float64
	ShortExposure  float64
	GrossExposure  float64
	NetExposure    float64
	LongShortRatio *float64
}

// PerformanceMetrics holds the rolling risk/return statistics. All fields are
// nullable: nil means "not yet computable", never "zero performance". The
// engine merges freshly computed metrics over the previous ones, overwriting
// only the fields that were produced.
type PerformanceMetrics struct {
	SharpeRatio     *float64
	SortinoRatio    *float64
	MaxDrawdown     *float64
	MaxDrawdownDate *string
	LongShortRatio  *float64
	GrossExposure   *float64
	NetExposure     *float64
}

// Merge overwrites only the fields computed is carrying. Nil computed fields
// leave the existing values in place.
func (m *PerformanceMetrics) Merge(computed *PerformanceMetrics) {
	if computed == nil {
		return
	}
	if computed.SharpeRatio != nil {
		m.SharpeRatio = computed.SharpeRatio
	}
	if computed.SortinoRatio != nil {
		m.SortinoRatio = computed.SortinoRatio
	}
	if computed.MaxDrawdown != nil {
		m.MaxDrawdown = computed.MaxDrawdown
	}
	if computed.MaxDrawdownDate != nil {
		m.MaxDrawdownDate = computed.MaxDrawdownDate
	}
	if computed.LongShortRatio != nil {
		m.LongShortRatio = computed.LongShortRatio
	}
	if computed.GrossExposure != nil {
		m.GrossExposure = computed.GrossExposure
	}
	if computed.NetExposure != nil {
		m.NetExposure = computed.NetExposure
	}
}

// DailyContext is the read-only per-day view of prefetched ancillary data,
// bounded to [backtest start, current date]. Rebuilt fresh each day, purely
// for display and agent consumption.
type DailyContext struct {
	Date          string
	CompanyEvents map[string][]models.CompanyEvent
	InsiderTrades map[string][]models.InsiderTrade
}
