// Package service provides the recurring market-data refresh used by the
// datasync daemon.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/marketdata"
)

const dateLayout = "2006-01-02"

// SyncMetrics summarizes one refresh pass.
type SyncMetrics struct {
	TickersProcessed int
	TickersFailed    int
	Duration         time.Duration
}

// String renders a one-line summary for logs.
func (m SyncMetrics) String() string {
	return fmt.Sprintf("processed=%d failed=%d duration=%s", m.TickersProcessed, m.TickersFailed, m.Duration)
}

// DataSyncService refreshes market data for a fixed ticker universe. Pointing
// it at a CachedProvider keeps the cache warm so interactive backtests start
// hot; pointing it at a persisting provider would materialize the data.
type DataSyncService struct {
	provider marketdata.Provider
	tickers  []string
	logger   *logrus.Logger
}

// NewDataSyncService creates a sync service over the given universe.
func NewDataSyncService(provider marketdata.Provider, tickers []string, logger *logrus.Logger) *DataSyncService {
	if logger == nil {
		logger = logrus.New()
	}
	return &DataSyncService{provider: provider, tickers: tickers, logger: logger}
}

// Refresh pulls the trailing week of prices plus current fundamentals,
// insider trades and calendar events for every ticker. Per-ticker failures
// are counted, logged and skipped.
func (s *DataSyncService) Refresh(ctx context.Context) (SyncMetrics, error) {
	start := time.Now()
	now := time.Now().UTC()
	endDate := now.Format(dateLayout)
	weekAgo := now.AddDate(0, 0, -7).Format(dateLayout)
	monthAgo := now.AddDate(0, -1, 0).Format(dateLayout)

	var m SyncMetrics
	for _, ticker := range s.tickers {
		if err := ctx.Err(); err != nil {
			m.Duration = time.Since(start)
			return m, err
		}
		if err := s.refreshTicker(ctx, ticker, weekAgo, monthAgo, endDate); err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Ticker refresh failed")
			m.TickersFailed++
			continue
		}
		m.TickersProcessed++
	}
	m.Duration = time.Since(start)
	return m, nil
}

func (s *DataSyncService) refreshTicker(ctx context.Context, ticker, weekAgo, monthAgo, endDate string) error {
	if _, err := s.provider.GetPrices(ctx, ticker, weekAgo, endDate); err != nil {
		return fmt.Errorf("prices: %w", err)
	}
	if _, err := s.provider.GetFinancialMetrics(ctx, ticker, endDate, 10); err != nil {
		return fmt.Errorf("fundamentals: %w", err)
	}
	if _, err := s.provider.GetInsiderTrades(ctx, ticker, endDate, monthAgo, 1000); err != nil {
		return fmt.Errorf("insider trades: %w", err)
	}
	if _, err := s.provider.GetCompanyEvents(ctx, ticker, endDate, monthAgo, 1000); err != nil {
		return fmt.Errorf("company events: %w", err)
	}
	return nil
}
