package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/models"
)

const (
	prefetchMetricsLimit = 10
	prefetchEventLimit   = 1000
)

// PrefetchResult is the ancillary data loaded once before the daily loop.
// The engine filters it per day with date-range comparisons; nothing is
// re-fetched inside the loop.
type PrefetchResult struct {
	InsiderTrades map[string][]models.InsiderTrade
	CompanyEvents map[string][]models.CompanyEvent
}

// Prefetcher eagerly loads one trailing year of prices plus fundamentals,
// insider trades and company events per ticker, and the benchmark's price
// series for the whole window. Tickers load in parallel on a bounded worker
// pool; the backtest's daily loop stays strictly sequential.
type Prefetcher struct {
	provider Provider
	workers  int
	progress bool
	logger   *logrus.Logger
}

// NewPrefetcher creates a prefetcher with the given worker count.
func NewPrefetcher(provider Provider, workers int, progress bool, logger *logrus.Logger) *Prefetcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Prefetcher{provider: provider, workers: workers, progress: progress, logger: logger}
}

// Prefetch warms the provider for every ticker and returns the prefetched
// ancillary data. Fetch failures degrade to "no data": they are logged and
// never abort the run.
func (p *Prefetcher) Prefetch(ctx context.Context, tickers []string, startDate, endDate, benchmarkTicker string) *PrefetchResult {
	result := &PrefetchResult{
		InsiderTrades: make(map[string][]models.InsiderTrade, len(tickers)),
		CompanyEvents: make(map[string][]models.CompanyEvent, len(tickers)),
	}

	priceStart := trailingYearStart(endDate)

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.Default(int64(len(tickers)+1), "prefetching market data")
	}

	type tickerData struct {
		ticker string
		trades []models.InsiderTrade
		events []models.CompanyEvent
	}

	jobs := make(chan string)
	results := make(chan tickerData)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				results <- tickerData{
					ticker: ticker,
					trades: p.fetchInsiderTrades(ctx, ticker, startDate, endDate),
					events: p.fetchCompanyEvents(ctx, ticker, startDate, endDate, priceStart),
				}
			}
		}()
	}
	go func() {
		for _, ticker := range tickers {
			jobs <- ticker
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for data := range results {
		result.InsiderTrades[data.ticker] = data.trades
		result.CompanyEvents[data.ticker] = data.events
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	// Preload the benchmark series for the comparison display.
	if _, err := p.provider.GetPrices(ctx, benchmarkTicker, startDate, endDate); err != nil {
		p.logger.WithError(err).WithField("ticker", benchmarkTicker).Warn("benchmark prefetch failed")
	}
	if bar != nil {
		_ = bar.Add(1)
	}

	return result
}

func (p *Prefetcher) fetchInsiderTrades(ctx context.Context, ticker, startDate, endDate string) []models.InsiderTrade {
	trades, err := p.provider.GetInsiderTrades(ctx, ticker, endDate, startDate, prefetchEventLimit)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("insider trade prefetch failed")
		return nil
	}
	return trades
}

func (p *Prefetcher) fetchCompanyEvents(ctx context.Context, ticker, startDate, endDate, priceStart string) []models.CompanyEvent {
	// Price and fundamentals loads exist to warm the provider's cache for
	// the daily loop; their results are re-read through the provider later.
	if _, err := p.provider.GetPrices(ctx, ticker, priceStart, endDate); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("price prefetch failed")
	}
	if _, err := p.provider.GetFinancialMetrics(ctx, ticker, endDate, prefetchMetricsLimit); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("fundamentals prefetch failed")
	}

	events, err := p.provider.GetCompanyEvents(ctx, ticker, endDate, startDate, prefetchEventLimit)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("company event prefetch failed")
		return nil
	}
	return events
}

// trailingYearStart returns endDate minus one year, falling back to endDate
// on parse failure.
func trailingYearStart(endDate string) string {
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return endDate
	}
	return end.AddDate(-1, 0, 0).Format("2006-01-02")
}
