package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/hedgesim/internal/metrics"
	"github.com/yourusername/hedgesim/internal/models"
)

// priceWindow holds the bars of the widest price window fetched for one
// ticker. Any narrower window is answered from these rows: the prefetcher
// loads one trailing year per ticker, and the daily loop's two-day queries
// fall inside it.
type priceWindow struct {
	from     string
	to       string
	bars     []models.Price
	storedAt time.Time
}

// CachedProvider wraps any Provider with an in-memory TTL cache. Prices are
// cached as per-ticker bar rows served for any covered sub-window;
// fundamentals, insider trades and company events are keyed on the full
// query. Errors are never cached.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
	ttl   time.Duration

	mu     sync.RWMutex
	prices map[string]*priceWindow
}

// NewCachedProvider wraps provider with a TTL cache.
func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:  provider,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
		prices: make(map[string]*priceWindow),
	}
}

// GetPrices implements Provider. ISO date strings compare lexicographically,
// so plain string comparison bounds the windows.
func (c *CachedProvider) GetPrices(ctx context.Context, ticker, startDate, endDate string) ([]models.Price, error) {
	if bars, ok := c.lookupBars(ticker, startDate, endDate); ok {
		metrics.RecordCacheLookup("hit")
		return bars, nil
	}
	metrics.RecordCacheLookup("miss")

	prices, err := c.inner.GetPrices(ctx, ticker, startDate, endDate)
	if err != nil {
		return nil, err
	}
	c.storeBars(ticker, startDate, endDate, prices)
	return prices, nil
}

// lookupBars serves [startDate, endDate] from the stored rows when the
// stored window covers it and has not expired.
func (c *CachedProvider) lookupBars(ticker, startDate, endDate string) ([]models.Price, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w := c.prices[ticker]
	if w == nil || time.Since(w.storedAt) >= c.ttl {
		return nil, false
	}
	if startDate < w.from || endDate > w.to {
		return nil, false
	}
	bars := make([]models.Price, 0, len(w.bars))
	for _, bar := range w.bars {
		if d := bar.Date(); d >= startDate && d <= endDate {
			bars = append(bars, bar)
		}
	}
	return bars, true
}

// storeBars records a fetched window, keeping whichever window is widest:
// a narrower fetch never evicts rows the daily loop still needs.
func (c *CachedProvider) storeBars(ticker, startDate, endDate string, bars []models.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.prices[ticker]
	if w != nil && time.Since(w.storedAt) < c.ttl && !(startDate <= w.from && w.to <= endDate) {
		return
	}
	c.prices[ticker] = &priceWindow{
		from:     startDate,
		to:       endDate,
		bars:     bars,
		storedAt: time.Now(),
	}
}

// GetFinancialMetrics implements Provider.
func (c *CachedProvider) GetFinancialMetrics(ctx context.Context, ticker, endDate string, limit int) ([]models.FinancialMetrics, error) {
	key := fmt.Sprintf("fundamentals:%s:%s:%d", ticker, endDate, limit)
	if cached, found := c.cache.Get(key); found {
		metrics.RecordCacheLookup("hit")
		return cached.([]models.FinancialMetrics), nil
	}
	metrics.RecordCacheLookup("miss")

	result, err := c.inner.GetFinancialMetrics(ctx, ticker, endDate, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, result)
	return result, nil
}

// GetInsiderTrades implements Provider.
func (c *CachedProvider) GetInsiderTrades(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.InsiderTrade, error) {
	key := fmt.Sprintf("insider:%s:%s:%s:%d", ticker, startDate, endDate, limit)
	if cached, found := c.cache.Get(key); found {
		metrics.RecordCacheLookup("hit")
		return cached.([]models.InsiderTrade), nil
	}
	metrics.RecordCacheLookup("miss")

	result, err := c.inner.GetInsiderTrades(ctx, ticker, endDate, startDate, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, result)
	return result, nil
}

// GetCompanyEvents implements Provider.
func (c *CachedProvider) GetCompanyEvents(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.CompanyEvent, error) {
	key := fmt.Sprintf("events:%s:%s:%s:%d", ticker, startDate, endDate, limit)
	if cached, found := c.cache.Get(key); found {
		metrics.RecordCacheLookup("hit")
		return cached.([]models.CompanyEvent), nil
	}
	metrics.RecordCacheLookup("miss")

	result, err := c.inner.GetCompanyEvents(ctx, ticker, endDate, startDate, limit)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, result)
	return result, nil
}

// Flush empties the cache.
func (c *CachedProvider) Flush() {
	c.cache.Flush()
	c.mu.Lock()
	c.prices = make(map[string]*priceWindow)
	c.mu.Unlock()
}
