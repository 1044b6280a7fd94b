package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/hedgesim/internal/models"
)

type countingProvider struct {
	priceCalls  int
	metricCalls int
	err         error
}

func (c *countingProvider) GetPrices(_ context.Context, ticker, startDate, endDate string) ([]models.Price, error) {
	c.priceCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []models.Price{{Time: startDate, Close: 100}, {Time: endDate, Close: 101}}, nil
}

func (c *countingProvider) GetFinancialMetrics(_ context.Context, ticker, endDate string, limit int) ([]models.FinancialMetrics, error) {
	c.metricCalls++
	return []models.FinancialMetrics{{Ticker: ticker}}, nil
}

func (c *countingProvider) GetInsiderTrades(_ context.Context, ticker, endDate, startDate string, limit int) ([]models.InsiderTrade, error) {
	return nil, nil
}

func (c *countingProvider) GetCompanyEvents(_ context.Context, ticker, endDate, startDate string, limit int) ([]models.CompanyEvent, error) {
	return nil, nil
}

func TestCachedProviderServesSecondCallFromCache(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	first, err := cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-23")
	require.NoError(t, err)
	second, err := cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-23")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.priceCalls, "second call must hit the cache")
}

func TestCachedProviderServesSubWindowFromWiderFetch(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	// One wide prefetch-style load, then the daily-loop-style narrow query.
	_, err := cached.GetPrices(ctx, "TTWO", "2025-09-10", "2025-09-20")
	require.NoError(t, err)

	sub, err := cached.GetPrices(ctx, "TTWO", "2025-09-19", "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.priceCalls, "sub-window must be served from the stored rows")
	require.Len(t, sub, 1)
	assert.Equal(t, "2025-09-20", sub[0].Date())

	// A window outside the stored range goes live, but must not evict the
	// wider rows the daily loop still needs.
	_, err = cached.GetPrices(ctx, "TTWO", "2025-09-01", "2025-09-05")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.priceCalls)

	_, err = cached.GetPrices(ctx, "TTWO", "2025-09-10", "2025-09-20")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.priceCalls, "wider window must survive a narrower fetch")
}

func TestCachedProviderWideningWindowGoesLive(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	_, err := cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-16")
	require.NoError(t, err)
	_, err = cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-17")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.priceCalls, "uncovered dates cannot come from the cache")
}

func TestCachedProviderNeverCachesErrors(t *testing.T) {
	inner := &countingProvider{err: errors.New("transport down")}
	cached := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	_, err := cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-16")
	require.Error(t, err)

	inner.err = nil
	prices, err := cached.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-16")
	require.NoError(t, err)
	assert.Len(t, prices, 2, "recovered provider must serve fresh data")
	assert.Equal(t, 2, inner.priceCalls)
}

func TestCachedProviderFinancialMetrics(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Hour)
	ctx := context.Background()

	_, err := cached.GetFinancialMetrics(ctx, "TTWO", "2025-09-23", 10)
	require.NoError(t, err)
	_, err = cached.GetFinancialMetrics(ctx, "TTWO", "2025-09-23", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.metricCalls)
}
