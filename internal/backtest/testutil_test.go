package backtest

import (
	"context"
	"sort"

	"github.com/yourusername/hedgesim/internal/models"
)

// fakePriceProvider serves canned daily closes keyed ticker -> date -> close.
type fakePriceProvider struct {
	closes        map[string]map[string]float64
	insiderTrades map[string][]models.InsiderTrade
	companyEvents map[string][]models.CompanyEvent
	pricesErr     error
	priceCalls    int
}

func newFakePriceProvider() *fakePriceProvider {
	return &fakePriceProvider{
		closes:        make(map[string]map[string]float64),
		insiderTrades: make(map[string][]models.InsiderTrade),
		companyEvents: make(map[string][]models.CompanyEvent),
	}
}

func (f *fakePriceProvider) setClose(ticker, date string, close float64) {
	if f.closes[ticker] == nil {
		f.closes[ticker] = make(map[string]float64)
	}
	f.closes[ticker][date] = close
}

func (f *fakePriceProvider) GetPrices(_ context.Context, ticker, startDate, endDate string) ([]models.Price, error) {
	f.priceCalls++
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	var bars []models.Price
	for date, close := range f.closes[ticker] {
		if date >= startDate && date <= endDate {
			bars = append(bars, models.Price{Time: date, Close: close, Open: close, High: close, Low: close})
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return bars, nil
}

func (f *fakePriceProvider) GetFinancialMetrics(_ context.Context, ticker, endDate string, limit int) ([]models.FinancialMetrics, error) {
	return nil, nil
}

func (f *fakePriceProvider) GetInsiderTrades(_ context.Context, ticker, endDate, startDate string, limit int) ([]models.InsiderTrade, error) {
	return f.insiderTrades[ticker], nil
}

func (f *fakePriceProvider) GetCompanyEvents(_ context.Context, ticker, endDate, startDate string, limit int) ([]models.CompanyEvent, error) {
	return f.companyEvents[ticker], nil
}
