package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/metrics"
	"github.com/yourusername/hedgesim/internal/models"
)

const instrumentCacheTTL = 6 * time.Hour

// BorsdataConfig configures the Borsdata API client.
type BorsdataConfig struct {
	BaseURL string
	APIKey  string
	HTTP    HTTPClientConfig
	Routing *MarketRouting
}

// instrument is the subset of the Borsdata instrument record the client needs.
type instrument struct {
	InsID  int    `json:"insId"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// BorsdataClient implements Provider against the Borsdata REST API. It keeps
// a TTL-bounded instrument catalog (Nordic and Global) in memory so ticker
// resolution costs one request per catalog per six hours, not one per call.
type BorsdataClient struct {
	baseURL string
	apiKey  string
	http    *RateLimitedHTTPClient
	routing *MarketRouting
	logger  *logrus.Logger

	mu              sync.Mutex
	nordicByTicker  map[string]instrument
	nordicFetchedAt time.Time
	globalByTicker  map[string]instrument
	globalFetchedAt time.Time
}

// NewBorsdataClient creates a Borsdata API client.
func NewBorsdataClient(cfg BorsdataConfig, logger *logrus.Logger) *BorsdataClient {
	if logger == nil {
		logger = logrus.New()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://apiservice.borsdata.se"
	}
	return &BorsdataClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    NewRateLimitedHTTPClient(cfg.HTTP, logger),
		routing: cfg.Routing,
		logger:  logger,
	}
}

// Close releases the underlying HTTP client.
func (c *BorsdataClient) Close() error { return c.http.Close() }

// getJSON performs an authenticated GET and decodes the response into out.
func (c *BorsdataClient) getJSON(ctx context.Context, path string, params url.Values, kind string, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("authKey", c.apiKey)
	fullURL := c.baseURL + path + "?" + params.Encode()

	resp, err := c.http.Get(ctx, fullURL)
	if err != nil {
		metrics.RecordDataFetch(kind, "error")
		return fmt.Errorf("borsdata %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordDataFetch(kind, "error")
		return fmt.Errorf("borsdata %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordDataFetch(kind, "error")
		return fmt.Errorf("borsdata %s: decode: %w", path, err)
	}
	metrics.RecordDataFetch(kind, "success")
	return nil
}

// resolveInstrument maps a ticker to its Borsdata instrument, refreshing the
// catalog for the ticker's market when stale.
func (c *BorsdataClient) resolveInstrument(ctx context.Context, ticker string) (instrument, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return instrument{}, models.ErrInvalidTicker
	}
	global := c.routing.IsGlobal(normalized)

	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, fetchedAt := c.nordicByTicker, c.nordicFetchedAt
	if global {
		catalog, fetchedAt = c.globalByTicker, c.globalFetchedAt
	}
	if catalog == nil || time.Since(fetchedAt) >= instrumentCacheTTL {
		path := "/v1/instruments"
		if global {
			path = "/v1/instruments/global"
		}
		var payload struct {
			Instruments []instrument `json:"instruments"`
		}
		if err := c.getJSON(ctx, path, nil, "instruments", &payload); err != nil {
			return instrument{}, err
		}
		catalog = make(map[string]instrument, len(payload.Instruments))
		for _, ins := range payload.Instruments {
			key := strings.ToUpper(strings.TrimSpace(ins.Ticker))
			if key == "" {
				continue
			}
			if _, exists := catalog[key]; !exists {
				catalog[key] = ins
			}
		}
		if global {
			c.globalByTicker, c.globalFetchedAt = catalog, time.Now()
		} else {
			c.nordicByTicker, c.nordicFetchedAt = catalog, time.Now()
		}
	}

	ins, ok := catalog[normalized]
	if !ok {
		return instrument{}, fmt.Errorf("ticker %q: %w", ticker, models.ErrNotFound)
	}
	return ins, nil
}

// GetPrices returns daily bars for [startDate, endDate], oldest first.
func (c *BorsdataClient) GetPrices(ctx context.Context, ticker, startDate, endDate string) ([]models.Price, error) {
	ins, err := c.resolveInstrument(ctx, ticker)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("from", startDate)
	params.Set("to", endDate)
	var payload struct {
		StockPricesList []struct {
			D string      `json:"d"`
			O json.Number `json:"o"`
			C json.Number `json:"c"`
			H json.Number `json:"h"`
			L json.Number `json:"l"`
			V json.Number `json:"v"`
		} `json:"stockPricesList"`
	}
	path := fmt.Sprintf("/v1/instruments/%d/stockprices", ins.InsID)
	if err := c.getJSON(ctx, path, params, "prices", &payload); err != nil {
		return nil, err
	}

	prices := make([]models.Price, 0, len(payload.StockPricesList))
	for _, bar := range payload.StockPricesList {
		prices = append(prices, models.Price{
			Time:   bar.D,
			Open:   numberToFloat(bar.O),
			Close:  numberToFloat(bar.C),
			High:   numberToFloat(bar.H),
			Low:    numberToFloat(bar.L),
			Volume: int64(numberToFloat(bar.V)),
		})
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Time < prices[j].Time })
	return prices, nil
}

// GetFinancialMetrics returns up to limit rolling-twelve-month reporting
// periods ending at or before endDate, newest first.
func (c *BorsdataClient) GetFinancialMetrics(ctx context.Context, ticker, endDate string, limit int) ([]models.FinancialMetrics, error) {
	ins, err := c.resolveInstrument(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Reports []struct {
			Year                 int         `json:"year"`
			Period                int         `json:"period"`
			ReportEndDate         string      `json:"report_End_Date"`
			Currency              string      `json:"currency"`
			Revenues              json.Number `json:"revenues"`
			ProfitToEquityHolders json.Number `json:"profit_To_Equity_Holders"`
			TotalEquity           json.Number `json:"total_Equity"`
			NumberOfShares        json.Number `json:"number_Of_Shares"`
			StockPriceAverage     json.Number `json:"stock_Price_Average"`
		} `json:"reports"`
	}
	path := fmt.Sprintf("/v1/instruments/%d/reports/r12", ins.InsID)
	if err := c.getJSON(ctx, path, nil, "fundamentals", &payload); err != nil {
		return nil, err
	}

	out := make([]models.FinancialMetrics, 0, len(payload.Reports))
	for _, r := range payload.Reports {
		reportPeriod := calendarDate(r.ReportEndDate)
		if reportPeriod == "" || reportPeriod > endDate {
			continue
		}
		m := models.FinancialMetrics{
			Ticker:       strings.ToUpper(ticker),
			ReportPeriod: reportPeriod,
			Period:       "ttm",
			Currency:     r.Currency,
		}
		revenue := decimalPtr(r.Revenues)
		profit := decimalPtr(r.ProfitToEquityHolders)
		equity := decimalPtr(r.TotalEquity)
		shares := decimalPtr(r.NumberOfShares)
		avgPrice := decimalPtr(r.StockPriceAverage)

		if shares != nil && avgPrice != nil {
			m.MarketCap = floatPtr(shares.Mul(*avgPrice))
		}
		if profit != nil && equity != nil && !equity.IsZero() {
			m.ReturnOnEquity = floatPtr(profit.Div(*equity))
		}
		if profit != nil && revenue != nil && !revenue.IsZero() {
			m.NetMargin = floatPtr(profit.Div(*revenue))
		}
		if m.MarketCap != nil && profit != nil && !profit.IsZero() {
			pe := decimal.NewFromFloat(*m.MarketCap).Div(*profit)
			v, _ := pe.Float64()
			m.PriceToEarnings = &v
		}
		if m.MarketCap != nil && equity != nil && !equity.IsZero() {
			pb := decimal.NewFromFloat(*m.MarketCap).Div(*equity)
			v, _ := pb.Float64()
			m.PriceToBook = &v
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ReportPeriod > out[j].ReportPeriod })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetInsiderTrades returns insider transactions in [startDate, endDate],
// newest filings first, up to limit. Sells come back with negative share
// counts.
func (c *BorsdataClient) GetInsiderTrades(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.InsiderTrade, error) {
	ins, err := c.resolveInstrument(ctx, ticker)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("instList", fmt.Sprintf("%d", ins.InsID))
	var payload struct {
		List []struct {
			Values []struct {
				OwnerName        string      `json:"ownerName"`
				OwnerPosition    string      `json:"ownerPosition"`
				Shares           json.Number `json:"shares"`
				TransactionType  int         `json:"transactionType"`
				TransactionDate  string      `json:"transactionDate"`
				VerificationDate string      `json:"verificationDate"`
			} `json:"values"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "/v1/holdings/insider", params, "insider_trades", &payload); err != nil {
		return nil, err
	}

	var trades []models.InsiderTrade
	for _, company := range payload.List {
		for _, row := range company.Values {
			transactionDate := calendarDate(row.TransactionDate)
			filingDate := calendarDate(row.VerificationDate)
			if transactionDate == "" {
				transactionDate = filingDate
			}
			if filingDate == "" {
				filingDate = transactionDate
			}
			if transactionDate == "" {
				continue
			}
			if transactionDate > endDate || (startDate != "" && transactionDate < startDate) {
				continue
			}
			shares := numberToFloat(row.Shares)
			// Type 0 and 1 are acquisitions; everything else disposes.
			if row.TransactionType != 0 && row.TransactionType != 1 {
				shares = -abs(shares)
			} else {
				shares = abs(shares)
			}
			trades = append(trades, models.InsiderTrade{
				Ticker:            strings.ToUpper(ticker),
				Name:              row.OwnerName,
				Title:             row.OwnerPosition,
				TransactionShares: shares,
				TransactionDate:   transactionDate,
				FilingDate:        filingDate,
			})
		}
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].FilingDate != trades[j].FilingDate {
			return trades[i].FilingDate > trades[j].FilingDate
		}
		return trades[i].TransactionDate > trades[j].TransactionDate
	})
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// GetCompanyEvents merges the report and dividend calendars into a single
// chronological event list for [startDate, endDate], up to limit.
func (c *BorsdataClient) GetCompanyEvents(ctx context.Context, ticker, endDate, startDate string, limit int) ([]models.CompanyEvent, error) {
	ins, err := c.resolveInstrument(ctx, ticker)
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(ticker)
	params := url.Values{}
	params.Set("instList", fmt.Sprintf("%d", ins.InsID))

	var events []models.CompanyEvent

	var reports struct {
		List []struct {
			Values []struct {
				ReleaseDate string `json:"releaseDate"`
				ReportType  string `json:"reportType"`
			} `json:"values"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "/v1/instruments/report/calendar", params, "company_events", &reports); err != nil {
		return nil, err
	}
	for _, company := range reports.List {
		for _, row := range company.Values {
			date := calendarDate(row.ReleaseDate)
			if date == "" || date > endDate || (startDate != "" && date < startDate) {
				continue
			}
			title := "Report release"
			if row.ReportType != "" {
				title = fmt.Sprintf("Report release (%s)", row.ReportType)
			}
			events = append(events, models.CompanyEvent{
				Ticker:   upper,
				Title:    title,
				Date:     date,
				Category: "report",
			})
		}
	}

	var dividends struct {
		List []struct {
			Values []struct {
				ExcludingDate string      `json:"excludingDate"`
				AmountPaid    json.Number `json:"amountPaid"`
				Currency      string      `json:"currencyShortName"`
			} `json:"values"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "/v1/instruments/dividend/calendar", params, "company_events", &dividends); err != nil {
		return nil, err
	}
	for _, company := range dividends.List {
		for _, row := range company.Values {
			date := calendarDate(row.ExcludingDate)
			if date == "" || date > endDate || (startDate != "" && date < startDate) {
				continue
			}
			title := "Dividend"
			if amount := numberToFloat(row.AmountPaid); amount > 0 {
				title = fmt.Sprintf("Dividend %s %s", decimal.NewFromFloat(amount).String(), row.Currency)
			}
			events = append(events, models.CompanyEvent{
				Ticker:   upper,
				Title:    title,
				Date:     date,
				Category: "dividend",
			})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// calendarDate extracts the YYYY-MM-DD portion of an ISO timestamp.
func calendarDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 10 {
		value = value[:10]
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return ""
	}
	return value
}

// numberToFloat converts a JSON number through decimal to avoid accumulating
// binary float noise from string round-trips. Returns 0 on absent values.
func numberToFloat(n json.Number) float64 {
	if n == "" {
		return 0
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0
	}
	v, _ := d.Float64()
	return v
}

func decimalPtr(n json.Number) *decimal.Decimal {
	if n == "" {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	return &d
}

func floatPtr(d decimal.Decimal) *float64 {
	v, _ := d.Float64()
	return &v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
