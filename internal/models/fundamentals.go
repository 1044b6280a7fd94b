package models

// FinancialMetrics is one reporting period of fundamental metrics for a
// ticker. Only the fields the agents consume are modeled; missing values stay
// nil rather than zero so downstream scoring can tell "absent" from "0".
type FinancialMetrics struct {
	Ticker          string   `json:"ticker"`
	ReportPeriod    string   `json:"report_period"`
	Period          string   `json:"period"`
	Currency        string   `json:"currency"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	PriceToEarnings *float64 `json:"price_to_earnings_ratio,omitempty"`
	PriceToBook     *float64 `json:"price_to_book_ratio,omitempty"`
	ReturnOnEquity  *float64 `json:"return_on_equity,omitempty"`
	NetMargin       *float64 `json:"net_margin,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	DebtToEquity    *float64 `json:"debt_to_equity,omitempty"`
}

// InsiderTrade is a single reported insider transaction. TransactionShares is
// negative for sells, positive for buys.
type InsiderTrade struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	Title             string  `json:"title,omitempty"`
	TransactionShares float64 `json:"transaction_shares"`
	TransactionDate   string  `json:"transaction_date"`
	FilingDate        string  `json:"filing_date,omitempty"`
}

// EffectiveDate returns the transaction date, falling back to the filing date
// when the provider omits it.
func (t InsiderTrade) EffectiveDate() string {
	if t.TransactionDate != "" {
		return t.TransactionDate
	}
	return t.FilingDate
}

// CompanyEvent is a corporate calendar entry (report release, dividend, ...).
type CompanyEvent struct {
	Ticker   string `json:"ticker"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Category string `json:"category"`
}
