package models

import "time"

// Price represents a single daily price bar as returned by the market data
// provider. Time is an ISO timestamp string, dates elsewhere are YYYY-MM-DD.
type Price struct {
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
	Time   string  `json:"time"`
}

// Date returns the bar's calendar date portion (YYYY-MM-DD).
func (p Price) Date() string {
	if len(p.Time) >= 10 {
		return p.Time[:10]
	}
	return p.Time
}

// ParseTime parses the bar timestamp. Falls back to date-only form.
func (p Price) ParseTime() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, p.Time); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", p.Date())
}
