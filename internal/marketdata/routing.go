package marketdata

import "strings"

// MarketRouting decides which instrument universe a ticker resolves in. The
// Borsdata API splits instruments into Nordic (default) and Global catalogs;
// routing is explicit per-client configuration rather than process-global
// state, so two backtests with different universes can coexist.
type MarketRouting struct {
	global map[string]struct{}
}

// NewMarketRouting builds a routing table from the tickers that should
// resolve against the global catalog. Comparison is case-insensitive.
func NewMarketRouting(globalTickers []string) *MarketRouting {
	r := &MarketRouting{global: make(map[string]struct{}, len(globalTickers))}
	for _, t := range globalTickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			r.global[t] = struct{}{}
		}
	}
	return r
}

// IsGlobal reports whether the ticker routes to the global catalog.
func (r *MarketRouting) IsGlobal(ticker string) bool {
	if r == nil {
		return false
	}
	_, ok := r.global[strings.ToUpper(strings.TrimSpace(ticker))]
	return ok
}
