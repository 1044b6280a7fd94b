package backtest

// Position tracks both legs of a ticker independently. A ticker may carry a
// long and a short leg at the same time; legs are never netted against each
// other. Cost bases are weighted-average per-share values and reset to zero
// exactly when the corresponding share count returns to zero.
type Position struct {
	Long            int     `json:"long"`
	Short           int     `json:"short"`
	LongCostBasis   float64 `json:"long_cost_basis"`
	ShortCostBasis  float64 `json:"short_cost_basis"`
	ShortMarginUsed float64 `json:"short_margin_used"`
}

// RealizedGains accumulates locked-in P&L per leg. Never reset during a run.
type RealizedGains struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

// Portfolio is the mutable ledger owned by a single BacktestEngine for the
// duration of one run. It is not safe for concurrent use; the daily loop is
// strictly sequential so it never needs to be.
type Portfolio struct {
	cash              float64
	marginRequirement float64
	marginUsed        float64
	positions         map[string]*Position
	realizedGains     map[string]*RealizedGains
}

// PortfolioSnapshot is a deep, read-only copy of the ledger handed to
// untrusted collaborators (agents, display). Mutating it never touches the
// engine-internal state.
type PortfolioSnapshot struct {
	Cash              float64                  `json:"cash"`
	MarginRequirement float64                  `json:"margin_requirement"`
	MarginUsed        float64                  `json:"margin_used"`
	Positions         map[string]Position      `json:"positions"`
	RealizedGains     map[string]RealizedGains `json:"realized_gains"`
}

// NewPortfolio seeds the ledger with initial cash and a zeroed position for
// every known ticker. marginRequirement is the fraction of short notional
// reserved as collateral.
func NewPortfolio(tickers []string, initialCash, marginRequirement float64) *Portfolio {
	p := &Portfolio{
		cash:              initialCash,
		marginRequirement: marginRequirement,
		positions:         make(map[string]*Position, len(tickers)),
		realizedGains:     make(map[string]*RealizedGains, len(tickers)),
	}
	for _, ticker := range tickers {
		p.positions[ticker] = &Position{}
		p.realizedGains[ticker] = &RealizedGains{}
	}
	return p
}

// Cash returns the unrestricted cash balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// MarginUsed returns the total margin reserved across all short positions.
func (p *Portfolio) MarginUsed() float64 { return p.marginUsed }

// MarginRequirement returns the short margin fraction the ledger was built with.
func (p *Portfolio) MarginRequirement() float64 { return p.marginRequirement }

// Position returns the ledger entry for ticker, materializing a zeroed one on
// first touch so untraded tickers never error.
func (p *Portfolio) Position(ticker string) *Position {
	pos, ok := p.positions[ticker]
	if !ok {
		pos = &Position{}
		p.positions[ticker] = pos
	}
	return pos
}

// Realized returns the cumulative realized gains entry for ticker,
// materializing a zeroed one on first touch.
func (p *Portfolio) Realized(ticker string) *RealizedGains {
	rg, ok := p.realizedGains[ticker]
	if !ok {
		rg = &RealizedGains{}
		p.realizedGains[ticker] = rg
	}
	return rg
}

// Tickers returns every ticker the ledger currently knows about.
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.positions))
	for ticker := range p.positions {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// ApplyLongBuy adds quantity shares at price to the long leg, recomputing the
// weighted-average cost basis and deducting the full cost from cash. Buys are
// deliberately not clipped to available cash; that guard belongs to callers.
func (p *Portfolio) ApplyLongBuy(ticker string, quantity int, price float64) {
	pos := p.Position(ticker)
	oldQty := float64(pos.Long)
	newQty := oldQty + float64(quantity)
	pos.LongCostBasis = (oldQty*pos.LongCostBasis + float64(quantity)*price) / newQty
	pos.Long += quantity
	p.cash -= float64(quantity) * price
}

// ApplyLongSell reduces the long leg by quantity shares at price, recognizing
// realized P&L against the weighted cost basis and crediting the proceeds to
// cash. Callers clip quantity to the held amount before calling.
func (p *Portfolio) ApplyLongSell(ticker string, quantity int, price float64) {
	pos := p.Position(ticker)
	p.Realized(ticker).Long += float64(quantity) * (price - pos.LongCostBasis)
	pos.Long -= quantity
	if pos.Long == 0 {
		pos.LongCostBasis = 0.0
	}
	p.cash += float64(quantity) * price
}

// ApplyShortOpen opens or extends the short leg: weighted-average short cost
// basis, margin reservation of quantity*price*marginRequirement, and the
// short-sale proceeds credited to cash.
func (p *Portfolio) ApplyShortOpen(ticker string, quantity int, price float64) {
	pos := p.Position(ticker)
	oldQty := float64(pos.Short)
	newQty := oldQty + float64(quantity)
	pos.ShortCostBasis = (oldQty*pos.ShortCostBasis + float64(quantity)*price) / newQty
	pos.Short += quantity

	margin := float64(quantity) * price * p.marginRequirement
	pos.ShortMarginUsed += margin
	p.marginUsed += margin

	p.cash += float64(quantity) * price
}

// ApplyShortCover buys back quantity shares at price: realized P&L is
// quantity*(shortCostBasis-price), margin is released proportionally to the
// covered fraction, and the buy-to-cover cost is deducted from cash. Callers
// clip quantity to the held short amount before calling.
func (p *Portfolio) ApplyShortCover(ticker string, quantity int, price float64) {
	pos := p.Position(ticker)
	p.Realized(ticker).Short += float64(quantity) * (pos.ShortCostBasis - price)

	released := pos.ShortMarginUsed * float64(quantity) / float64(pos.Short)
	pos.ShortMarginUsed -= released
	p.marginUsed -= released

	pos.Short -= quantity
	if pos.Short == 0 {
		pos.ShortCostBasis = 0.0
	}
	p.cash -= float64(quantity) * price
}

// Snapshot returns a deep copy of the ledger. The copy shares no mutable
// state with the portfolio.
func (p *Portfolio) Snapshot() PortfolioSnapshot {
	snap := PortfolioSnapshot{
		Cash:              p.cash,
		MarginRequirement: p.marginRequirement,
		MarginUsed:        p.marginUsed,
		Positions:         make(map[string]Position, len(p.positions)),
		RealizedGains:     make(map[string]RealizedGains, len(p.realizedGains)),
	}
	for ticker, pos := range p.positions {
		snap.Positions[ticker] = *pos
	}
	for ticker, rg := range p.realizedGains {
		snap.RealizedGains[ticker] = *rg
	}
	return snap
}
