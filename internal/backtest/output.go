package backtest

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/yourusername/hedgesim/internal/models"
)

// Row is one display line: either a per-ticker trade line or the day summary.
type Row struct {
	Date          string
	Ticker        string
	Action        models.Action
	Quantity      int
	Price         float64
	LongShares    int
	ShortShares   int
	PositionValue float64

	IsSummary          bool
	TotalValue         float64
	ReturnPct          float64
	CashBalance        float64
	TotalPositionValue float64
	SharpeRatio        *float64
	SortinoRatio       *float64
	MaxDrawdown        *float64
	BenchmarkReturnPct *float64
}

// OutputBuilder formats one simulated day into display rows and renders the
// accumulated history, latest day first. Purely presentational: nothing here
// feeds back into engine state.
type OutputBuilder struct {
	initialCapital float64
	out            io.Writer
}

// NewOutputBuilder creates an output builder writing to out (stdout when nil).
func NewOutputBuilder(initialCapital float64, out io.Writer) *OutputBuilder {
	if out == nil {
		out = os.Stdout
	}
	return &OutputBuilder{initialCapital: initialCapital, out: out}
}

// BuildDayRows produces one row per ticker plus a trailing summary row for
// the day.
func (b *OutputBuilder) BuildDayRows(
	dateStr string,
	tickers []string,
	agentOutput *AgentOutput,
	executedTrades map[string]int,
	currentPrices map[string]float64,
	portfolio *Portfolio,
	performanceMetrics *PerformanceMetrics,
	totalValue float64,
	benchmarkReturnPct *float64,
) []Row {
	rows := make([]Row, 0, len(tickers)+1)
	for _, ticker := range tickers {
		decision := agentOutput.Decisions[ticker]
		pos := portfolio.Position(ticker)
		price := currentPrices[ticker]
		rows = append(rows, Row{
			Date:          dateStr,
			Ticker:        ticker,
			Action:        decision.Action,
			Quantity:      executedTrades[ticker],
			Price:         price,
			LongShares:    pos.Long,
			ShortShares:   pos.Short,
			PositionValue: float64(pos.Long)*price - float64(pos.Short)*price,
		})
	}

	summary := ComputePortfolioSummary(portfolio, totalValue, b.initialCapital, performanceMetrics)
	rows = append(rows, Row{
		Date:               dateStr,
		IsSummary:          true,
		TotalValue:         summary.TotalValue,
		ReturnPct:          summary.ReturnPct,
		CashBalance:        summary.CashBalance,
		TotalPositionValue: summary.TotalPositionValue,
		SharpeRatio:        performanceMetrics.SharpeRatio,
		SortinoRatio:       performanceMetrics.SortinoRatio,
		MaxDrawdown:        performanceMetrics.MaxDrawdown,
		BenchmarkReturnPct: benchmarkReturnPct,
	})
	return rows
}

// PrintRows renders the full row history followed by the day's market
// context.
func (b *OutputBuilder) PrintRows(rows []Row, context *DailyContext) {
	fmt.Fprintf(b.out, "%-12s %-8s %-7s %8s %10s %7s %7s %14s\n",
		"DATE", "TICKER", "ACTION", "QTY", "PRICE", "LONG", "SHORT", "POSITION VALUE")
	for _, row := range rows {
		if row.IsSummary {
			fmt.Fprintf(b.out, "%-12s PORTFOLIO  value=%.2f  return=%+.2f%%  cash=%.2f  positions=%.2f%s%s\n",
				row.Date, row.TotalValue, row.ReturnPct, row.CashBalance, row.TotalPositionValue,
				formatRatio(" sharpe=", row.SharpeRatio), formatRatio(" benchmark=", row.BenchmarkReturnPct))
			continue
		}
		fmt.Fprintf(b.out, "%-12s %-8s %-7s %8d %10.2f %7d %7d %14.2f\n",
			row.Date, row.Ticker, row.Action, row.Quantity, row.Price,
			row.LongShares, row.ShortShares, row.PositionValue)
	}
	b.printContext(context)
}

func (b *OutputBuilder) printContext(context *DailyContext) {
	if context == nil || (len(context.CompanyEvents) == 0 && len(context.InsiderTrades) == 0) {
		return
	}
	fmt.Fprintf(b.out, "\nMARKET CONTEXT %s\n", context.Date)

	if len(context.CompanyEvents) > 0 {
		fmt.Fprintln(b.out, "Corporate Events")
		for _, ticker := range sortedKeysEvents(context.CompanyEvents) {
			for _, event := range context.CompanyEvents[ticker] {
				fmt.Fprintf(b.out, "  %-8s %s (%s, %s)\n", ticker, event.Title, event.Category, event.Date)
			}
		}
	}
	if len(context.InsiderTrades) > 0 {
		fmt.Fprintln(b.out, "Insider Trades")
		for _, ticker := range sortedKeysTrades(context.InsiderTrades) {
			for _, trade := range context.InsiderTrades[ticker] {
				fmt.Fprintf(b.out, "  %-8s %s: %s %s shares (%s)\n",
					ticker, trade.Name, tradeVerb(trade.TransactionShares),
					formatShares(trade.TransactionShares), trade.EffectiveDate())
			}
		}
	}
}

func tradeVerb(shares float64) string {
	if shares < 0 {
		return "Sell"
	}
	return "Buy"
}

// formatShares renders 7500 as "7,500" the way the terminal report does.
func formatShares(shares float64) string {
	n := int64(shares)
	if n < 0 {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

func formatRatio(label string, v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%s%.2f", label, *v)
}

func sortedKeysEvents(m map[string][]models.CompanyEvent) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysTrades(m map[string][]models.InsiderTrade) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
