package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/marketdata"
	"github.com/yourusername/hedgesim/internal/metrics"
	"github.com/yourusername/hedgesim/internal/models"
)

// runState tracks the engine through its lifecycle. One engine instance runs
// exactly one backtest.
type runState int

const (
	stateInitialized runState = iota
	statePrefetching
	stateDailyStep
	stateCompleted
)

// Engine orchestrates the backtest: it prefetches market and calendar data,
// then drives Controller -> Executor -> Valuation -> Metrics once per
// business day. The daily loop is strictly sequential; each day's valuation
// depends on the portfolio state the previous day's trades produced.
type Engine struct {
	config     BacktestConfig
	agent      Agent
	provider   marketdata.Provider
	prefetcher *marketdata.Prefetcher
	controller *AgentController
	executor   *TradeExecutor
	perf       *PerformanceMetricsCalculator
	benchmark  *BenchmarkCalculator
	output     *OutputBuilder
	logger     *logrus.Logger

	state              runState
	portfolio          *Portfolio
	portfolioValues    []PortfolioValuePoint
	tableRows          []Row
	performanceMetrics PerformanceMetrics
	prefetchedTrades   map[string][]models.InsiderTrade
	prefetchedEvents   map[string][]models.CompanyEvent
	dailyContext       []DailyContext
}

// NewEngine creates a backtesting engine. The agent is the pluggable
// decision strategy; the provider supplies all market data.
func NewEngine(cfg BacktestConfig, agent Agent, provider marketdata.Provider, prefetcher *marketdata.Prefetcher, output *OutputBuilder, logger *logrus.Logger) (*Engine, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("market data provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	if prefetcher == nil {
		prefetcher = marketdata.NewPrefetcher(provider, 1, false, logger)
	}
	if output == nil {
		output = NewOutputBuilder(cfg.InitialCapital, nil)
	}

	return &Engine{
		config:     cfg,
		agent:      agent,
		provider:   provider,
		prefetcher: prefetcher,
		controller: NewAgentController(),
		executor:   NewTradeExecutor(),
		perf:       NewPerformanceMetricsCalculator(),
		benchmark:  NewBenchmarkCalculator(provider, logger),
		output:     output,
		logger:     logger,
		state:      stateInitialized,
		portfolio:  NewPortfolio(cfg.Tickers, cfg.InitialCapital, cfg.MarginRequirement),
	}, nil
}

// Config returns the backtest configuration.
func (e *Engine) Config() BacktestConfig { return e.config }

// Portfolio returns the live ledger. Exclusively owned by the engine; only
// tests and post-run reporting should touch it.
func (e *Engine) Portfolio() *Portfolio { return e.portfolio }

// PortfolioValues returns a copy of the value series accumulated so far.
func (e *Engine) PortfolioValues() []PortfolioValuePoint {
	return append([]PortfolioValuePoint(nil), e.portfolioValues...)
}

// DailyContexts returns a copy of the per-day market context history.
func (e *Engine) DailyContexts() []DailyContext {
	return append([]DailyContext(nil), e.dailyContext...)
}

// Run executes the full backtest and returns the final performance metrics.
// Missing market data never aborts the run: days without a full price set
// are skipped silently. An agent failure does abort; the agent seam is the
// one collaborator the engine cannot substitute a default for.
func (e *Engine) Run(ctx context.Context) (*PerformanceMetrics, error) {
	startStr := e.config.StartDate.Format(dateLayout)
	endStr := e.config.EndDate.Format(dateLayout)
	e.logger.WithFields(logrus.Fields{
		"start":   startStr,
		"end":     endStr,
		"tickers": e.config.Tickers,
	}).Info("Starting backtest run")

	e.state = statePrefetching
	prefetched := e.prefetcher.Prefetch(ctx, e.config.Tickers, startStr, endStr, e.config.BenchmarkTicker)
	e.prefetchedTrades = prefetched.InsiderTrades
	e.prefetchedEvents = prefetched.CompanyEvents

	e.state = stateDailyStep
	dates := businessDays(e.config.StartDate, e.config.EndDate)
	if len(dates) > 0 {
		e.portfolioValues = []PortfolioValuePoint{{
			Date:           dates[0],
			PortfolioValue: e.config.InitialCapital,
		}}
	}

	for _, currentDate := range dates {
		if err := e.step(ctx, currentDate, startStr); err != nil {
			metrics.RecordBacktestRun("failure")
			return nil, err
		}
	}

	e.state = stateCompleted
	metrics.RecordBacktestRun("success")
	return &e.performanceMetrics, nil
}

// step runs one simulated business day, in the fixed order: price fetch,
// agent decision, trade execution, valuation, display, and only after
// printing, the metric recomputation. Printing before recomputing means each
// day displays the metrics as of the previous day's close alongside today's
// trades; downstream regression fixtures assert on that exact sequencing.
func (e *Engine) step(ctx context.Context, currentDate time.Time, backtestStart string) error {
	currentStr := currentDate.Format(dateLayout)
	lookbackStart := currentDate.AddDate(0, -1, 0).Format(dateLayout)
	previousStr := currentDate.AddDate(0, 0, -1).Format(dateLayout)

	// Zero-width agent window; nothing sensible to decide on.
	if lookbackStart == currentStr {
		return nil
	}

	currentPrices, ok := e.fetchDayPrices(ctx, previousStr, currentStr)
	if !ok {
		e.logger.WithField("date", currentStr).Debug("skipping day with missing price data")
		metrics.RecordBacktestDay("skipped")
		return nil
	}

	agentOutput, err := e.controller.RunAgent(ctx, e.agent, e.config.Tickers, lookbackStart, currentStr, e.portfolio, e.config.Model)
	if err != nil {
		return fmt.Errorf("agent failed on %s: %w", currentStr, err)
	}

	executedTrades := make(map[string]int, len(e.config.Tickers))
	for _, ticker := range e.config.Tickers {
		decision, ok := agentOutput.Decisions[ticker]
		if !ok {
			decision = models.HoldDecision()
		}
		executedTrades[ticker] = e.executor.ExecuteTrade(ticker, decision.Action, decision.Quantity, currentPrices[ticker], e.portfolio)
	}

	totalValue := CalculatePortfolioValue(e.portfolio, currentPrices)
	exposures := ComputeExposures(e.portfolio, currentPrices)
	e.portfolioValues = append(e.portfolioValues, PortfolioValuePoint{
		Date:           currentDate,
		PortfolioValue: totalValue,
		LongExposure:   exposures.LongExposure,
		ShortExposure:  exposures.ShortExposure,
		GrossExposure:  exposures.GrossExposure,
		NetExposure:    exposures.NetExposure,
		LongShortRatio: exposures.LongShortRatio,
	})

	rows := e.output.BuildDayRows(
		currentStr,
		e.config.Tickers,
		agentOutput,
		executedTrades,
		currentPrices,
		e.portfolio,
		&e.performanceMetrics,
		totalValue,
		e.benchmark.ReturnPct(ctx, e.config.BenchmarkTicker, backtestStart, currentStr),
	)
	// Latest day always displays first.
	e.tableRows = append(rows, e.tableRows...)

	dayContext := e.buildContextForDate(backtestStart, currentStr)
	e.dailyContext = append(e.dailyContext, dayContext)
	e.output.PrintRows(e.tableRows, &dayContext)

	// Recompute metrics only after printing; see the ordering note above.
	if len(e.portfolioValues) > 3 {
		if computed := e.perf.ComputeMetrics(e.portfolioValues); computed != nil {
			e.performanceMetrics.Merge(computed)
		}
	}

	metrics.RecordBacktestDay("traded")
	return nil
}

// fetchDayPrices resolves the closing price of every ticker using the prior
// calendar day as window start. If any ticker has no data, the whole day is
// abandoned: partial-day valuation with missing prices is never attempted.
func (e *Engine) fetchDayPrices(ctx context.Context, previousStr, currentStr string) (map[string]float64, bool) {
	currentPrices := make(map[string]float64, len(e.config.Tickers))
	for _, ticker := range e.config.Tickers {
		bars, err := e.provider.GetPrices(ctx, ticker, previousStr, currentStr)
		if err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{"ticker": ticker, "date": currentStr}).Debug("price fetch failed")
			return nil, false
		}
		if len(bars) == 0 {
			return nil, false
		}
		currentPrices[ticker] = bars[len(bars)-1].Close
	}
	return currentPrices, true
}

// buildContextForDate filters the prefetched ancillary data down to
// [backtest start, current date]. ISO date strings order lexicographically,
// so plain string comparison is the date comparison.
func (e *Engine) buildContextForDate(startStr, currentStr string) DailyContext {
	dayContext := DailyContext{
		Date:          currentStr,
		CompanyEvents: make(map[string][]models.CompanyEvent),
		InsiderTrades: make(map[string][]models.InsiderTrade),
	}
	for _, ticker := range e.config.Tickers {
		var events []models.CompanyEvent
		for _, event := range e.prefetchedEvents[ticker] {
			if event.Date >= startStr && event.Date <= currentStr {
				events = append(events, event)
			}
		}
		if len(events) > 0 {
			dayContext.CompanyEvents[ticker] = events
		}

		var trades []models.InsiderTrade
		for _, trade := range e.prefetchedTrades[ticker] {
			date := trade.EffectiveDate()
			if date != "" && date >= startStr && date <= currentStr {
				trades = append(trades, trade)
			}
		}
		if len(trades) > 0 {
			dayContext.InsiderTrades[ticker] = trades
		}
	}
	return dayContext
}

// businessDays returns every Monday-Friday date in [start, end]. No holiday
// calendar: holidays surface as missing price data and skip themselves.
func businessDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days = append(days, d)
		}
	}
	return days
}
