// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/hedgesim/internal/agent"
	"github.com/yourusername/hedgesim/internal/backtest"
	"github.com/yourusername/hedgesim/internal/config"
	"github.com/yourusername/hedgesim/internal/database"
	"github.com/yourusername/hedgesim/internal/logger"
	"github.com/yourusername/hedgesim/internal/marketdata"
	"github.com/yourusername/hedgesim/internal/models"
	"github.com/yourusername/hedgesim/internal/repository"
)

func main() {
	var (
		configPath    = flag.String("config", "config/config.yaml", "Path to config file")
		tickers       = flag.String("tickers", "", "Override tickers (comma-separated)")
		startDate     = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate       = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		initialCap    = flag.Float64("initial-capital", 0, "Override initial capital")
		margin        = flag.Float64("margin-requirement", -1, "Override margin requirement (0..1)")
		decisionsPath = flag.String("decisions", "", "Path to scripted decisions JSON file")
		persist       = flag.Bool("persist", false, "Persist results to the configured database")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel)

	applyOverrides(&cfg.Backtest, *tickers, *startDate, *endDate, *initialCap, *margin)
	btConfig, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		log.Fatalf("Invalid backtest config: %v", err)
	}

	decisionAgent := buildAgent(*decisionsPath, log)
	provider, closeProvider := buildProvider(cfg, log)
	defer closeProvider()

	prefetcher := marketdata.NewPrefetcher(provider, cfg.Borsdata.PrefetchWorkers, cfg.Borsdata.PrefetchProgress, log)
	output := backtest.NewOutputBuilder(btConfig.InitialCapital, os.Stdout)

	engine, err := backtest.NewEngine(btConfig, decisionAgent, provider, prefetcher, output, log)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	log.WithFields(logrus.Fields{
		"agent":   decisionAgent.Name(),
		"tickers": btConfig.Tickers,
	}).Info("Starting backtest")

	performance, err := engine.Run(ctx)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	if *persist {
		if !cfg.Database.Enabled {
			log.Fatal("Persistence requested but database is not enabled in config")
		}
		persistRun(ctx, cfg, engine, performance, log)
	}
}

func loadConfigWithSecrets(path string) *config.Config {
	bootstrap := logrus.New()
	cfg, err := config.Load(path)
	if err != nil {
		bootstrap.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			bootstrap.Fatal("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			bootstrap.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		bootstrap.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func applyOverrides(bt *config.BacktestConfig, tickers, startDate, endDate string, initialCap, margin float64) {
	if tickers != "" {
		var parsed []string
		for _, t := range strings.Split(tickers, ",") {
			if t = strings.TrimSpace(t); t != "" {
				parsed = append(parsed, t)
			}
		}
		bt.Tickers = parsed
	}
	if startDate != "" {
		bt.StartDate = startDate
	}
	if endDate != "" {
		bt.EndDate = endDate
	}
	if initialCap > 0 {
		bt.InitialCapital = initialCap
	}
	if margin >= 0 {
		bt.MarginRequirement = margin
	}
}

// buildAgent loads the scripted decision sequence. Without one, the backtest
// degenerates to a hold-everything baseline, which is still useful for
// benchmark comparison.
func buildAgent(decisionsPath string, log *logrus.Logger) backtest.Agent {
	if decisionsPath == "" {
		return agent.NewScriptedAgent("hold-baseline", nil)
	}
	data, err := os.ReadFile(decisionsPath)
	if err != nil {
		log.Fatalf("Failed to read decisions file: %v", err)
	}
	var steps []map[string]backtest.RawDecision
	if err := json.Unmarshal(data, &steps); err != nil {
		log.Fatalf("Failed to parse decisions file: %v", err)
	}
	return agent.NewScriptedAgent("scripted", steps)
}

func buildProvider(cfg *config.Config, log *logrus.Logger) (marketdata.Provider, func()) {
	client := marketdata.NewBorsdataClient(marketdata.BorsdataConfig{
		BaseURL: cfg.Borsdata.APIURL,
		APIKey:  cfg.Borsdata.APIKey,
		HTTP: marketdata.HTTPClientConfig{
			Timeout:           time.Duration(cfg.Borsdata.TimeoutSeconds) * time.Second,
			MaxRetries:        cfg.Borsdata.MaxRetries,
			RetryWaitMin:      100 * time.Millisecond,
			RetryWaitMax:      10 * time.Second,
			RateLimit:         cfg.Borsdata.RateLimit,
			CircuitBreakerMax: 5,
		},
		Routing: marketdata.NewMarketRouting(cfg.Borsdata.GlobalTickers),
	}, log)

	cached := marketdata.NewCachedProvider(client, time.Duration(cfg.Borsdata.CacheTTLSeconds)*time.Second)
	return cached, func() { client.Close() }
}

func persistRun(ctx context.Context, cfg *config.Config, engine *backtest.Engine, performance *backtest.PerformanceMetrics, log *logrus.Logger) {
	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewPostgresBacktestRunRepository(db)
	btConfig := engine.Config()
	values := engine.PortfolioValues()

	finalCapital := btConfig.InitialCapital
	if len(values) > 0 {
		finalCapital = values[len(values)-1].PortfolioValue
	}

	run := &models.BacktestRun{
		ID:              uuid.New(),
		RunDate:         time.Now().UTC(),
		StartDate:       btConfig.StartDate,
		EndDate:         btConfig.EndDate,
		Tickers:         btConfig.Tickers,
		ModelName:       btConfig.Model.Name,
		InitialCapital:  btConfig.InitialCapital,
		FinalCapital:    finalCapital,
		TotalReturnPct:  (finalCapital/btConfig.InitialCapital - 1) * 100,
		SharpeRatio:     performance.SharpeRatio,
		SortinoRatio:    performance.SortinoRatio,
		MaxDrawdownPct:  performance.MaxDrawdown,
		MaxDrawdownDate: performance.MaxDrawdownDate,
		BenchmarkTicker: btConfig.BenchmarkTicker,
		CreatedAt:       time.Now().UTC(),
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		log.Fatalf("Failed to persist run: %v", err)
	}

	points := make([]*models.EquityPoint, 0, len(values))
	for _, v := range values {
		points = append(points, &models.EquityPoint{
			RunID:          run.ID,
			Date:           v.Date,
			PortfolioValue: v.PortfolioValue,
			LongExposure:   v.LongExposure,
			ShortExposure:  v.ShortExposure,
			GrossExposure:  v.GrossExposure,
			NetExposure:    v.NetExposure,
			LongShortRatio: v.LongShortRatio,
		})
	}
	if err := repo.SaveEquityCurve(ctx, run.ID, points); err != nil {
		log.Fatalf("Failed to persist equity curve: %v", err)
	}
	log.WithField("run_id", run.ID).Info("Backtest results persisted")
}
