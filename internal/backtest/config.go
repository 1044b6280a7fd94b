package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/hedgesim/internal/config"
)

const dateLayout = "2006-01-02"

// BacktestConfig extends core config with backtest-specific settings
type BacktestConfig struct {
	Tickers           []string
	StartDate         time.Time
	EndDate           time.Time
	InitialCapital    float64
	MarginRequirement float64
	BenchmarkTicker   string
	Model             ModelConfig
	OutputPath        string
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}
	start, err := time.Parse(dateLayout, cfg.StartDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(dateLayout, cfg.EndDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid end date: %w", err)
	}

	bt := BacktestConfig{
		Tickers:           cfg.Tickers,
		StartDate:         start,
		EndDate:           end,
		InitialCapital:    cfg.InitialCapital,
		MarginRequirement: cfg.MarginRequirement,
		BenchmarkTicker:   cfg.BenchmarkTicker,
		Model: ModelConfig{
			Name:             cfg.ModelName,
			Provider:         cfg.ModelProvider,
			SelectedAnalysts: cfg.SelectedAnalysts,
		},
		OutputPath: cfg.OutputPath,
	}
	if bt.BenchmarkTicker == "" {
		bt.BenchmarkTicker = DefaultBenchmarkTicker
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if len(b.Tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	if b.StartDate.After(b.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if b.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if b.MarginRequirement < 0 || b.MarginRequirement > 1 {
		return fmt.Errorf("margin requirement must be between 0 and 1")
	}
	return nil
}
