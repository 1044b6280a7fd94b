// Package config provides configuration management for the hedgesim application.
package config

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Borsdata BorsdataConfig `mapstructure:"borsdata" validate:"required"`
	Backtest BacktestConfig `mapstructure:"backtest" validate:"required"`
	DataSync DataSyncConfig `mapstructure:"data_sync"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents the optional result-store connection. The engine
// runs fully without it; persistence only happens when Enabled is true.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// BorsdataConfig represents the market data API configuration.
type BorsdataConfig struct {
	APIURL           string   `mapstructure:"api_url" validate:"required,url"`
	APIKey           string   `mapstructure:"api_key"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries       int      `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit        float64  `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheTTLSeconds  int      `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	GlobalTickers    []string `mapstructure:"global_tickers"`
	PrefetchWorkers  int      `mapstructure:"prefetch_workers" validate:"omitempty,gt=0"`
	PrefetchProgress bool     `mapstructure:"prefetch_progress"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	Tickers           []string `mapstructure:"tickers" validate:"required,min=1"`
	StartDate         string   `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string   `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	InitialCapital    float64  `mapstructure:"initial_capital" validate:"required,gt=0"`
	MarginRequirement float64  `mapstructure:"margin_requirement" validate:"gte=0,lte=1"`
	BenchmarkTicker   string   `mapstructure:"benchmark_ticker"`
	ModelName         string   `mapstructure:"model_name"`
	ModelProvider     string   `mapstructure:"model_provider"`
	SelectedAnalysts  []string `mapstructure:"selected_analysts"`
	OutputPath        string   `mapstructure:"output_path"`
}

// DataSyncConfig represents the scheduled market-data refresh daemon.
type DataSyncConfig struct {
	Schedule   string `mapstructure:"schedule"`
	HealthPort string `mapstructure:"health_port"`
}

// MetricsConfig represents Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
