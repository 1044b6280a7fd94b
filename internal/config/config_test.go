package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "hedgesim", Environment: "development", LogLevel: "info"},
		Borsdata: BorsdataConfig{
			APIURL:          "https://apiservice.borsdata.se",
			TimeoutSeconds:  30,
			RateLimit:       10,
			CacheTTLSeconds: 900,
		},
		Backtest: BacktestConfig{
			Tickers:        []string{"TTWO"},
			StartDate:      "2025-09-15",
			EndDate:        "2025-09-23",
			InitialCapital: 100000,
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "sandbox"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.App.LogLevel = "verbose"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsReversedDates(t *testing.T) {
	cfg := validConfig()
	cfg.Backtest.StartDate = "2025-09-23"
	cfg.Backtest.EndDate = "2025-09-15"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after end date")
}

func TestValidateRejectsEmptyTickers(t *testing.T) {
	cfg := validConfig()
	cfg.Backtest.Tickers = nil
	assert.Error(t, Validate(cfg))
}

func TestValidateDatabaseRequiredOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Enabled: false}
	require.NoError(t, Validate(cfg), "disabled database needs no connection fields")

	cfg.Database = DatabaseConfig{Enabled: true}
	assert.Error(t, Validate(cfg), "enabled database requires host, name and user")
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_BORSDATA_KEY", "secret-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  name: hedgesim
  environment: development
  log_level: info
borsdata:
  api_url: https://apiservice.borsdata.se
  api_key: ${TEST_BORSDATA_KEY}
backtest:
  tickers: [TTWO]
  start_date: "2025-09-15"
  end_date: "2025-09-23"
  initial_capital: 100000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Borsdata.APIKey)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  name: hedgesim
  environment: development
  log_level: info
borsdata:
  api_url: https://apiservice.borsdata.se
backtest:
  tickers: [TTWO]
  start_date: "2025-09-15"
  end_date: "2025-09-23"
  initial_capital: 100000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Borsdata.TimeoutSeconds)
	assert.Equal(t, 10.0, cfg.Borsdata.RateLimit)
	assert.Equal(t, 900, cfg.Borsdata.CacheTTLSeconds)
	assert.Equal(t, 4, cfg.Borsdata.PrefetchWorkers)
	assert.Equal(t, "OMXS30", cfg.Backtest.BenchmarkTicker)
	assert.Equal(t, "0 6 * * *", cfg.DataSync.Schedule)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestParseSecretDataFromString(t *testing.T) {
	payload := `{"database_password": "dbpass", "borsdata_api_key": "apikey"}`
	secrets, err := parseSecretData(&secretsmanager.GetSecretValueOutput{SecretString: aws.String(payload)})
	require.NoError(t, err)
	assert.Equal(t, "dbpass", secrets.DatabasePassword)
	assert.Equal(t, "apikey", secrets.BorsdataAPIKey)
}

func TestParseSecretDataFromBinary(t *testing.T) {
	payload := []byte(`{"borsdata_api_key": "binkey"}`)
	secrets, err := parseSecretData(&secretsmanager.GetSecretValueOutput{SecretBinary: payload})
	require.NoError(t, err)
	assert.Equal(t, "binkey", secrets.BorsdataAPIKey)
}

func TestParseSecretDataEmpty(t *testing.T) {
	_, err := parseSecretData(&secretsmanager.GetSecretValueOutput{})
	require.Error(t, err)
}
