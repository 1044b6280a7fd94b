// Package main provides the datasync CLI: one-shot and scheduled market data
// refresh for the configured ticker universe.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/hedgesim/internal/config"
	"github.com/yourusername/hedgesim/internal/health"
	applogger "github.com/yourusername/hedgesim/internal/logger"
	"github.com/yourusername/hedgesim/internal/marketdata"
	"github.com/yourusername/hedgesim/internal/scheduler"
	"github.com/yourusername/hedgesim/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	client     *marketdata.BorsdataClient
	syncSvc    *service.DataSyncService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "datasync",
	Short: "Refresh market data for the configured ticker universe",
	Long:  `Pull fresh prices, fundamentals, insider trades and calendar events from the market data API, one-shot or on a cron schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		setupDependencies()
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single refresh pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer client.Close()
		ctx := context.Background()
		metrics, err := syncSvc.Refresh(ctx)
		if err != nil {
			return err
		}
		logger.WithField("summary", metrics.String()).Info("Refresh completed")
		if metrics.TickersFailed > 0 {
			return fmt.Errorf("%d tickers failed to refresh", metrics.TickersFailed)
		}
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the refresh daemon on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer client.Close()
		return runDaemon()
	},
}

func main() {
	rootCmd.AddCommand(syncCmd, scheduleCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfiguration() error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(loaded, region, secretName); err != nil {
			return err
		}
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func setupDependencies() {
	logger = applogger.NewLogger(cfg.App.LogLevel)

	client = marketdata.NewBorsdataClient(marketdata.BorsdataConfig{
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
	}, logger)

	universe := append([]string(nil), cfg.Backtest.Tickers...)
	if cfg.Backtest.BenchmarkTicker != "" {
		universe = append(universe, cfg.Backtest.BenchmarkTicker)
	}
	syncSvc = service.NewDataSyncService(client, universe, logger)
}

func runDaemon() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(syncSvc, logger)

	healthServer := health.NewServer(health.Config{
		ServiceName: "datasync",
		Version:     Version,
		Port:        cfg.DataSync.HealthPort,
		Logger:      logger,
		NextRun:     sched.NextRun,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sched.OnResult(func(metrics service.SyncMetrics, err error) {
		healthServer.RecordSyncResult(metrics.String(), err)
	})
	if err := sched.ScheduleRefresh(cfg.DataSync.Schedule); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	healthServer.SetReady(true)

	logger.WithFields(logrus.Fields{
		"schedule": cfg.DataSync.Schedule,
		"next_run": sched.NextRun().Format(time.RFC3339),
	}).Info("Datasync daemon running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down")
	healthServer.SetReady(false)
	return sched.Stop()
}
