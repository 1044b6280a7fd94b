package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/hedgesim/internal/database"
	"github.com/yourusername/hedgesim/internal/models"
)

const errScanBacktestRun = "failed to scan backtest run: %w"

const backtestRunColumns = `id, run_date, start_date, end_date, tickers, model_name,
	initial_capital, final_capital, total_return_pct, sharpe_ratio, sortino_ratio,
	max_drawdown_pct, max_drawdown_date, benchmark_ticker, benchmark_return_pct, created_at`

// PostgresBacktestRunRepository implements BacktestRunRepository for PostgreSQL.
type PostgresBacktestRunRepository struct {
	db *database.DB
}

// NewPostgresBacktestRunRepository creates a new backtest run repository.
func NewPostgresBacktestRunRepository(db *database.DB) BacktestRunRepository {
	return &PostgresBacktestRunRepository{db: db}
}

// SaveRun inserts a backtest run summary.
func (r *PostgresBacktestRunRepository) SaveRun(ctx context.Context, run *models.BacktestRun) error {
	query := `
		INSERT INTO backtest_runs (
			id, run_date, start_date, end_date, tickers, model_name,
			initial_capital, final_capital, total_return_pct, sharpe_ratio, sortino_ratio,
			max_drawdown_pct, max_drawdown_date, benchmark_ticker, benchmark_return_pct, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.RunDate, run.StartDate, run.EndDate, run.Tickers, run.ModelName,
		run.InitialCapital, run.FinalCapital, run.TotalReturnPct, run.SharpeRatio, run.SortinoRatio,
		run.MaxDrawdownPct, run.MaxDrawdownDate, run.BenchmarkTicker, run.BenchmarkReturn, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}
	return nil
}

// SaveEquityCurve inserts the daily valuation series for a run.
func (r *PostgresBacktestRunRepository) SaveEquityCurve(ctx context.Context, runID uuid.UUID, points []*models.EquityPoint) error {
	query := `
		INSERT INTO backtest_equity_points (
			run_id, date, portfolio_value, long_exposure, short_exposure,
			gross_exposure, net_exposure, long_short_ratio
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	for _, p := range points {
		_, err := r.db.GetPool().Exec(ctx, query,
			runID, p.Date, p.PortfolioValue, p.LongExposure, p.ShortExposure,
			p.GrossExposure, p.NetExposure, p.LongShortRatio,
		)
		if err != nil {
			return fmt.Errorf("failed to save equity point for %s: %w", p.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// GetByID retrieves one backtest run.
func (r *PostgresBacktestRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs WHERE id = $1`
	run := &models.BacktestRun{}
	if err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.RunDate, &run.StartDate, &run.EndDate, &run.Tickers, &run.ModelName,
		&run.InitialCapital, &run.FinalCapital, &run.TotalReturnPct, &run.SharpeRatio, &run.SortinoRatio,
		&run.MaxDrawdownPct, &run.MaxDrawdownDate, &run.BenchmarkTicker, &run.BenchmarkReturn, &run.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf(errScanBacktestRun, err)
	}
	return run, nil
}

// GetLatest retrieves the most recent backtest runs.
func (r *PostgresBacktestRunRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs ORDER BY run_date DESC LIMIT $1`
	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// GetByDateRange retrieves runs executed within [start, end].
func (r *PostgresBacktestRunRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestRun, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs
		WHERE run_date >= $1 AND run_date <= $2 ORDER BY run_date DESC`
	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest runs by date range: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// GetEquityCurve retrieves the daily valuation series for a run, oldest first.
func (r *PostgresBacktestRunRepository) GetEquityCurve(ctx context.Context, runID uuid.UUID) ([]*models.EquityPoint, error) {
	query := `
		SELECT run_id, date, portfolio_value, long_exposure, short_exposure,
			gross_exposure, net_exposure, long_short_ratio
		FROM backtest_equity_points WHERE run_id = $1 ORDER BY date ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query equity curve: %w", err)
	}
	defer rows.Close()

	var points []*models.EquityPoint
	for rows.Next() {
		p := &models.EquityPoint{}
		if err := rows.Scan(
			&p.RunID, &p.Date, &p.PortfolioValue, &p.LongExposure, &p.ShortExposure,
			&p.GrossExposure, &p.NetExposure, &p.LongShortRatio,
		); err != nil {
			return nil, fmt.Errorf("failed to scan equity point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

type runRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRuns(rows runRows) ([]*models.BacktestRun, error) {
	var runs []*models.BacktestRun
	for rows.Next() {
		run := &models.BacktestRun{}
		if err := rows.Scan(
			&run.ID, &run.RunDate, &run.StartDate, &run.EndDate, &run.Tickers, &run.ModelName,
			&run.InitialCapital, &run.FinalCapital, &run.TotalReturnPct, &run.SharpeRatio, &run.SortinoRatio,
			&run.MaxDrawdownPct, &run.MaxDrawdownDate, &run.BenchmarkTicker, &run.BenchmarkReturn, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanBacktestRun, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
