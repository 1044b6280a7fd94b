// Package repository provides data access for persisted backtest results.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/hedgesim/internal/models"
)

// BacktestRunRepository defines the interface for backtest run persistence.
type BacktestRunRepository interface {
	SaveRun(ctx context.Context, run *models.BacktestRun) error
	SaveEquityCurve(ctx context.Context, runID uuid.UUID, points []*models.EquityPoint) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestRun, error)
	GetEquityCurve(ctx context.Context, runID uuid.UUID) ([]*models.EquityPoint, error)
}
