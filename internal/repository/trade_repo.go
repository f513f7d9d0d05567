package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormTradeRepo is the postgres-backed TradeRepo.
type GormTradeRepo struct {
	db *gorm.DB
}

// NewTradeRepo creates a gorm-backed trade repository
func NewTradeRepo(db *gorm.DB) *GormTradeRepo {
	return &GormTradeRepo{db: db}
}

// FindUnprocessedSettled returns settled trades the points pipeline has
// not consumed yet, oldest settlement first for deterministic replay.
func (r *GormTradeRepo) FindUnprocessedSettled(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.WithContext(ctx).
		Where("is_settled = ? AND points_processed = ?", true, false).
		Order("settled_at ASC").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("error finding unprocessed settled trades: %w", err)
	}
	return trades, nil
}

func (r *GormTradeRepo) MarkPointsProcessed(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ?", id).
		Update("points_processed", true).Error
	if err != nil {
		return fmt.Errorf("error marking trade processed: %w", err)
	}
	return nil
}
