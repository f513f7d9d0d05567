package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormTransactionRepo is the postgres-backed TransactionRepo.
type GormTransactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepo creates a gorm-backed transaction repository
func NewTransactionRepo(db *gorm.DB) *GormTransactionRepo {
	return &GormTransactionRepo{db: db}
}

func (r *GormTransactionRepo) Create(ctx context.Context, transaction *models.PointTransaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("error creating point transaction: %w", err)
	}
	return nil
}

func (r *GormTransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PointTransaction, error) {
	var transactions []models.PointTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing point transactions: %w", err)
	}
	return transactions, nil
}
