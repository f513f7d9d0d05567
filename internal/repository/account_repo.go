package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormAccountRepo is the postgres-backed AccountRepo.
type GormAccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo creates a gorm-backed account repository
func NewAccountRepo(db *gorm.DB) *GormAccountRepo {
	return &GormAccountRepo{db: db}
}

func (r *GormAccountRepo) FindByWallet(ctx context.Context, wallet string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account by wallet: %w", err)
	}
	return &account, nil
}

func (r *GormAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account: %w", err)
	}
	return &account, nil
}

func (r *GormAccountRepo) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account by referral code: %w", err)
	}
	return &account, nil
}

func (r *GormAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating account: %w", err)
	}
	return nil
}

func (r *GormAccountRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("referral_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking referral code: %w", err)
	}
	return count > 0, nil
}

func (r *GormAccountRepo) IncrementPoints(ctx context.Context, id uuid.UUID, delta int64, seasonID *uuid.UUID) error {
	updates := map[string]interface{}{
		"total_points": gorm.Expr("total_points + ?", delta),
	}
	if seasonID != nil {
		updates["season_points"] = gorm.Expr("season_points + ?", delta)
		updates["current_season_id"] = *seasonID
	}
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("error incrementing points: %w", err)
	}
	return nil
}

func (r *GormAccountRepo) IncrementActiveReferrals(ctx context.Context, id uuid.UUID, delta int) error {
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("active_referrals", gorm.Expr("active_referrals + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("error incrementing active referrals: %w", err)
	}
	return nil
}

func (r *GormAccountRepo) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error {
	// Guarded update: an already-set referred_by is never overwritten.
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND referred_by IS NULL", id).
		Update("referred_by", referrerID).Error
	if err != nil {
		return fmt.Errorf("error setting referred_by: %w", err)
	}
	return nil
}

func (r *GormAccountRepo) ResetSeasonPoints(ctx context.Context, seasonID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"season_points":     0,
			"current_season_id": seasonID,
		}).Error
	if err != nil {
		return fmt.Errorf("error resetting season points: %w", err)
	}
	return nil
}

func (r *GormAccountRepo) SeasonLeaderboard(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("current_season_id = ?", seasonID).
		Order("season_points DESC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("error loading leaderboard: %w", err)
	}
	return accounts, nil
}
