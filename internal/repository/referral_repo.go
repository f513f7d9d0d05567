package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormReferralRepo is the postgres-backed ReferralRepo.
type GormReferralRepo struct {
	db *gorm.DB
}

// NewReferralRepo creates a gorm-backed referral repository
func NewReferralRepo(db *gorm.DB) *GormReferralRepo {
	return &GormReferralRepo{db: db}
}

func (r *GormReferralRepo) FindByReferee(ctx context.Context, refereeID uuid.UUID) (*models.Referral, error) {
	var referral models.Referral
	err := r.db.WithContext(ctx).Where("referee_id = ?", refereeID).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding referral: %w", err)
	}
	return &referral, nil
}

func (r *GormReferralRepo) Create(ctx context.Context, referral *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(referral).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating referral: %w", err)
	}
	return nil
}

// Activate flips an inactive edge to active and stamps the first trade.
// The WHERE guard makes the transition happen at most once; the return
// value reports whether this call was the one that flipped it.
func (r *GormReferralRepo) Activate(ctx context.Context, id uuid.UUID, firstTradeAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND is_active = ?", id, false).
		Updates(map[string]interface{}{
			"is_active":      true,
			"first_trade_at": firstTradeAt,
			"trade_count":    1,
		})
	if result.Error != nil {
		return false, fmt.Errorf("error activating referral: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *GormReferralRepo) IncrementTradeCount(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", id).
		Update("trade_count", gorm.Expr("trade_count + 1")).Error
	if err != nil {
		return fmt.Errorf("error incrementing referral trade count: %w", err)
	}
	return nil
}

func (r *GormReferralRepo) AddPointsGenerated(ctx context.Context, id uuid.UUID, delta int64) error {
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ?", id).
		Update("points_generated", gorm.Expr("points_generated + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("error adding referral points generated: %w", err)
	}
	return nil
}

func (r *GormReferralRepo) StatsForReferrer(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error) {
	type row struct {
		Total  int64
		Active int64
		Points int64
	}
	var res row
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active, COALESCE(SUM(points_generated), 0) AS points").
		Where("referrer_id = ?", referrerID).
		Scan(&res).Error
	if err != nil {
		return nil, fmt.Errorf("error loading referral stats: %w", err)
	}
	return &models.ReferralStats{
		TotalReferrals:  int(res.Total),
		ActiveReferrals: int(res.Active),
		PointsGenerated: res.Points,
	}, nil
}
