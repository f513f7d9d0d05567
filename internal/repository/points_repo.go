package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormPointsRepo is the postgres-backed PointsRepo.
type GormPointsRepo struct {
	db *gorm.DB
}

// NewPointsRepo creates a gorm-backed points repository
func NewPointsRepo(db *gorm.DB) *GormPointsRepo {
	return &GormPointsRepo{db: db}
}

func (r *GormPointsRepo) FindRuleByKey(ctx context.Context, key string) (*models.PointRule, error) {
	var rule models.PointRule
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding point rule: %w", err)
	}
	return &rule, nil
}

func (r *GormPointsRepo) FindEventBySource(ctx context.Context, accountID uuid.UUID, sourceID string) (*models.PointEvent, error) {
	var event models.PointEvent
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND source_id = ?", accountID, sourceID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding point event: %w", err)
	}
	return &event, nil
}

func (r *GormPointsRepo) LatestEventForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (*models.PointEvent, error) {
	var event models.PointEvent
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND rule_key = ?", accountID, ruleKey).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding latest point event: %w", err)
	}
	return &event, nil
}

func (r *GormPointsRepo) CountEventsForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PointEvent{}).
		Where("account_id = ? AND rule_key = ?", accountID, ruleKey).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting point events: %w", err)
	}
	return count, nil
}

func (r *GormPointsRepo) CreateEvent(ctx context.Context, event *models.PointEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating point event: %w", err)
	}
	return nil
}
