package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// GormSeasonRepo is the postgres-backed SeasonRepo.
type GormSeasonRepo struct {
	db *gorm.DB
}

// NewSeasonRepo creates a gorm-backed season repository
func NewSeasonRepo(db *gorm.DB) *GormSeasonRepo {
	return &GormSeasonRepo{db: db}
}

func (r *GormSeasonRepo) FindActive(ctx context.Context) (*models.Season, error) {
	var season models.Season
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&season).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding active season: %w", err)
	}
	return &season, nil
}

func (r *GormSeasonRepo) Create(ctx context.Context, season *models.Season) error {
	if err := r.db.WithContext(ctx).Create(season).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating season: %w", err)
	}
	return nil
}

func (r *GormSeasonRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Season{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("error deactivating season: %w", err)
	}
	return nil
}
