package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Season is a time-boxed competition period. At most one season is
// active at any time; starting a new one deactivates the previous and
// resets every account's season points.
type Season struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Number    int            `gorm:"uniqueIndex;not null" json:"number"`
	StartsAt  time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time      `gorm:"not null" json:"ends_at"`
	IsActive  bool           `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
