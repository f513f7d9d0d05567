package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account represents a tracked wallet identity holding points balances
// and a referral code. Created lazily on first interaction.
type Account struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	WalletAddress   string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"wallet_address"`
	FarcasterID     *int64         `gorm:"index" json:"farcaster_id,omitempty"`
	TotalPoints     int64          `gorm:"not null;default:0" json:"total_points"`
	SeasonPoints    int64          `gorm:"not null;default:0" json:"season_points"`
	CurrentSeasonID *uuid.UUID     `gorm:"type:uuid" json:"current_season_id,omitempty"`
	ReferralCode    string         `gorm:"type:varchar(8);uniqueIndex;not null" json:"referral_code"`
	ActiveReferrals int            `gorm:"not null;default:0" json:"active_referrals"`
	ReferredBy      *uuid.UUID     `gorm:"type:uuid;index" json:"referred_by,omitempty"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when one was not provided
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
