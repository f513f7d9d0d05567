package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Referral is a directed referrer -> referee edge. A referee wallet has
// at most one edge for its lifetime; IsActive flips false -> true
// exactly once, on the referee's first processed trade.
type Referral struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferrerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"referrer_id"`
	Referrer        Account        `gorm:"foreignKey:ReferrerID" json:"-"`
	RefereeID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"referee_id"`
	Referee         Account        `gorm:"foreignKey:RefereeID" json:"-"`
	ReferralCode    string         `gorm:"type:varchar(8);not null" json:"referral_code"`
	IsActive        bool           `gorm:"not null;default:false" json:"is_active"`
	FirstTradeAt    *time.Time     `json:"first_trade_at,omitempty"`
	TradeCount      int            `gorm:"not null;default:0" json:"trade_count"`
	PointsGenerated int64          `gorm:"not null;default:0" json:"points_generated"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReferralStats summarizes a referrer's standing for the bonus tiers
// and the referral dashboard.
type ReferralStats struct {
	TotalReferrals  int   `json:"total_referrals"`
	ActiveReferrals int   `json:"active_referrals"`
	PointsGenerated int64 `json:"points_generated"`
}
