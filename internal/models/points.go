package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType classifies a points ledger line
type TransactionType string

const (
	TransactionTypeTrade           TransactionType = "TRADE"
	TransactionTypeReferralBonus   TransactionType = "REFERRAL_BONUS"
	TransactionTypeAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
)

// PointRule is a named, versioned rule describing how many points an
// action is worth and any frequency limits. Configured externally;
// the core only reads it.
type PointRule struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Key             string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Points          int64          `gorm:"not null" json:"points"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	CooldownSeconds *int64         `json:"cooldown_seconds,omitempty"`
	MaxTimes        *int           `json:"max_times,omitempty"`
	Description     string         `gorm:"type:text" json:"description"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// PointEvent is the immutable audit row backing idempotent awards.
// (account_id, source_id) carries a unique index; the store constraint,
// not the service-layer existence check, is the dedup guarantee.
type PointEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_point_events_account_source;index:idx_point_events_account_rule" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID" json:"-"`
	RuleKey   string    `gorm:"type:varchar(64);not null;index:idx_point_events_account_rule" json:"rule_key"`
	Points    int64     `gorm:"not null" json:"points"`
	SourceID  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_point_events_account_source" json:"source_id"`
	Evidence  string    `gorm:"type:text" json:"evidence,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// PointTransaction is the domain ledger line for trade and referral
// activity. One calculator result produces exactly one transaction.
type PointTransaction struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AccountID uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Account   Account         `gorm:"foreignKey:AccountID" json:"-"`
	Type      TransactionType `gorm:"type:varchar(32);not null" json:"type"`
	Amount    int64           `gorm:"not null" json:"amount"`
	TradeID   *uuid.UUID      `gorm:"type:uuid;index" json:"trade_id,omitempty"`
	SeasonID  *uuid.UUID      `gorm:"type:uuid;index" json:"season_id,omitempty"`
	CreatedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (e *PointEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (t *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
