package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trade is a settled wager position. Rows are created when a wager is
// placed (outside this service) and flipped to settled by the
// settlement feed; the points pipeline only ever sets PointsProcessed.
type Trade struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	WalletAddress   string         `gorm:"type:varchar(64);not null;index" json:"wallet_address"`
	MarketID        string         `gorm:"type:varchar(128)" json:"market_id"`
	ProfitLoss      float64        `gorm:"type:decimal(20,6);not null;default:0" json:"profit_loss"`
	IsSettled       bool           `gorm:"not null;default:false;index:idx_trades_unprocessed" json:"is_settled"`
	PointsProcessed bool           `gorm:"not null;default:false;index:idx_trades_unprocessed" json:"points_processed"`
	SettledAt       *time.Time     `gorm:"index" json:"settled_at,omitempty"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
