package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateTradesAndSeasonsTables creates the settled-position feed the
// batch consumes and the season calendar. The partial unique index
// keeps at most one season active.
func CreateTradesAndSeasonsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_trades_seasons_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS trades (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					wallet_address VARCHAR(64) NOT NULL,
					market_id VARCHAR(128),
					profit_loss DECIMAL(20,6) NOT NULL DEFAULT 0,
					is_settled BOOLEAN NOT NULL DEFAULT FALSE,
					points_processed BOOLEAN NOT NULL DEFAULT FALSE,
					settled_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_trades_unprocessed ON trades(settled_at ASC)
					WHERE is_settled AND NOT points_processed;
				CREATE INDEX idx_trades_wallet ON trades(wallet_address);

				CREATE TABLE IF NOT EXISTS seasons (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					number INTEGER NOT NULL UNIQUE,
					starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
					ends_at TIMESTAMP WITH TIME ZONE NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE UNIQUE INDEX idx_seasons_single_active ON seasons(is_active) WHERE is_active;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS seasons;
				DROP TABLE IF EXISTS trades;
			`).Error
		},
	}
}
