package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateAccountsTable creates the accounts table. Wallet addresses are
// stored lowercased; referral codes are globally unique.
func CreateAccountsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_accounts_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

				CREATE TABLE IF NOT EXISTS accounts (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					wallet_address VARCHAR(64) NOT NULL UNIQUE,
					farcaster_id BIGINT,
					total_points BIGINT NOT NULL DEFAULT 0,
					season_points BIGINT NOT NULL DEFAULT 0,
					current_season_id UUID,
					referral_code VARCHAR(8) NOT NULL UNIQUE,
					active_referrals INTEGER NOT NULL DEFAULT 0,
					referred_by UUID REFERENCES accounts(id),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_accounts_referral_code ON accounts(referral_code);
				CREATE INDEX idx_accounts_farcaster_id ON accounts(farcaster_id);
				CREATE INDEX idx_accounts_season_points ON accounts(current_season_id, season_points DESC);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS accounts;`).Error
		},
	}
}
