package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateReferralsTable creates the referrer -> referee edges. The
// unique index on referee_id enforces one code use per lifetime.
func CreateReferralsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_referrals_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS referrals (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					referrer_id UUID NOT NULL REFERENCES accounts(id),
					referee_id UUID NOT NULL REFERENCES accounts(id),
					referral_code VARCHAR(8) NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT FALSE,
					first_trade_at TIMESTAMP WITH TIME ZONE,
					trade_count INTEGER NOT NULL DEFAULT 0,
					points_generated BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE UNIQUE INDEX idx_referrals_referee ON referrals(referee_id);
				CREATE INDEX idx_referrals_referrer ON referrals(referrer_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP TABLE IF EXISTS referrals;`).Error
		},
	}
}
