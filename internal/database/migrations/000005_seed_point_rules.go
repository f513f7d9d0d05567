package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// SeedPointRules inserts the rules the settlement pipeline awards
// under, plus the one-shot engagement rules the web layer uses.
func SeedPointRules() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_seed_point_rules",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				INSERT INTO point_rules (key, points, is_active, cooldown_seconds, max_times, description) VALUES
					('trade_settled', 0, TRUE, NULL, NULL, 'Points for a settled trade; amount computed from PnL'),
					('referral_bonus', 0, TRUE, NULL, NULL, 'Referrer bonus; amount computed from referee points and tier'),
					('daily_checkin', 10, TRUE, 86400, NULL, 'Daily check-in bonus'),
					('wallet_connected', 25, TRUE, NULL, 1, 'First wallet connection'),
					('profile_completed', 50, TRUE, NULL, 1, 'Completed social profile')
				ON CONFLICT (key) DO NOTHING;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DELETE FROM point_rules WHERE key IN
				('trade_settled', 'referral_bonus', 'daily_checkin', 'wallet_connected', 'profile_completed');`).Error
		},
	}
}
