package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreatePointsTables creates the rules, event audit trail, transaction
// ledger and the structured observability log. The unique index on
// point_events(account_id, source_id) is the idempotency guarantee the
// whole awards pipeline leans on.
func CreatePointsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_points_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS point_rules (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					key VARCHAR(64) NOT NULL UNIQUE,
					points BIGINT NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					cooldown_seconds BIGINT,
					max_times INTEGER,
					description TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE TABLE IF NOT EXISTS point_events (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					account_id UUID NOT NULL REFERENCES accounts(id),
					rule_key VARCHAR(64) NOT NULL,
					points BIGINT NOT NULL,
					source_id VARCHAR(255) NOT NULL,
					evidence TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE UNIQUE INDEX idx_point_events_account_source ON point_events(account_id, source_id);
				CREATE INDEX idx_point_events_account_rule ON point_events(account_id, rule_key, created_at DESC);

				CREATE TABLE IF NOT EXISTS point_transactions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					account_id UUID NOT NULL REFERENCES accounts(id),
					type VARCHAR(32) NOT NULL,
					amount BIGINT NOT NULL,
					trade_id UUID,
					season_id UUID,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_point_transactions_account ON point_transactions(account_id, created_at DESC);

				CREATE TABLE IF NOT EXISTS points_event_logs (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					event_type VARCHAR(32) NOT NULL,
					outcome VARCHAR(32) NOT NULL,
					wallet VARCHAR(64),
					metadata TEXT,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX idx_points_event_logs_type ON points_event_logs(event_type, created_at DESC);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS points_event_logs;
				DROP TABLE IF EXISTS point_transactions;
				DROP TABLE IF EXISTS point_events;
				DROP TABLE IF EXISTS point_rules;
			`).Error
		},
	}
}
