package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/predyx/backend/internal/models"
)

// ErrNotFound is returned by lookups when no row matches. Implementations
// translate their store's own not-found error so callers never import the
// driver.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned by inserts that hit a unique constraint. The
// store constraint is the real exclusion mechanism for idempotency and
// code uniqueness; callers catch this and re-read the winning row.
var ErrDuplicate = errors.New("duplicate record")

// IsUniqueViolation reports whether err came from a unique constraint,
// in any of the shapes the stack surfaces it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AccountRepo covers the account queries the points core needs.
type AccountRepo interface {
	FindByWallet(ctx context.Context, wallet string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	CodeExists(ctx context.Context, code string) (bool, error)
	// IncrementPoints bumps the lifetime and season tallies atomically at
	// the store level, never via read-modify-write.
	IncrementPoints(ctx context.Context, id uuid.UUID, delta int64, seasonID *uuid.UUID) error
	IncrementActiveReferrals(ctx context.Context, id uuid.UUID, delta int) error
	// SetReferredBy backfills the referred_by link; first write wins and an
	// existing value is never overwritten.
	SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error
	ResetSeasonPoints(ctx context.Context, seasonID uuid.UUID) error
	SeasonLeaderboard(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Account, error)
}

// PointsRepo covers rule lookups and the point-event audit trail.
type PointsRepo interface {
	FindRuleByKey(ctx context.Context, key string) (*models.PointRule, error)
	FindEventBySource(ctx context.Context, accountID uuid.UUID, sourceID string) (*models.PointEvent, error)
	LatestEventForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (*models.PointEvent, error)
	CountEventsForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (int64, error)
	CreateEvent(ctx context.Context, event *models.PointEvent) error
}

// TradeRepo covers the settled-position feed.
type TradeRepo interface {
	FindUnprocessedSettled(ctx context.Context) ([]models.Trade, error)
	MarkPointsProcessed(ctx context.Context, id uuid.UUID) error
}

// ReferralRepo covers the referrer -> referee edges.
type ReferralRepo interface {
	FindByReferee(ctx context.Context, refereeID uuid.UUID) (*models.Referral, error)
	Create(ctx context.Context, referral *models.Referral) error
	// Activate flips the edge active and stamps the first trade. It only
	// touches rows still inactive, so the transition happens at most once.
	Activate(ctx context.Context, id uuid.UUID, firstTradeAt time.Time) (bool, error)
	IncrementTradeCount(ctx context.Context, id uuid.UUID) error
	AddPointsGenerated(ctx context.Context, id uuid.UUID, delta int64) error
	StatsForReferrer(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error)
}

// SeasonRepo covers the competition calendar.
type SeasonRepo interface {
	FindActive(ctx context.Context) (*models.Season, error)
	Create(ctx context.Context, season *models.Season) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// TransactionRepo records the domain ledger lines.
type TransactionRepo interface {
	Create(ctx context.Context, transaction *models.PointTransaction) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PointTransaction, error)
}

// Store bundles the per-entity repositories for wiring convenience.
type Store struct {
	Accounts     AccountRepo
	Points       PointsRepo
	Trades       TradeRepo
	Referrals    ReferralRepo
	Seasons      SeasonRepo
	Transactions TransactionRepo
}

// NewStore builds the gorm-backed repository set.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		Accounts:     NewAccountRepo(db),
		Points:       NewPointsRepo(db),
		Trades:       NewTradeRepo(db),
		Referrals:    NewReferralRepo(db),
		Seasons:      NewSeasonRepo(db),
		Transactions: NewTransactionRepo(db),
	}
}
