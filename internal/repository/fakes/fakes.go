// Package fakes provides in-memory repository implementations for
// service tests. They enforce the same unique constraints the postgres
// schema does, so the race-recovery paths behave like production.
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
)

// NewStore builds a connected set of in-memory repositories.
func NewStore() *repository.Store {
	return &repository.Store{
		Accounts:     NewAccounts(),
		Points:       NewPoints(),
		Trades:       NewTrades(),
		Referrals:    NewReferrals(),
		Seasons:      NewSeasons(),
		Transactions: NewTransactions(),
	}
}

// Accounts is an in-memory AccountRepo.
type Accounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Account

	// CodeCollision makes every CodeExists call report a collision, to
	// exercise generation exhaustion.
	CodeCollision bool
}

func NewAccounts() *Accounts {
	return &Accounts{byID: make(map[uuid.UUID]*models.Account)}
}

func (f *Accounts) FindByWallet(ctx context.Context, wallet string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.WalletAddress == wallet {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Accounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Accounts) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.ReferralCode == code {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Accounts) Create(ctx context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.WalletAddress == account.WalletAddress || a.ReferralCode == account.ReferralCode {
			return repository.ErrDuplicate
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	copied := *account
	f.byID[account.ID] = &copied
	return nil
}

func (f *Accounts) CodeExists(ctx context.Context, code string) (bool, error) {
	if f.CodeCollision {
		return true, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *Accounts) IncrementPoints(ctx context.Context, id uuid.UUID, delta int64, seasonID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.TotalPoints += delta
		if seasonID != nil {
			a.SeasonPoints += delta
			a.CurrentSeasonID = seasonID
		}
	}
	return nil
}

func (f *Accounts) IncrementActiveReferrals(ctx context.Context, id uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.ActiveReferrals += delta
	}
	return nil
}

func (f *Accounts) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok && a.ReferredBy == nil {
		copied := referrerID
		a.ReferredBy = &copied
	}
	return nil
}

func (f *Accounts) ResetSeasonPoints(ctx context.Context, seasonID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		a.SeasonPoints = 0
		copied := seasonID
		a.CurrentSeasonID = &copied
	}
	return nil
}

func (f *Accounts) SeasonLeaderboard(ctx context.Context, seasonID uuid.UUID, limit int) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for _, a := range f.byID {
		if a.CurrentSeasonID != nil && *a.CurrentSeasonID == seasonID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeasonPoints > out[j].SeasonPoints })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Points is an in-memory PointsRepo.
type Points struct {
	mu     sync.Mutex
	rules  map[string]*models.PointRule
	events []models.PointEvent
}

func NewPoints() *Points {
	return &Points{rules: make(map[string]*models.PointRule)}
}

// AddRule seeds a rule, as the migration would.
func (f *Points) AddRule(rule models.PointRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	f.rules[rule.Key] = &rule
}

func (f *Points) FindRuleByKey(ctx context.Context, key string) (*models.PointRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rules[key]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Points) FindEventBySource(ctx context.Context, accountID uuid.UUID, sourceID string) (*models.PointEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].AccountID == accountID && f.events[i].SourceID == sourceID {
			copied := f.events[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Points) LatestEventForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (*models.PointEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.PointEvent
	for i := range f.events {
		e := &f.events[i]
		if e.AccountID == accountID && e.RuleKey == ruleKey {
			if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
				latest = e
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *Points) CountEventsForRule(ctx context.Context, accountID uuid.UUID, ruleKey string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for i := range f.events {
		if f.events[i].AccountID == accountID && f.events[i].RuleKey == ruleKey {
			count++
		}
	}
	return count, nil
}

func (f *Points) CreateEvent(ctx context.Context, event *models.PointEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].AccountID == event.AccountID && f.events[i].SourceID == event.SourceID {
			return repository.ErrDuplicate
		}
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	f.events = append(f.events, *event)
	return nil
}

// Trades is an in-memory TradeRepo.
type Trades struct {
	mu     sync.Mutex
	trades map[uuid.UUID]*models.Trade
}

func NewTrades() *Trades {
	return &Trades{trades: make(map[uuid.UUID]*models.Trade)}
}

// Add seeds a trade, as the out-of-scope wager flow would.
func (f *Trades) Add(trade models.Trade) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}
	f.trades[trade.ID] = &trade
	return trade.ID
}

// Get returns a seeded trade for assertions.
func (f *Trades) Get(id uuid.UUID) *models.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trades[id]; ok {
		copied := *t
		return &copied
	}
	return nil
}

func (f *Trades) FindUnprocessedSettled(ctx context.Context) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Trade
	for _, t := range f.trades {
		if t.IsSettled && !t.PointsProcessed {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].SettledAt, out[j].SettledAt
		if ti == nil || tj == nil {
			return tj == nil
		}
		return ti.Before(*tj)
	})
	return out, nil
}

func (f *Trades) MarkPointsProcessed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trades[id]; ok {
		t.PointsProcessed = true
	}
	return nil
}

// Referrals is an in-memory ReferralRepo.
type Referrals struct {
	mu    sync.Mutex
	edges map[uuid.UUID]*models.Referral // keyed by referee
}

func NewReferrals() *Referrals {
	return &Referrals{edges: make(map[uuid.UUID]*models.Referral)}
}

func (f *Referrals) FindByReferee(ctx context.Context, refereeID uuid.UUID) (*models.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.edges[refereeID]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Referrals) Create(ctx context.Context, referral *models.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.edges[referral.RefereeID]; ok {
		return repository.ErrDuplicate
	}
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	referral.CreatedAt = time.Now()
	copied := *referral
	f.edges[referral.RefereeID] = &copied
	return nil
}

func (f *Referrals) Activate(ctx context.Context, id uuid.UUID, firstTradeAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if e.ID == id {
			if e.IsActive {
				return false, nil
			}
			e.IsActive = true
			copied := firstTradeAt
			e.FirstTradeAt = &copied
			e.TradeCount = 1
			return true, nil
		}
	}
	return false, nil
}

func (f *Referrals) IncrementTradeCount(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if e.ID == id {
			e.TradeCount++
		}
	}
	return nil
}

func (f *Referrals) AddPointsGenerated(ctx context.Context, id uuid.UUID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.edges {
		if e.ID == id {
			e.PointsGenerated += delta
		}
	}
	return nil
}

func (f *Referrals) StatsForReferrer(ctx context.Context, referrerID uuid.UUID) (*models.ReferralStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.ReferralStats{}
	for _, e := range f.edges {
		if e.ReferrerID == referrerID {
			stats.TotalReferrals++
			if e.IsActive {
				stats.ActiveReferrals++
			}
			stats.PointsGenerated += e.PointsGenerated
		}
	}
	return stats, nil
}

// Seasons is an in-memory SeasonRepo.
type Seasons struct {
	mu      sync.Mutex
	seasons map[uuid.UUID]*models.Season
}

func NewSeasons() *Seasons {
	return &Seasons{seasons: make(map[uuid.UUID]*models.Season)}
}

func (f *Seasons) FindActive(ctx context.Context) (*models.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.seasons {
		if s.IsActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Seasons) Create(ctx context.Context, season *models.Season) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.seasons {
		if s.Number == season.Number {
			return repository.ErrDuplicate
		}
	}
	if season.ID == uuid.Nil {
		season.ID = uuid.New()
	}
	copied := *season
	f.seasons[season.ID] = &copied
	return nil
}

func (f *Seasons) Deactivate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.seasons[id]; ok {
		s.IsActive = false
	}
	return nil
}

// Transactions is an in-memory TransactionRepo.
type Transactions struct {
	mu   sync.Mutex
	rows []models.PointTransaction
}

func NewTransactions() *Transactions {
	return &Transactions{}
}

func (f *Transactions) Create(ctx context.Context, transaction *models.PointTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	transaction.CreatedAt = time.Now()
	f.rows = append(f.rows, *transaction)
	return nil
}

func (f *Transactions) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]models.PointTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PointTransaction
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].AccountID == accountID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

// All returns every recorded transaction for assertions.
func (f *Transactions) All() []models.PointTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PointTransaction, len(f.rows))
	copy(out, f.rows)
	return out
}
