package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/predyx/backend/internal/audit"
	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
	"github.com/predyx/backend/internal/services/points"
	"github.com/predyx/backend/internal/services/referral"
)

// BatchError records one trade the batch could not process. The trade
// stays unprocessed and is retried on the next scheduled run.
type BatchError struct {
	TradeID uuid.UUID `json:"trade_id"`
	Message string    `json:"message"`
}

// BatchResult summarizes one batch run: partial success plus an
// itemized error list, never all-or-nothing.
type BatchResult struct {
	ProcessedCount         int          `json:"processed_count"`
	PointsAwarded          int64        `json:"points_awarded"`
	ReferralBonusesAwarded int64        `json:"referral_bonuses_awarded"`
	Errors                 []BatchError `json:"errors"`
}

// SettlementJob walks the settled-but-unprocessed trades, awards trade
// points to the trader, pays the referrer's bonus and activates the
// referral on the referee's first trade. Safe to run concurrently with
// itself: the per-(account, sourceID) unique index and the
// points_processed flag carry the dedup, not a lock.
type SettlementJob struct {
	trades       repository.TradeRepo
	referrals    repository.ReferralRepo
	accounts     repository.AccountRepo
	transactions repository.TransactionRepo
	ledger       *points.Service
	referralSvc  *referral.Service
	bonusCalc    *referral.BonusCalculator
	seasons      repository.SeasonRepo
	recorder     audit.Recorder
	now          func() time.Time
}

// NewSettlementJob creates a new settlement batch job
func NewSettlementJob(
	store *repository.Store,
	ledger *points.Service,
	referralSvc *referral.Service,
	bonusCalc *referral.BonusCalculator,
	recorder audit.Recorder,
) *SettlementJob {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &SettlementJob{
		trades:       store.Trades,
		referrals:    store.Referrals,
		accounts:     store.Accounts,
		transactions: store.Transactions,
		ledger:       ledger,
		referralSvc:  referralSvc,
		bonusCalc:    bonusCalc,
		seasons:      store.Seasons,
		recorder:     recorder,
		now:          time.Now,
	}
}

// ProcessSettledPositions runs one batch pass. A missing active season
// aborts the whole run; any single trade's failure is recorded and the
// batch moves on.
func (j *SettlementJob) ProcessSettledPositions(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{Errors: []BatchError{}}

	season, err := j.seasons.FindActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			result.Errors = append(result.Errors, BatchError{Message: "no active season"})
			return result, errors.New("settlement batch aborted: no active season")
		}
		return result, fmt.Errorf("settlement batch aborted: %w", err)
	}

	trades, err := j.trades.FindUnprocessedSettled(ctx)
	if err != nil {
		return result, fmt.Errorf("settlement batch aborted: %w", err)
	}

	for i := range trades {
		trade := &trades[i]
		awarded, bonus, err := j.processTrade(ctx, season, trade)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{TradeID: trade.ID, Message: err.Error()})
			log.Printf("Settlement batch: trade %s failed: %v", trade.ID, err)
			continue
		}
		result.ProcessedCount++
		result.PointsAwarded += awarded
		result.ReferralBonusesAwarded += bonus
	}

	j.recorder.Record(ctx, audit.EventTypeBatchSummary, "completed", "", map[string]interface{}{
		"processed_count":          result.ProcessedCount,
		"points_awarded":           result.PointsAwarded,
		"referral_bonuses_awarded": result.ReferralBonusesAwarded,
		"error_count":              len(result.Errors),
		"season_number":            season.Number,
	})
	log.Printf("Settlement batch: processed=%d points=%d bonuses=%d errors=%d",
		result.ProcessedCount, result.PointsAwarded, result.ReferralBonusesAwarded, len(result.Errors))

	return result, nil
}

// processTrade runs steps (a)-(g) for one trade as an ordered unit and
// returns the trade points and referral bonus actually awarded by this
// call. Re-runs over a trade whose processed-flag update failed are
// no-ops on the awards thanks to the deterministic source IDs.
func (j *SettlementJob) processTrade(ctx context.Context, season *models.Season, trade *models.Trade) (int64, int64, error) {
	pts, err := points.PointsForTrade(trade)
	if err != nil {
		return 0, 0, err
	}

	account, err := j.referralSvc.EnsureAccount(ctx, trade.WalletAddress)
	if err != nil {
		return 0, 0, err
	}

	var awarded, bonusAwarded int64
	tradeAwarded := false
	if pts > 0 {
		res, err := j.ledger.AwardAmount(ctx, account.ID, points.RuleTradeSettled, tradeSourceID(trade.ID), pts,
			fmt.Sprintf("pnl=%.6f", trade.ProfitLoss))
		if err != nil {
			return 0, 0, err
		}
		if res.Awarded {
			tradeAwarded = true
			awarded = res.Points
			if err := j.transactions.Create(ctx, &models.PointTransaction{
				AccountID: account.ID,
				Type:      models.TransactionTypeTrade,
				Amount:    res.Points,
				TradeID:   &trade.ID,
				SeasonID:  &season.ID,
			}); err != nil {
				return 0, 0, err
			}
		}
	}

	edge, err := j.referrals.FindByReferee(ctx, account.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, 0, err
	}

	if edge != nil {
		bonusAwarded, err = j.payReferralBonus(ctx, season, trade, edge, pts, tradeAwarded)
		if err != nil {
			return 0, 0, err
		}
		if err := j.trackRefereeTrade(ctx, edge, tradeAwarded); err != nil {
			return 0, 0, err
		}
	}

	if err := j.trades.MarkPointsProcessed(ctx, trade.ID); err != nil {
		return 0, 0, err
	}

	return awarded, bonusAwarded, nil
}

// payReferralBonus computes the referrer's bonus from their current
// active-referral count (before any activation from this trade) and
// awards it under a source ID derived from the trade.
func (j *SettlementJob) payReferralBonus(ctx context.Context, season *models.Season, trade *models.Trade, edge *models.Referral, refereePoints int64, tradeAwarded bool) (int64, error) {
	if refereePoints <= 0 {
		return 0, nil
	}

	bonus, err := j.bonusCalc.ComputeBonus(ctx, edge.ReferrerID, refereePoints, !edge.IsActive)
	if err != nil {
		return 0, err
	}

	var bonusAwarded int64
	if bonus.BonusPoints > 0 {
		res, err := j.ledger.AwardAmount(ctx, edge.ReferrerID, points.RuleReferralBonus, bonusSourceID(trade.ID), bonus.BonusPoints,
			fmt.Sprintf("tier=%s multiplier=%.2f referee_points=%d", bonus.Tier, bonus.Multiplier, refereePoints))
		if err != nil {
			return 0, err
		}
		if res.Awarded {
			bonusAwarded = res.Points
			if err := j.transactions.Create(ctx, &models.PointTransaction{
				AccountID: edge.ReferrerID,
				Type:      models.TransactionTypeReferralBonus,
				Amount:    res.Points,
				TradeID:   &trade.ID,
				SeasonID:  &season.ID,
			}); err != nil {
				return 0, err
			}
		}
	}

	// The lifetime generated-points counter only moves when this call is
	// the one that awarded the referee's trade, so batch replays cannot
	// inflate it.
	if tradeAwarded {
		if err := j.referrals.AddPointsGenerated(ctx, edge.ID, refereePoints); err != nil {
			return bonusAwarded, err
		}
	}

	return bonusAwarded, nil
}

// trackRefereeTrade activates the edge on the referee's first processed
// trade and counts subsequent ones. Activation is monotonic: the
// guarded update flips is_active at most once, ever.
func (j *SettlementJob) trackRefereeTrade(ctx context.Context, edge *models.Referral, tradeAwarded bool) error {
	if !edge.IsActive {
		activated, err := j.referrals.Activate(ctx, edge.ID, j.now())
		if err != nil {
			return err
		}
		if activated {
			return j.accounts.IncrementActiveReferrals(ctx, edge.ReferrerID, 1)
		}
		return nil
	}
	if tradeAwarded {
		return j.referrals.IncrementTradeCount(ctx, edge.ID)
	}
	return nil
}

func tradeSourceID(tradeID uuid.UUID) string {
	return fmt.Sprintf("trade:%s", tradeID)
}

func bonusSourceID(tradeID uuid.UUID) string {
	return fmt.Sprintf("refbonus:%s", tradeID)
}
