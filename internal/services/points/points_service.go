package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/predyx/backend/internal/audit"
	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
)

// Well-known rule keys awarded by the settlement pipeline. The rules
// themselves live in the store and are seeded by migration.
const (
	RuleTradeSettled  = "trade_settled"
	RuleReferralBonus = "referral_bonus"
)

// Reason explains why an award attempt granted nothing. These are
// expected business outcomes, returned as data rather than errors.
type Reason string

const (
	ReasonRuleNotFound   Reason = "RULE_NOT_FOUND"
	ReasonAlreadyAwarded Reason = "ALREADY_AWARDED"
	ReasonCooldownActive Reason = "COOLDOWN_ACTIVE"
	ReasonLimitReached   Reason = "LIMIT_REACHED"
)

// AwardResult is the outcome of one award attempt.
type AwardResult struct {
	Awarded    bool          `json:"awarded"`
	Points     int64         `json:"points,omitempty"`
	Reason     Reason        `json:"reason,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"` // remaining cooldown
}

// Service is the award-points engine. It enforces idempotency,
// cooldown and max-occurrence rules per account and action, writing one
// immutable PointEvent and atomically bumping the cached totals for
// every successful award.
type Service struct {
	accounts repository.AccountRepo
	points   repository.PointsRepo
	seasons  repository.SeasonRepo
	recorder audit.Recorder
	now      func() time.Time
}

// NewService creates a new points service
func NewService(accounts repository.AccountRepo, points repository.PointsRepo, seasons repository.SeasonRepo, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		accounts: accounts,
		points:   points,
		seasons:  seasons,
		recorder: recorder,
		now:      time.Now,
	}
}

// Award grants the rule's configured points value to the account,
// deduplicated on sourceID. Callers supply a sourceID unique to the
// real-world action (e.g. "wallet:action:txhash") so client retries are
// naturally rejected.
func (s *Service) Award(ctx context.Context, accountID uuid.UUID, ruleKey, sourceID, evidence string) (*AwardResult, error) {
	rule, result, err := s.lookupRule(ctx, ruleKey)
	if rule == nil {
		return result, err
	}
	return s.award(ctx, accountID, rule, sourceID, rule.Points, evidence)
}

// AwardAmount grants an explicit points value under the named rule,
// for variable-value actions like settled trades where the amount comes
// from a calculator rather than the rule row.
func (s *Service) AwardAmount(ctx context.Context, accountID uuid.UUID, ruleKey, sourceID string, amount int64, evidence string) (*AwardResult, error) {
	rule, result, err := s.lookupRule(ctx, ruleKey)
	if rule == nil {
		return result, err
	}
	return s.award(ctx, accountID, rule, sourceID, amount, evidence)
}

func (s *Service) lookupRule(ctx context.Context, ruleKey string) (*models.PointRule, *AwardResult, error) {
	rule, err := s.points.FindRuleByKey(ctx, ruleKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AwardResult{Awarded: false, Reason: ReasonRuleNotFound}, nil
		}
		return nil, nil, err
	}
	if !rule.IsActive {
		return nil, &AwardResult{Awarded: false, Reason: ReasonRuleNotFound}, nil
	}
	return rule, nil, nil
}

// award runs the dedup, cooldown and limit checks in order, each
// short-circuiting, then inserts the event and bumps the totals. The
// store's unique index on (account_id, source_id) is the actual
// concurrency guarantee; the existence check is an optimization.
func (s *Service) award(ctx context.Context, accountID uuid.UUID, rule *models.PointRule, sourceID string, amount int64, evidence string) (*AwardResult, error) {
	result, err := s.decide(ctx, accountID, rule, sourceID, amount, evidence)
	if err == nil {
		s.recordDecision(ctx, accountID, rule.Key, sourceID, result)
	}
	return result, err
}

func (s *Service) decide(ctx context.Context, accountID uuid.UUID, rule *models.PointRule, sourceID string, amount int64, evidence string) (*AwardResult, error) {
	// Idempotency: same (account, sourceID) never awards twice.
	_, err := s.points.FindEventBySource(ctx, accountID, sourceID)
	if err == nil {
		return &AwardResult{Awarded: false, Reason: ReasonAlreadyAwarded}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if rule.CooldownSeconds != nil {
		cooldown := time.Duration(*rule.CooldownSeconds) * time.Second
		last, err := s.points.LatestEventForRule(ctx, accountID, rule.Key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if last != nil {
			elapsed := s.now().Sub(last.CreatedAt)
			if elapsed < cooldown {
				return &AwardResult{
					Awarded:    false,
					Reason:     ReasonCooldownActive,
					RetryAfter: cooldown - elapsed,
				}, nil
			}
		}
	}

	if rule.MaxTimes != nil {
		count, err := s.points.CountEventsForRule(ctx, accountID, rule.Key)
		if err != nil {
			return nil, err
		}
		if count >= int64(*rule.MaxTimes) {
			return &AwardResult{Awarded: false, Reason: ReasonLimitReached}, nil
		}
	}

	event := &models.PointEvent{
		AccountID: accountID,
		RuleKey:   rule.Key,
		Points:    amount,
		SourceID:  sourceID,
		Evidence:  evidence,
		CreatedAt: s.now(),
	}
	if err := s.points.CreateEvent(ctx, event); err != nil {
		// A concurrent duplicate lost the insert race: the winning call
		// already awarded, so this one reports the replay outcome.
		if repository.IsUniqueViolation(err) {
			return &AwardResult{Awarded: false, Reason: ReasonAlreadyAwarded}, nil
		}
		return nil, err
	}

	if err := s.accounts.IncrementPoints(ctx, accountID, amount, s.activeSeasonID(ctx)); err != nil {
		return nil, fmt.Errorf("point event %s recorded but totals not updated: %w", event.ID, err)
	}

	return &AwardResult{Awarded: true, Points: amount}, nil
}

// activeSeasonID resolves the season to attribute the award to. No
// active season means the award only counts toward the lifetime total.
func (s *Service) activeSeasonID(ctx context.Context) *uuid.UUID {
	season, err := s.seasons.FindActive(ctx)
	if err != nil {
		return nil
	}
	return &season.ID
}

func (s *Service) recordDecision(ctx context.Context, accountID uuid.UUID, ruleKey, sourceID string, result *AwardResult) {
	outcome := "awarded"
	if !result.Awarded {
		outcome = string(result.Reason)
	}
	s.recorder.Record(ctx, audit.EventTypeAwardDecision, outcome, "", map[string]interface{}{
		"account_id": accountID.String(),
		"rule_key":   ruleKey,
		"source_id":  sourceID,
		"points":     result.Points,
	})
}
