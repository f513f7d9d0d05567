package referral

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/predyx/backend/internal/repository"
)

// Tier maps a minimum active-referral count to a bonus multiplier.
type Tier struct {
	Name       string  `json:"name"`
	MinActive  int     `json:"min_active"`
	Multiplier float64 `json:"multiplier"`
}

// TierTable is the injectable bonus policy: monotonic in active-referral
// count. Thresholds are configuration, not algorithm.
type TierTable []Tier

// DefaultTierTable is the shipped policy. The lowest tier starts at
// zero actives so a referrer earns on the referee's very first trade,
// before that trade's activation lands.
func DefaultTierTable() TierTable {
	return TierTable{
		{Name: "bronze", MinActive: 0, Multiplier: 0.10},
		{Name: "silver", MinActive: 5, Multiplier: 0.15},
		{Name: "gold", MinActive: 15, Multiplier: 0.25},
	}
}

// TierFor returns the highest tier whose threshold the count meets.
func (t TierTable) TierFor(activeReferrals int) Tier {
	sorted := make(TierTable, len(t))
	copy(sorted, t)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinActive < sorted[j].MinActive })

	best := Tier{Name: "none", MinActive: 0, Multiplier: 0}
	for _, tier := range sorted {
		if activeReferrals >= tier.MinActive {
			best = tier
		}
	}
	return best
}

// BonusResult describes the bonus owed to a referrer for one referee
// trade.
type BonusResult struct {
	BonusPoints int64   `json:"bonus_points"`
	Tier        string  `json:"tier"`
	Multiplier  float64 `json:"multiplier"`
}

// BonusCalculator maps a referrer's current standing and a referee's
// earned points to a bonus. IsFirstTrade is informational for the
// caller; the multiplier always comes from the counts as they are now,
// activation happens afterwards in the orchestrator.
type BonusCalculator struct {
	referrals repository.ReferralRepo
	tiers     TierTable
}

// NewBonusCalculator creates a bonus calculator with the given policy
// table. A nil table gets the default policy.
func NewBonusCalculator(referrals repository.ReferralRepo, tiers TierTable) *BonusCalculator {
	if len(tiers) == 0 {
		tiers = DefaultTierTable()
	}
	return &BonusCalculator{referrals: referrals, tiers: tiers}
}

// ComputeBonus looks up the referrer's active-referral count and
// applies the tier table to the referee's earned points.
func (c *BonusCalculator) ComputeBonus(ctx context.Context, referrerID uuid.UUID, refereeEarnedPoints int64, isFirstTrade bool) (*BonusResult, error) {
	stats, err := c.referrals.StatsForReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	tier := c.tiers.TierFor(stats.ActiveReferrals)
	bonus := int64(math.Floor(float64(refereeEarnedPoints) * tier.Multiplier))
	if tier.Multiplier <= 0 {
		bonus = 0
	}

	return &BonusResult{
		BonusPoints: bonus,
		Tier:        tier.Name,
		Multiplier:  tier.Multiplier,
	}, nil
}
