package referral

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository/fakes"
)

func seedActiveReferrals(t *testing.T, referrals *fakes.Referrals, referrerID uuid.UUID, active int) {
	t.Helper()
	for i := 0; i < active; i++ {
		edge := &models.Referral{
			ReferrerID:   referrerID,
			RefereeID:    uuid.New(),
			ReferralCode: "ABC234",
		}
		require.NoError(t, referrals.Create(context.Background(), edge))
		_, err := referrals.Activate(context.Background(), edge.ID, time.Now())
		require.NoError(t, err)
	}
}

func TestTierFor_Monotonic(t *testing.T) {
	table := DefaultTierTable()

	assert.Equal(t, "bronze", table.TierFor(0).Name)
	assert.Equal(t, "bronze", table.TierFor(4).Name)
	assert.Equal(t, "silver", table.TierFor(5).Name)
	assert.Equal(t, "silver", table.TierFor(14).Name)
	assert.Equal(t, "gold", table.TierFor(15).Name)
	assert.Equal(t, "gold", table.TierFor(1000).Name)

	prev := 0.0
	for _, active := range []int{0, 1, 5, 10, 15, 50} {
		m := table.TierFor(active).Multiplier
		assert.GreaterOrEqual(t, m, prev)
		prev = m
	}
}

func TestComputeBonus_AppliesTierMultiplier(t *testing.T) {
	referrals := fakes.NewReferrals()
	referrerID := uuid.New()
	seedActiveReferrals(t, referrals, referrerID, 5)

	calc := NewBonusCalculator(referrals, nil)
	bonus, err := calc.ComputeBonus(context.Background(), referrerID, 500, false)
	require.NoError(t, err)

	assert.Equal(t, "silver", bonus.Tier)
	assert.Equal(t, 0.15, bonus.Multiplier)
	assert.Equal(t, int64(75), bonus.BonusPoints)
}

func TestComputeBonus_FloorsFractionalPoints(t *testing.T) {
	referrals := fakes.NewReferrals()
	referrerID := uuid.New()

	calc := NewBonusCalculator(referrals, nil)
	bonus, err := calc.ComputeBonus(context.Background(), referrerID, 123, true)
	require.NoError(t, err)

	// bronze at 0 actives: floor(123 * 0.10) = 12
	assert.Equal(t, "bronze", bonus.Tier)
	assert.Equal(t, int64(12), bonus.BonusPoints)
}

func TestComputeBonus_ZeroMultiplierPolicy(t *testing.T) {
	referrals := fakes.NewReferrals()
	referrerID := uuid.New()

	// A deployment may configure a cold-start tier that pays nothing
	// until the first referral activates.
	table := TierTable{
		{Name: "none", MinActive: 0, Multiplier: 0},
		{Name: "bronze", MinActive: 1, Multiplier: 0.10},
	}
	calc := NewBonusCalculator(referrals, table)

	bonus, err := calc.ComputeBonus(context.Background(), referrerID, 500, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bonus.BonusPoints)
	assert.Equal(t, "none", bonus.Tier)

	seedActiveReferrals(t, referrals, referrerID, 1)
	bonus, err = calc.ComputeBonus(context.Background(), referrerID, 500, false)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bonus.BonusPoints)
	assert.Equal(t, "bronze", bonus.Tier)
}
