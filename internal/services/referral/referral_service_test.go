package referral

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository/fakes"
)

const (
	walletA = "0xaaaa111111111111111111111111111111111111"
	walletB = "0xbbbb222222222222222222222222222222222222"
	walletC = "0xcccc333333333333333333333333333333333333"
)

type referralFixture struct {
	svc       *Service
	accounts  *fakes.Accounts
	referrals *fakes.Referrals
}

func newReferralFixture(t *testing.T) *referralFixture {
	t.Helper()
	accounts := fakes.NewAccounts()
	referrals := fakes.NewReferrals()
	gen := NewCodeGenerator(accounts, 6)
	return &referralFixture{
		svc:       NewService(accounts, referrals, gen, nil),
		accounts:  accounts,
		referrals: referrals,
	}
}

func TestEnsureAccount_CreatesWithDeterministicCode(t *testing.T) {
	f := newReferralFixture(t)

	account, err := f.svc.EnsureAccount(context.Background(), strings.ToUpper(walletA))
	require.NoError(t, err)
	assert.Equal(t, walletA, account.WalletAddress, "wallet stored lowercased")
	assert.True(t, ValidCodeFormat(account.ReferralCode))

	// A second call for the same wallet returns the same account
	again, err := f.svc.EnsureAccount(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, account.ID, again.ID)
	assert.Equal(t, account.ReferralCode, again.ReferralCode)
}

func TestEnsureAccount_RejectsInvalidWallet(t *testing.T) {
	f := newReferralFixture(t)

	_, err := f.svc.EnsureAccount(context.Background(), "not-a-wallet")
	assert.Error(t, err)
}

func TestEnsureAccount_DeterministicCodeCollisionFallsBackToRandom(t *testing.T) {
	f := newReferralFixture(t)

	// Occupy wallet B's deterministic code with a different account so
	// the insert hits the code's unique index, not the wallet's.
	gen := NewCodeGenerator(f.accounts, 6)
	stolen := gen.DeterministicFor(walletB)
	require.NoError(t, f.accounts.Create(context.Background(), &models.Account{
		WalletAddress: walletC,
		ReferralCode:  stolen,
	}))

	account, err := f.svc.EnsureAccount(context.Background(), walletB)
	require.NoError(t, err)
	assert.Equal(t, walletB, account.WalletAddress)
	assert.NotEqual(t, stolen, account.ReferralCode)
	assert.True(t, ValidCodeFormat(account.ReferralCode))
}

func TestValidateAndLink_Success(t *testing.T) {
	f := newReferralFixture(t)

	referrer, err := f.svc.EnsureAccount(context.Background(), walletA)
	require.NoError(t, err)

	result, err := f.svc.ValidateAndLink(context.Background(), referrer.ReferralCode, walletB)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, walletA, result.ReferrerWallet)

	// The edge exists, inactive, with zeroed counters
	referee, err := f.accounts.FindByWallet(context.Background(), walletB)
	require.NoError(t, err)
	edge, err := f.referrals.FindByReferee(context.Background(), referee.ID)
	require.NoError(t, err)
	assert.False(t, edge.IsActive)
	assert.Equal(t, 0, edge.TradeCount)
	assert.Equal(t, int64(0), edge.PointsGenerated)

	// referred_by backfilled on the referee's account
	require.NotNil(t, referee.ReferredBy)
	assert.Equal(t, referrer.ID, *referee.ReferredBy)
}

func TestValidateAndLink_InvalidCode(t *testing.T) {
	f := newReferralFixture(t)

	// Malformed: rejected before any store lookup
	result, err := f.svc.ValidateAndLink(context.Background(), "0O1I!", walletB)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, RejectInvalidCode, result.Reason)

	// Well-formed but unknown
	result, err = f.svc.ValidateAndLink(context.Background(), "ZZZZ99", walletB)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, RejectInvalidCode, result.Reason)
}

func TestValidateAndLink_SelfReferral(t *testing.T) {
	f := newReferralFixture(t)

	referrer, err := f.svc.EnsureAccount(context.Background(), walletA)
	require.NoError(t, err)

	// Case-insensitive wallet comparison
	result, err := f.svc.ValidateAndLink(context.Background(), referrer.ReferralCode, strings.ToUpper(walletA))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, RejectSelfReferral, result.Reason)
}

func TestValidateAndLink_OneCodePerLifetime(t *testing.T) {
	f := newReferralFixture(t)

	referrerA, err := f.svc.EnsureAccount(context.Background(), walletA)
	require.NoError(t, err)
	referrerC, err := f.svc.EnsureAccount(context.Background(), walletC)
	require.NoError(t, err)

	first, err := f.svc.ValidateAndLink(context.Background(), referrerA.ReferralCode, walletB)
	require.NoError(t, err)
	assert.True(t, first.Valid)

	// Any code, same referee: rejected
	second, err := f.svc.ValidateAndLink(context.Background(), referrerC.ReferralCode, walletB)
	require.NoError(t, err)
	assert.False(t, second.Valid)
	assert.Equal(t, RejectAlreadyReferred, second.Reason)

	// referred_by still points at the first referrer
	referee, err := f.accounts.FindByWallet(context.Background(), walletB)
	require.NoError(t, err)
	require.NotNil(t, referee.ReferredBy)
	assert.Equal(t, referrerA.ID, *referee.ReferredBy)
}

func TestValidateAndLink_LowercasesClaimedCode(t *testing.T) {
	f := newReferralFixture(t)

	referrer, err := f.svc.EnsureAccount(context.Background(), walletA)
	require.NoError(t, err)

	result, err := f.svc.ValidateAndLink(context.Background(), strings.ToLower(referrer.ReferralCode), walletB)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
