package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
	"github.com/predyx/backend/internal/repository/fakes"
	"github.com/predyx/backend/internal/services/points"
	"github.com/predyx/backend/internal/services/referral"
	"github.com/predyx/backend/internal/services/season"
)

const (
	referrerWallet = "0xaaaa111111111111111111111111111111111111"
	refereeWallet  = "0xbbbb222222222222222222222222222222222222"
	loneWallet     = "0xcccc333333333333333333333333333333333333"
)

type batchFixture struct {
	job          *SettlementJob
	referralSvc  *referral.Service
	accounts     *fakes.Accounts
	pointsRepo   *fakes.Points
	trades       *fakes.Trades
	referrals    *fakes.Referrals
	seasons      *fakes.Seasons
	transactions *fakes.Transactions
	season       *models.Season
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()

	f := &batchFixture{
		accounts:     fakes.NewAccounts(),
		pointsRepo:   fakes.NewPoints(),
		trades:       fakes.NewTrades(),
		referrals:    fakes.NewReferrals(),
		seasons:      fakes.NewSeasons(),
		transactions: fakes.NewTransactions(),
	}
	f.pointsRepo.AddRule(models.PointRule{Key: points.RuleTradeSettled, IsActive: true})
	f.pointsRepo.AddRule(models.PointRule{Key: points.RuleReferralBonus, IsActive: true})

	store := &repository.Store{
		Accounts:     f.accounts,
		Points:       f.pointsRepo,
		Trades:       f.trades,
		Referrals:    f.referrals,
		Seasons:      f.seasons,
		Transactions: f.transactions,
	}

	ledger := points.NewService(f.accounts, f.pointsRepo, f.seasons, nil)
	gen := referral.NewCodeGenerator(f.accounts, 6)
	f.referralSvc = referral.NewService(f.accounts, f.referrals, gen, nil)
	bonusCalc := referral.NewBonusCalculator(f.referrals, nil)
	f.job = NewSettlementJob(store, ledger, f.referralSvc, bonusCalc, nil)

	return f
}

func (f *batchFixture) startSeason(t *testing.T) {
	t.Helper()
	seasonSvc := season.NewService(f.seasons, f.accounts, nil)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s, err := seasonSvc.Start(context.Background(), 1, start, start.AddDate(0, 3, 0))
	require.NoError(t, err)
	f.season = s
}

// linkReferral claims the referrer's code for the referee and returns
// both accounts.
func (f *batchFixture) linkReferral(t *testing.T) (*models.Account, *models.Account) {
	t.Helper()
	referrer, err := f.referralSvc.EnsureAccount(context.Background(), referrerWallet)
	require.NoError(t, err)
	result, err := f.referralSvc.ValidateAndLink(context.Background(), referrer.ReferralCode, refereeWallet)
	require.NoError(t, err)
	require.True(t, result.Valid)
	referee, err := f.accounts.FindByWallet(context.Background(), refereeWallet)
	require.NoError(t, err)
	return referrer, referee
}

func (f *batchFixture) addSettledTrade(wallet string, pnl float64) uuid.UUID {
	settled := time.Now()
	return f.trades.Add(models.Trade{
		WalletAddress: wallet,
		MarketID:      "market-1",
		ProfitLoss:    pnl,
		IsSettled:     true,
		SettledAt:     &settled,
	})
}

func TestProcessSettledPositions_FirstTradeAwardsAndActivates(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)
	referrer, referee := f.linkReferral(t)

	tradeID := f.addSettledTrade(refereeWallet, 50.0)

	result, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, int64(500), result.PointsAwarded)
	assert.Equal(t, int64(50), result.ReferralBonusesAwarded)
	assert.Empty(t, result.Errors)

	// Referee earned floor(50 * 10) = 500 trade points
	reloadedReferee, err := f.accounts.FindByID(context.Background(), referee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), reloadedReferee.TotalPoints)
	assert.Equal(t, int64(500), reloadedReferee.SeasonPoints)

	// Referrer earned floor(500 * 0.10) = 50 and gained an active referral
	reloadedReferrer, err := f.accounts.FindByID(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), reloadedReferrer.TotalPoints)
	assert.Equal(t, 1, reloadedReferrer.ActiveReferrals)

	// The edge is active with the trade counted
	edge, err := f.referrals.FindByReferee(context.Background(), referee.ID)
	require.NoError(t, err)
	assert.True(t, edge.IsActive)
	require.NotNil(t, edge.FirstTradeAt)
	assert.Equal(t, 1, edge.TradeCount)
	assert.Equal(t, int64(500), edge.PointsGenerated)

	// One TRADE and one REFERRAL_BONUS row, attributed to the season
	rows := f.transactions.All()
	require.Len(t, rows, 2)
	byType := map[models.TransactionType]models.PointTransaction{}
	for _, row := range rows {
		byType[row.Type] = row
	}
	tradeRow := byType[models.TransactionTypeTrade]
	assert.Equal(t, referee.ID, tradeRow.AccountID)
	assert.Equal(t, int64(500), tradeRow.Amount)
	require.NotNil(t, tradeRow.SeasonID)
	assert.Equal(t, f.season.ID, *tradeRow.SeasonID)
	bonusRow := byType[models.TransactionTypeReferralBonus]
	assert.Equal(t, referrer.ID, bonusRow.AccountID)
	assert.Equal(t, int64(50), bonusRow.Amount)

	assert.True(t, f.trades.Get(tradeID).PointsProcessed)
}

func TestProcessSettledPositions_SecondRunIsNoop(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)
	_, referee := f.linkReferral(t)
	f.addSettledTrade(refereeWallet, 50.0)

	_, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)

	second, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.ProcessedCount)
	assert.Equal(t, int64(0), second.PointsAwarded)
	assert.Equal(t, int64(0), second.ReferralBonusesAwarded)

	reloaded, err := f.accounts.FindByID(context.Background(), referee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), reloaded.TotalPoints)
}

func TestProcessSettledPositions_BreakEvenAndLoss(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)

	breakEvenID := f.addSettledTrade(loneWallet, 0)
	lossID := f.addSettledTrade(refereeWallet, -4.0)

	result, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, int64(13), result.PointsAwarded, "5 break-even plus floor(4 * 2) = 8 consolation")
	assert.Equal(t, int64(0), result.ReferralBonusesAwarded)
	assert.True(t, f.trades.Get(breakEvenID).PointsProcessed)
	assert.True(t, f.trades.Get(lossID).PointsProcessed)
}

func TestProcessSettledPositions_NoReferralMeansNoBonus(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)

	f.addSettledTrade(loneWallet, 10.0)

	result, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, int64(100), result.PointsAwarded)
	assert.Equal(t, int64(0), result.ReferralBonusesAwarded)

	account, err := f.accounts.FindByWallet(context.Background(), loneWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.TotalPoints)
}

func TestProcessSettledPositions_ErrorIsolation(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)

	badID := f.addSettledTrade("not-a-wallet", 25.0)
	goodID := f.addSettledTrade(loneWallet, 25.0)

	result, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, int64(250), result.PointsAwarded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, badID, result.Errors[0].TradeID)

	// The failed trade stays unprocessed for the next run
	assert.False(t, f.trades.Get(badID).PointsProcessed)
	assert.True(t, f.trades.Get(goodID).PointsProcessed)
}

func TestProcessSettledPositions_AbortsWithoutActiveSeason(t *testing.T) {
	f := newBatchFixture(t)
	tradeID := f.addSettledTrade(loneWallet, 25.0)

	result, err := f.job.ProcessSettledPositions(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	require.Len(t, result.Errors, 1)
	assert.False(t, f.trades.Get(tradeID).PointsProcessed)
}

func TestProcessSettledPositions_SubsequentTradeCountsWithoutReactivation(t *testing.T) {
	f := newBatchFixture(t)
	f.startSeason(t)
	referrer, referee := f.linkReferral(t)

	f.addSettledTrade(refereeWallet, 10.0)
	_, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)

	f.addSettledTrade(refereeWallet, 20.0)
	result, err := f.job.ProcessSettledPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, int64(200), result.PointsAwarded)
	assert.Equal(t, int64(20), result.ReferralBonusesAwarded)

	reloadedReferrer, err := f.accounts.FindByID(context.Background(), referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloadedReferrer.ActiveReferrals, "activation happens once")
	assert.Equal(t, int64(10+20), reloadedReferrer.TotalPoints)

	edge, err := f.referrals.FindByReferee(context.Background(), referee.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, edge.TradeCount)
	assert.Equal(t, int64(100+200), edge.PointsGenerated)
}
