package points

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/backend/internal/models"
)

func settledTrade(pnl float64) *models.Trade {
	return &models.Trade{ProfitLoss: pnl, IsSettled: true}
}

func TestPointsForTrade_Profit(t *testing.T) {
	pts, err := PointsForTrade(settledTrade(12.30))
	require.NoError(t, err)
	assert.Equal(t, int64(123), pts)

	pts, err = PointsForTrade(settledTrade(50))
	require.NoError(t, err)
	assert.Equal(t, int64(500), pts)

	// Fractional cents floor down
	pts, err = PointsForTrade(settledTrade(0.07))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pts)
}

func TestPointsForTrade_BreakEven(t *testing.T) {
	pts, err := PointsForTrade(settledTrade(0))
	require.NoError(t, err)
	assert.Equal(t, int64(5), pts)
}

func TestPointsForTrade_Loss(t *testing.T) {
	pts, err := PointsForTrade(settledTrade(-4.00))
	require.NoError(t, err)
	assert.Equal(t, int64(8), pts)

	pts, err = PointsForTrade(settledTrade(-0.30))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pts)
}

func TestPointsForTrade_NotSettled(t *testing.T) {
	_, err := PointsForTrade(&models.Trade{ProfitLoss: 10, IsSettled: false})
	assert.ErrorIs(t, err, ErrNotSettled)
}
