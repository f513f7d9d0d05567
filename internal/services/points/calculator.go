package points

import (
	"errors"
	"math"

	"github.com/predyx/backend/internal/models"
)

// ErrNotSettled is returned when the calculator is handed a trade whose
// outcome is not final yet. Correct orchestration never does this.
var ErrNotSettled = errors.New("trade is not settled")

const breakEvenPoints = 5

// PointsForTrade maps a settled trade's profit or loss to a points
// value. Profitable trades earn 10 points per dollar of profit, a
// break-even trade earns a flat participation bonus, and a losing trade
// still earns 2 points per dollar lost. Pure: no store access.
func PointsForTrade(trade *models.Trade) (int64, error) {
	if !trade.IsSettled {
		return 0, ErrNotSettled
	}

	pnl := trade.ProfitLoss
	switch {
	case pnl > 0:
		return int64(math.Floor(pnl * 10)), nil
	case pnl == 0:
		return breakEvenPoints, nil
	default:
		return int64(math.Floor(math.Abs(pnl) * 2)), nil
	}
}
