package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/predyx/backend/internal/repository"
	"github.com/predyx/backend/internal/services/points"
	"github.com/predyx/backend/internal/services/referral"
	"github.com/predyx/backend/internal/services/season"
)

// PointsHandler handles points-related requests
type PointsHandler struct {
	ledger       *points.Service
	referralSvc  *referral.Service
	seasonSvc    *season.Service
	accounts     repository.AccountRepo
	transactions repository.TransactionRepo
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(ledger *points.Service, referralSvc *referral.Service, seasonSvc *season.Service, accounts repository.AccountRepo, transactions repository.TransactionRepo) *PointsHandler {
	return &PointsHandler{
		ledger:       ledger,
		referralSvc:  referralSvc,
		seasonSvc:    seasonSvc,
		accounts:     accounts,
		transactions: transactions,
	}
}

// AwardRequest is the admin award payload. SourceID must be unique to
// the real-world action so retried requests dedupe naturally.
type AwardRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	RuleKey       string `json:"rule_key" binding:"required"`
	SourceID      string `json:"source_id" binding:"required"`
	Evidence      string `json:"evidence"`
}

// Award grants points for a named action (admin only). Expected
// business outcomes (already awarded, cooldown, limit) come back as a
// 200 with awarded=false and a reason.
func (h *PointsHandler) Award(c *gin.Context) {
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.referralSvc.EnsureAccount(c.Request.Context(), req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	result, err := h.ledger.Award(c.Request.Context(), account.ID, req.RuleKey, req.SourceID, req.Evidence)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to award points"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me returns the caller's account balances and recent ledger lines.
func (h *PointsHandler) Me(c *gin.Context) {
	wallet := c.GetString("wallet_address")
	if wallet == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.referralSvc.EnsureAccount(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	transactions, err := h.transactions.ListByAccount(c.Request.Context(), account.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":      account,
		"transactions": transactions,
	})
}

// Leaderboard returns the current season's ranking.
func (h *PointsHandler) Leaderboard(c *gin.Context) {
	limit := 25
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	active, err := h.seasonSvc.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active season"})
		return
	}

	accounts, err := h.accounts.SeasonLeaderboard(c.Request.Context(), active.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"season":   active,
		"accounts": accounts,
	})
}
