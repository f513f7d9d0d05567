package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/predyx/backend/internal/services/referral"
)

// ReferralHandler handles referral-related requests
type ReferralHandler struct {
	referralSvc *referral.Service
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralSvc *referral.Service) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

// ClaimRequest is the referral claim payload.
type ClaimRequest struct {
	Code string `json:"code" binding:"required"`
}

// Claim validates a referral code for the authenticated wallet and
// links the relationship. Validation rejections are 200s carrying
// valid=false and a reason, for direct rendering by the mini-app.
func (h *ReferralHandler) Claim(c *gin.Context) {
	wallet := c.GetString("wallet_address")
	if wallet == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.referralSvc.ValidateAndLink(c.Request.Context(), req.Code, wallet)
	if err != nil {
		if errors.Is(err, referral.ErrGenerationExhausted) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "referral codes unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process referral claim"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me returns the caller's referral code and standing.
func (h *ReferralHandler) Me(c *gin.Context) {
	wallet := c.GetString("wallet_address")
	if wallet == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, stats, err := h.referralSvc.Stats(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load referral stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":    account.ReferralCode,
		"active_referrals": account.ActiveReferrals,
		"stats":            stats,
	})
}
