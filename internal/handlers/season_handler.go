package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/predyx/backend/internal/services/season"
)

// SeasonHandler handles season-related requests
type SeasonHandler struct {
	seasonSvc *season.Service
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(seasonSvc *season.Service) *SeasonHandler {
	return &SeasonHandler{seasonSvc: seasonSvc}
}

// StartSeasonRequest is the admin season rollover payload.
type StartSeasonRequest struct {
	Number   int       `json:"number" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

// Start rolls the competition over to a new season (admin only). The
// previous season is deactivated and all season points reset.
func (h *SeasonHandler) Start(c *gin.Context) {
	var req StartSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.seasonSvc.Start(c.Request.Context(), req.Number, req.StartsAt, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start season"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Active returns the currently running season.
func (h *SeasonHandler) Active(c *gin.Context) {
	active, err := h.seasonSvc.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active season"})
		return
	}

	c.JSON(http.StatusOK, active)
}
