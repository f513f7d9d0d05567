package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/predyx/backend/internal/jobs"
)

// CronHandler exposes the settlement batch to the external scheduler.
// Authentication happens in CronAuthMiddleware; by the time a request
// lands here it carries the shared secret.
type CronHandler struct {
	settlementJob *jobs.SettlementJob
}

// NewCronHandler creates a new cron handler
func NewCronHandler(settlementJob *jobs.SettlementJob) *CronHandler {
	return &CronHandler{settlementJob: settlementJob}
}

// ProcessSettlements runs one settlement batch pass and returns the
// partial-success summary. A fatal abort (no active season, store down)
// is a 500 with whatever the run managed to record.
func (h *CronHandler) ProcessSettlements(c *gin.Context) {
	result, err := h.settlementJob.ProcessSettledPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
