package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/predyx/backend/internal/config"
	"github.com/predyx/backend/internal/handlers"
	"github.com/predyx/backend/internal/middleware"
)

// SetupRoutes wires all API routes onto the router.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	pointsHandler *handlers.PointsHandler,
	referralHandler *handlers.ReferralHandler,
	seasonHandler *handlers.SeasonHandler,
	cronHandler *handlers.CronHandler,
	rateLimiter *middleware.RateLimiter,
) {
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public, rate limited
	publicGroup := router.Group("/api")
	publicGroup.Use(rateLimiter.Middleware())
	{
		publicGroup.GET("/points/leaderboard", pointsHandler.Leaderboard)
		publicGroup.GET("/seasons/active", seasonHandler.Active)
	}

	// Wallet-session routes
	userGroup := router.Group("/api")
	userGroup.Use(middleware.AuthMiddleware(), rateLimiter.Middleware())
	{
		userGroup.GET("/points/me", pointsHandler.Me)
		userGroup.GET("/referral/me", referralHandler.Me)
		userGroup.POST("/referral/claim", referralHandler.Claim)
	}

	// Admin routes
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.POST("/points/award", pointsHandler.Award)
		adminGroup.POST("/seasons", seasonHandler.Start)
	}

	// External scheduler trigger, shared-secret authenticated
	cronGroup := router.Group("/api/cron")
	cronGroup.Use(middleware.CronAuthMiddleware(cfg.Cron.Secret))
	{
		cronGroup.POST("/process-settlements", cronHandler.ProcessSettlements)
	}
}
