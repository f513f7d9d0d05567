package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"

	"github.com/predyx/backend/internal/audit"
	"github.com/predyx/backend/internal/config"
	"github.com/predyx/backend/internal/database"
	"github.com/predyx/backend/internal/handlers"
	"github.com/predyx/backend/internal/jobs"
	"github.com/predyx/backend/internal/middleware"
	"github.com/predyx/backend/internal/repository"
	"github.com/predyx/backend/internal/routes"
	"github.com/predyx/backend/internal/services/points"
	"github.com/predyx/backend/internal/services/referral"
	"github.com/predyx/backend/internal/services/season"
)

func main() {
	// Initialize configuration (loads .env when present)
	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis is optional: without it the rate limiter degrades to
	// per-process token buckets.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Printf("Redis unavailable, falling back to local rate limiting: %v", err)
			redisClient = nil
		}
	}

	// Wire repositories and services
	store := repository.NewStore(db)
	recorder := audit.NewLogger(db)

	codeGen := referral.NewCodeGenerator(store.Accounts, cfg.Points.ReferralCodeLength)
	referralSvc := referral.NewService(store.Accounts, store.Referrals, codeGen, recorder)
	bonusCalc := referral.NewBonusCalculator(store.Referrals, cfg.Points.BonusTiers)
	ledger := points.NewService(store.Accounts, store.Points, store.Seasons, recorder)
	seasonSvc := season.NewService(store.Seasons, store.Accounts, recorder)
	settlementJob := jobs.NewSettlementJob(store, ledger, referralSvc, bonusCalc, recorder)

	// Initialize handlers
	pointsHandler := handlers.NewPointsHandler(ledger, referralSvc, seasonSvc, store.Accounts, store.Transactions)
	referralHandler := handlers.NewReferralHandler(referralSvc)
	seasonHandler := handlers.NewSeasonHandler(seasonSvc)
	cronHandler := handlers.NewCronHandler(settlementJob)

	rateLimiter := middleware.NewRateLimiter(redisClient, 60, time.Minute)
	defer rateLimiter.Stop()

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, cfg, pointsHandler, referralHandler, seasonHandler, cronHandler, rateLimiter)

	// Schedule the settlement batch. Overlapping runs are tolerated by
	// the idempotency keys, so no singleton mode is needed.
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(cfg.Cron.IntervalMinutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := settlementJob.ProcessSettledPositions(ctx); err != nil {
			log.Printf("Scheduled settlement batch failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule settlement batch: %v", err)
	}
	scheduler.StartAsync()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
