package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "lendtrust-backend/internal/api/http"
	"lendtrust-backend/internal/config"
	"lendtrust-backend/internal/jobs"
	"lendtrust-backend/internal/logger"
	"lendtrust-backend/internal/repository"
	"lendtrust-backend/internal/repository/memory"
	"lendtrust-backend/internal/repository/postgres"
	"lendtrust-backend/internal/scheduler"
	"lendtrust-backend/internal/security"
	"lendtrust-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LendTrust backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	var (
		userRepo     repository.UserRepository
		itemRepo     repository.ItemRepository
		lendingRepo  repository.LendingRepository
		activityRepo repository.ActivityRepository
	)

	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory store")
		store := memory.NewStore()
		userRepo = store.UserRepository
		itemRepo = store.ItemRepository
		lendingRepo = store.LendingRepository
		activityRepo = store.ActivityRepository
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")
		store := postgres.NewStore(db)
		userRepo = store.UserRepository
		itemRepo = store.ItemRepository
		lendingRepo = store.LendingRepository
		activityRepo = store.ActivityRepository
	}

	sessionTTL := time.Duration(cfg.Session.ExpiryHours) * time.Hour
	sessions := security.NewSessionManager(cfg.Session.Secret, sessionTTL)

	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	authSvc := service.NewAuthService(userRepo, sessions)
	userSvc := service.NewUserService(userRepo)
	itemSvc := service.NewItemService(itemRepo)
	activitySvc := service.NewActivityService(activityRepo)
	lendingSvc := service.NewLendingService(lendingRepo, itemRepo, userSvc, itemSvc, activitySvc, emailSvc)

	router := httpapi.NewRouter(httpapi.Services{
		Auth:     authSvc,
		Users:    userSvc,
		Items:    itemSvc,
		Lendings: lendingSvc,
		Activity: activitySvc,
	}, sessionTTL)

	if cfg.Scheduler.Enabled {
		jobRunner := jobs.NewJobRunner(lendingRepo, itemRepo, userSvc, activitySvc, emailSvc, sessions, cfg)
		sched := scheduler.NewScheduler(jobRunner)
		sched.Start()
		defer sched.Stop()
	}

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")
	if err := server.Close(); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}
