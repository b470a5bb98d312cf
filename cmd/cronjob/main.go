package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"lendtrust-backend/internal/config"
	"lendtrust-backend/internal/jobs"
	"lendtrust-backend/internal/logger"
	"lendtrust-backend/internal/repository/postgres"
	"lendtrust-backend/internal/scheduler"
	"lendtrust-backend/internal/security"
	"lendtrust-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-due-soon-reminders', 'all-reminders')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LendTrust cronjob runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	sessionTTL := time.Duration(cfg.Session.ExpiryHours) * time.Hour
	sessions := security.NewSessionManager(cfg.Session.Secret, sessionTTL)
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	userSvc := service.NewUserService(store.UserRepository)
	activitySvc := service.NewActivityService(store.ActivityRepository)

	jobRunner := jobs.NewJobRunner(store.LendingRepository, store.ItemRepository, userSvc, activitySvc, emailSvc, sessions, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "send-due-soon-reminders":
		jobRunner.SendDueSoonReminders()
	case "send-overdue-reminders":
		jobRunner.SendOverdueReminders()
	case "purge-sessions":
		jobRunner.PurgeExpiredSessions()
	case "all-reminders":
		jobRunner.RunAllReminderJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-due-soon-reminders\n")
		fmt.Printf("  - send-overdue-reminders\n")
		fmt.Printf("  - purge-sessions\n")
		fmt.Printf("  - all-reminders\n")
		os.Exit(1)
	}
}
