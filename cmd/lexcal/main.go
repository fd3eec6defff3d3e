package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwhitlock/lexcal/internal/backup"
	"github.com/mwhitlock/lexcal/internal/database"
	"github.com/mwhitlock/lexcal/internal/logging"
	"github.com/mwhitlock/lexcal/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("LEXCAL_LOG_LEVEL"))

	port := os.Getenv("LEXCAL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("LEXCAL_DB_PATH")
	if dbPath == "" {
		dbPath = "lexcal.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("LEXCAL_S3_ENDPOINT"),
			Bucket:    os.Getenv("LEXCAL_S3_BUCKET"),
			Region:    os.Getenv("LEXCAL_S3_REGION"),
			AccessKey: os.Getenv("LEXCAL_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("LEXCAL_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("LEXCAL_BACKUP_PASSPHRASE"),
	}

	pushCfg := server.PushConfig{
		VAPIDPublicKey:  os.Getenv("LEXCAL_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("LEXCAL_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, backupCfg, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
	}

	// Hourly housekeeping: expired sessions and stale rate limit buckets.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("delete expired sessions", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("lexcal listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	srv.BackupManager().Stop()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
