package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf-coach/studycoach/internal/config"
	"github.com/spf-coach/studycoach/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[startup] no .env file loaded: %v", err)
	}
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	driver := database.Driver(cfg.DBDriver)
	db, err := database.Connect(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("[startup] failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, driver); err != nil {
		log.Fatalf("[startup] failed to run migrations: %v", err)
	}

	if cfg.SeedOnStart {
		counts, err := database.Seed(ctx, db)
		if err != nil {
			log.Fatalf("[startup] failed to seed content: %v", err)
		}
		if counts.Topics > 0 {
			log.Printf("[startup] seeded %d topics, %d mcq, %d saq, %d flashcards",
				counts.Topics, counts.MCQ, counts.SAQ, counts.Flashcards)
		}
	}

	handler, err := newRouter(ctx, db, cfg)
	if err != nil {
		log.Fatalf("[startup] %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[startup] server listening on :%s (driver=%s singleUser=%v)", cfg.Port, cfg.DBDriver, cfg.SingleUser)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[startup] server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[shutdown] signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[shutdown] WARN: forced shutdown: %v", err)
	}
	log.Printf("[shutdown] stopped")
}
