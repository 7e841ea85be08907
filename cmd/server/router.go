package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf-coach/studycoach/internal/auth"
	"github.com/spf-coach/studycoach/internal/config"
	"github.com/spf-coach/studycoach/internal/progress"
	"github.com/spf-coach/studycoach/internal/questions"
	"github.com/spf-coach/studycoach/internal/sessions"
)

// newRouter builds the full handler stack over an already migrated database.
func newRouter(ctx context.Context, db *sql.DB, cfg config.Config) (http.Handler, error) {
	bank, err := questions.LoadBank(ctx, questions.NewStore(db))
	if err != nil {
		return nil, fmt.Errorf("load item bank: %w", err)
	}

	ledger := progress.NewLedger(progress.NewStore(db), bank)
	sessionService := sessions.NewService(sessions.NewStore(db))
	questionService := questions.NewService(bank, ledger, sessionService, questions.Config{
		BatchSize:    cfg.DrillBatchSize,
		SelectorWeak: cfg.SelectorWeakThreshold,
		SAQPassMark:  cfg.SAQPassMark,
	})

	progressHandler := progress.NewHandler(ledger, sessionService, progress.Thresholds{
		Dashboard: cfg.DashboardWeakThreshold,
		Review:    cfg.ReviewWeakThreshold,
	})
	sessionHandler := sessions.NewHandler(sessionService)
	questionHandler := questions.NewHandler(questionService)

	identity := auth.NewSessions([]byte(cfg.SessionSecret), cfg.SingleUser, cfg.SecureCookie).
		WithTTL(cfg.SessionTTL)

	// Setup router
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(identity.Middleware)

	api.HandleFunc("/session/me", auth.Me).Methods("GET")

	api.HandleFunc("/dashboard", progressHandler.Dashboard).Methods("GET")
	api.HandleFunc("/review", progressHandler.Review).Methods("GET")
	api.HandleFunc("/progress/{kind}/{id:[0-9]+}", progressHandler.ItemProgress).Methods("GET")

	api.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id:[0-9]+}/complete", sessionHandler.CompleteSession).Methods("POST")

	questionHandler.Register(api)

	var h http.Handler = cors.New(corsOptions(cfg.CORSOrigins)).Handler(r)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	h = handlers.CombinedLoggingHandler(os.Stdout, h)
	return h, nil
}

// corsOptions allows credentialed requests only from an explicit origin list.
// Credentials are off whenever origins include "*".
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}
	for _, o := range origins {
		if o == "*" {
			log.Printf("[startup] WARN: CORS_ORIGINS contains \"*\"; cross-origin requests will not carry the session cookie")
			opts.AllowCredentials = false
			break
		}
	}
	return opts
}
