package progress

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf-coach/studycoach/internal/auth"
	"github.com/spf-coach/studycoach/internal/models"
)

// SessionSummaries supplies the streak panel shown on the dashboard.
type SessionSummaries interface {
	Summary(ctx context.Context, userID string, limit int) (*models.SessionSummary, error)
}

type Thresholds struct {
	Dashboard float64
	Review    float64
}

type Handler struct {
	ledger     *Ledger
	sessions   SessionSummaries
	thresholds Thresholds
}

func NewHandler(ledger *Ledger, sessions SessionSummaries, thresholds Thresholds) *Handler {
	return &Handler{ledger: ledger, sessions: sessions, thresholds: thresholds}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	topics, err := h.ledger.WeakTopics(r.Context(), userID, h.thresholds.Dashboard)
	if err != nil {
		log.Printf("[handler] Dashboard error: %v", err)
		writeError(w, err, "Failed to load weak topics")
		return
	}

	resp := models.DashboardResponse{WeakTopics: topics, Threshold: h.thresholds.Dashboard}
	if h.sessions != nil {
		summary, err := h.sessions.Summary(r.Context(), userID, 5)
		if err != nil {
			// The weak-topic list is still useful without the streak panel.
			log.Printf("[handler] WARN: dashboard session summary: %v", err)
		} else {
			resp.Sessions = summary
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	items, err := h.ledger.WeakItems(r.Context(), userID, h.thresholds.Review)
	if err != nil {
		log.Printf("[handler] Review error: %v", err)
		writeError(w, err, "Failed to load review items")
		return
	}

	writeJSON(w, http.StatusOK, models.ReviewResponse{WeakItems: items, Threshold: h.thresholds.Review})
}

func (h *Handler) ItemProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	vars := mux.Vars(r)
	kind := models.ItemKind(vars["kind"])
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid item ID"})
		return
	}

	rec, err := h.ledger.Record(r.Context(), userID, kind, id)
	if err != nil {
		writeError(w, err, "Failed to load progress")
		return
	}

	resp := models.AccuracyResponse{Kind: kind, ItemID: id}
	if rec != nil {
		resp.Attempts = rec.Attempts()
		resp.Box = rec.Box
		if acc, ok := rec.Accuracy(); ok {
			resp.Accuracy = &acc
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrStorageUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Storage unavailable, try again"})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
