package questions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf-coach/studycoach/internal/auth"
	"github.com/spf-coach/studycoach/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the drill, practice and cheats routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/drill/mcq", h.MCQDrill).Methods("GET")
	r.HandleFunc("/drill/mcq/answer", h.SubmitMCQ).Methods("POST")
	r.HandleFunc("/practice/saq", h.SAQPractice).Methods("GET")
	r.HandleFunc("/practice/saq/grade", h.GradeKeywords).Methods("POST")
	r.HandleFunc("/practice/saq/{id:[0-9]+}/grade", h.GradeSAQ).Methods("POST")
	r.HandleFunc("/cheats", h.Cheats).Methods("GET")
	r.HandleFunc("/topics", h.Topics).Methods("GET")
}

func (h *Handler) MCQDrill(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	count := intQueryParam(r.URL.Query(), "count", 0)

	resp, err := h.service.MCQDrill(r.Context(), userID, count)
	if err != nil {
		log.Printf("[handler] MCQDrill error: %v", err)
		writeError(w, err, "Failed to build drill")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SubmitMCQ(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	var req models.SubmitMCQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.SubmitMCQ(r.Context(), userID, req)
	if err != nil {
		log.Printf("[handler] SubmitMCQ error: %v", err)
		writeError(w, err, "Failed to submit answer")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SAQPractice(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	resp, err := h.service.SAQPractice(r.Context(), userID)
	if err != nil {
		log.Printf("[handler] SAQPractice error: %v", err)
		writeError(w, err, "Failed to load scenario")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GradeSAQ(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid scenario ID"})
		return
	}

	var req models.GradeSAQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.GradeSAQ(r.Context(), userID, id, req.Answer)
	if err != nil {
		log.Printf("[handler] GradeSAQ error: %v", err)
		writeError(w, err, "Failed to grade answer")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GradeKeywords grades against keywords sent by the client. Nothing is recorded.
func (h *Handler) GradeKeywords(w http.ResponseWriter, r *http.Request) {
	var req models.GradeSAQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.GradeKeywords(req.Answer, req.Keywords)
	if err != nil {
		writeError(w, err, "Failed to grade answer")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Cheats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Cheats(r.URL.Query().Get("topic")))
}

func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Topics())
}

// ── Helpers ─────────────────────────────────────────────

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

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
