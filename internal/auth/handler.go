package auth

import (
	"encoding/json"
	"net/http"

	"github.com/spf-coach/studycoach/internal/models"
)

// Me reports the id the current request is attributed to.
func Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "No session"})
		return
	}
	writeJSON(w, http.StatusOK, models.SessionUser{UserID: userID})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
