package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/middleware"
)

type LeaderboardHandler struct {
	board *leaderboard.Service
}

func NewLeaderboardHandler(board *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// GetLeaderboard returns the ranked view for the caller. Indexed entries with
// no player record are skipped server-side; the response still succeeds.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	username := middleware.CurrentUsername(r)
	if username == "" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Unauthorized"})
		return
	}

	list, err := h.board.Query(r.Context(), username)
	if err != nil {
		log.Printf("[Leaderboard] Query failed for %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load leaderboard"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(list)
}
