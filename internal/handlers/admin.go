package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/emberclash/api/internal/admin"
	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/middleware"
	"github.com/emberclash/api/internal/player"
)

// AdminHandler exposes the restricted maintenance surface. Every endpoint
// re-checks the caller against the injected policy before mutating shared
// state, since these operations bypass normal gameplay invariants.
type AdminHandler struct {
	policy  *admin.Policy
	board   *leaderboard.Service
	ledger  *player.Ledger
	avatars *avatar.Resolver
}

func NewAdminHandler(policy *admin.Policy, board *leaderboard.Service, ledger *player.Ledger, avatars *avatar.Resolver) *AdminHandler {
	return &AdminHandler{policy: policy, board: board, ledger: ledger, avatars: avatars}
}

// SeedRequest represents the synthetic entries to create
type SeedRequest struct {
	Entries []SeedEntry `json:"entries"`
}

// SeedEntry is one synthetic leaderboard entry
type SeedEntry struct {
	Username   string `json:"username"`
	Level      int    `json:"level"`
	BattlesWon int    `json:"battles_won"`
	Score      int64  `json:"score"`
}

// TeardownRequest lists synthetic usernames to remove
type TeardownRequest struct {
	Usernames []string `json:"usernames"`
}

// ResetUserRequest names the player to reset
type ResetUserRequest struct {
	Username       string `json:"username"`
	PreserveAvatar bool   `json:"preserve_avatar"`
}

// authorize rejects callers not on the allow-list. Returns the caller's
// username when allowed.
func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := middleware.CurrentUsername(r)
	if username == "" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Unauthorized"})
		return "", false
	}
	if !h.policy.Allows(username) {
		log.Printf("[Admin] Denied %s", username)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Administrative access required"})
		return "", false
	}
	return username, true
}

// ListEntries returns the raw score index.
func (h *AdminHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, ok := h.authorize(w, r); !ok {
		return
	}

	entries, err := h.board.Entries(r.Context())
	if err != nil {
		log.Printf("[Admin] Failed to list entries: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list entries"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

// WipeLeaderboard clears the full index and all win counters.
func (h *AdminHandler) WipeLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	caller, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.board.Wipe(r.Context()); err != nil {
		log.Printf("[Admin] Failed to wipe leaderboard: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to wipe leaderboard"})
		return
	}

	log.Printf("[Admin] %s wiped the leaderboard", caller)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Leaderboard wiped"})
}

// SeedEntries creates synthetic player records and index entries for testing
// and demos.
func (h *AdminHandler) SeedEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	caller, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req SeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Entries) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "At least one entry is required"})
		return
	}

	for _, entry := range req.Entries {
		if entry.Username == "" {
			continue
		}
		level := entry.Level
		if level < 1 {
			level = 1
		}
		if _, err := h.ledger.GetOrCreate(r.Context(), entry.Username, h.avatars.AvatarFor(entry.Username)); err != nil {
			log.Printf("[Admin] Failed to create synthetic player %s: %v", entry.Username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to seed entries"})
			return
		}
		if _, err := h.ledger.Update(r.Context(), entry.Username, player.StatsPatch{Level: &level}); err != nil {
			log.Printf("[Admin] Failed to level synthetic player %s: %v", entry.Username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to seed entries"})
			return
		}
		if err := h.board.Seed(r.Context(), entry.Username, entry.Score, entry.BattlesWon); err != nil {
			log.Printf("[Admin] Failed to seed index entry %s: %v", entry.Username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to seed entries"})
			return
		}
	}

	log.Printf("[Admin] %s seeded %d synthetic entries", caller, len(req.Entries))
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"message": "Entries seeded", "count": len(req.Entries)})
}

// TeardownEntries removes synthetic entries and their player records.
func (h *AdminHandler) TeardownEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	caller, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req TeardownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Usernames) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "At least one username is required"})
		return
	}

	if err := h.board.Remove(r.Context(), req.Usernames...); err != nil {
		log.Printf("[Admin] Failed to remove index entries: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to remove entries"})
		return
	}
	for _, username := range req.Usernames {
		if err := h.ledger.Delete(r.Context(), username); err != nil {
			log.Printf("[Admin] Failed to delete player %s: %v", username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to remove entries"})
			return
		}
	}

	log.Printf("[Admin] %s tore down %d entries", caller, len(req.Usernames))
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"message": "Entries removed", "count": len(req.Usernames)})
}

// ResetUser resets one player's stats to defaults.
func (h *AdminHandler) ResetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	caller, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req ResetUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "username is required"})
		return
	}

	p, err := h.ledger.Reset(r.Context(), req.Username, req.PreserveAvatar)
	if errors.Is(err, player.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "No player record for this username"})
		return
	}
	if err != nil {
		log.Printf("[Admin] Failed to reset %s: %v", req.Username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to reset player"})
		return
	}

	log.Printf("[Admin] %s reset player %s", caller, req.Username)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(p)
}

// ResetAll resets every indexed player to default stats and reseeds their
// index entries.
func (h *AdminHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	caller, ok := h.authorize(w, r)
	if !ok {
		return
	}

	usernames, err := h.board.IndexedUsernames(r.Context())
	if err != nil {
		log.Printf("[Admin] Failed to list indexed users: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to reset players"})
		return
	}

	count := 0
	for _, username := range usernames {
		if _, err := h.ledger.Reset(r.Context(), username, true); err != nil {
			if errors.Is(err, player.ErrNotFound) {
				// Stale index entry; nothing to reset.
				continue
			}
			log.Printf("[Admin] Failed to reset %s: %v", username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to reset players"})
			return
		}
		if err := h.board.Seed(r.Context(), username, int64(player.DefaultLevel*100), 0); err != nil {
			log.Printf("[Admin] Failed to reseed %s: %v", username, err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to reset players"})
			return
		}
		count++
	}

	log.Printf("[Admin] %s bulk-reset %d players", caller, count)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"message": "Players reset", "count": count})
}
