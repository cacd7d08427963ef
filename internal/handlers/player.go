package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/middleware"
	"github.com/emberclash/api/internal/player"
)

type PlayerHandler struct {
	ledger  *player.Ledger
	avatars *avatar.Resolver
}

func NewPlayerHandler(ledger *player.Ledger, avatars *avatar.Resolver) *PlayerHandler {
	return &PlayerHandler{ledger: ledger, avatars: avatars}
}

// GetPlayer returns the caller's character record, creating it with default
// stats on first access.
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.ledger.GetOrCreate(r.Context(), username, h.avatars.AvatarFor(username))
	if err != nil {
		log.Printf("[Player] Failed to load %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load player"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(p)
}

// UpdatePlayer merges the supplied stats fields into the caller's record.
func (h *PlayerHandler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
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

	var patch player.StatsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}

	p, err := h.ledger.Update(r.Context(), username, patch)
	if errors.Is(err, player.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "No player record for this user"})
		return
	}
	if err != nil {
		log.Printf("[Player] Failed to update %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to update player"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(p)
}

// ResetPlayer overwrites the caller's stats with defaults. The avatar is
// preserved unless preserve_avatar=false is passed.
func (h *PlayerHandler) ResetPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	preserveAvatar := r.URL.Query().Get("preserve_avatar") != "false"

	p, err := h.ledger.Reset(r.Context(), username, preserveAvatar)
	if errors.Is(err, player.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "No player record for this user"})
		return
	}
	if err != nil {
		log.Printf("[Player] Failed to reset %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to reset player"})
		return
	}

	log.Printf("[Player] Reset %s (preserve avatar: %t)", username, preserveAvatar)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(p)
}
