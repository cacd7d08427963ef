package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/battle"
	"github.com/emberclash/api/internal/middleware"
	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
)

type BattleHandler struct {
	engine  *battle.Engine
	gen     *battle.Generator
	ledger  *player.Ledger
	avatars *avatar.Resolver
}

func NewBattleHandler(engine *battle.Engine, gen *battle.Generator, ledger *player.Ledger, avatars *avatar.Resolver) *BattleHandler {
	return &BattleHandler{engine: engine, gen: gen, ledger: ledger, avatars: avatars}
}

// StartBattleRequest represents the request body for starting a battle
type StartBattleRequest struct {
	Difficulty models.Difficulty `json:"difficulty"`
}

// ActionRequest represents the request body for submitting a combat action
type ActionRequest struct {
	BattleID string        `json:"battle_id"`
	Action   models.Action `json:"action"`
}

// EnemyTurnRequest represents the request body for advancing the enemy turn
type EnemyTurnRequest struct {
	BattleID string `json:"battle_id"`
}

// PreviewResponse pairs a generated enemy with its expected payout
type PreviewResponse struct {
	Enemy           *models.Character      `json:"enemy"`
	ExpectedRewards models.ExpectedRewards `json:"expected_rewards"`
}

// StartBattle creates a new battle for the caller at the requested difficulty.
func (h *BattleHandler) StartBattle(w http.ResponseWriter, r *http.Request) {
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

	var req StartBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}

	if !models.IsValidDifficulty(req.Difficulty) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Difficulty must be easy, medium, or hard"})
		return
	}

	p, err := h.ledger.GetOrCreate(r.Context(), username, h.avatars.AvatarFor(username))
	if err != nil {
		log.Printf("[Battle] Failed to load player %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load player"})
		return
	}

	b, err := h.engine.Start(r.Context(), p, req.Difficulty)
	if errors.Is(err, battle.ErrGenerationFailed) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to generate an opponent"})
		return
	}
	if err != nil {
		log.Printf("[Battle] Failed to start battle for %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to start battle"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

// PreviewOpponent generates a prospective enemy without starting a battle.
// Each call with reroll=true is a fresh draw at the same difficulty.
func (h *BattleHandler) PreviewOpponent(w http.ResponseWriter, r *http.Request) {
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

	difficulty := models.Difficulty(r.URL.Query().Get("difficulty"))
	if !models.IsValidDifficulty(difficulty) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Difficulty must be easy, medium, or hard"})
		return
	}
	reroll := r.URL.Query().Get("reroll") == "true"

	p, err := h.ledger.GetOrCreate(r.Context(), username, h.avatars.AvatarFor(username))
	if err != nil {
		log.Printf("[Battle] Failed to load player %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load player"})
		return
	}

	enemy, err := h.gen.Generate(r.Context(), p, difficulty, reroll)
	if err != nil {
		log.Printf("[Battle] Failed to generate preview for %s: %v", username, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to generate an opponent"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(PreviewResponse{
		Enemy:           enemy,
		ExpectedRewards: battle.ExpectedRewards(enemy.Stats.Level, difficulty),
	})
}

// SubmitAction resolves one player action against an active battle.
func (h *BattleHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
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

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.BattleID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "battle_id is required"})
		return
	}
	if !models.IsValidAction(req.Action) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Action must be attack, defend, special, or heal"})
		return
	}

	if !h.ownsBattle(w, r, req.BattleID, username) {
		return
	}

	result, err := h.engine.SubmitPlayerAction(r.Context(), req.BattleID, req.Action)
	if h.writeBattleError(w, err, username) {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// AdvanceEnemyTurn resolves one automated enemy action. Kept as a separate
// call so clients can pace animation between the two halves of a round.
func (h *BattleHandler) AdvanceEnemyTurn(w http.ResponseWriter, r *http.Request) {
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

	var req EnemyTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.BattleID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "battle_id is required"})
		return
	}

	if !h.ownsBattle(w, r, req.BattleID, username) {
		return
	}

	result, err := h.engine.AdvanceEnemyTurn(r.Context(), req.BattleID)
	if h.writeBattleError(w, err, username) {
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// ownsBattle verifies the battle exists and belongs to the caller. Battles
// belonging to other players read as not found.
func (h *BattleHandler) ownsBattle(w http.ResponseWriter, r *http.Request, battleID, username string) bool {
	b, err := h.engine.Get(r.Context(), battleID)
	if errors.Is(err, battle.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Battle not found"})
		return false
	}
	if err != nil {
		log.Printf("[Battle] Failed to load battle %s: %v", battleID, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load battle"})
		return false
	}
	if b.Player.Username != username {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Battle not found"})
		return false
	}
	return true
}

// writeBattleError maps engine errors onto the response and reports whether
// one was written.
func (h *BattleHandler) writeBattleError(w http.ResponseWriter, err error, username string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, battle.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Battle not found"})
		return true
	}
	if errors.Is(err, battle.ErrInvalidState) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Action submitted out of turn or battle already ended"})
		return true
	}
	log.Printf("[Battle] Action failed for %s: %v", username, err)
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to resolve action"})
	return true
}
