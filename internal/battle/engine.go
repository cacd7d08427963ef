package battle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
	"github.com/emberclash/api/internal/store"
)

const keyPrefix = "battle:"

var (
	// ErrNotFound is returned when no battle exists for an ID.
	ErrNotFound = errors.New("battle not found")
	// ErrInvalidState is returned for out-of-turn submissions and actions
	// against ended battles.
	ErrInvalidState = errors.New("invalid battle state")
)

// Engine owns the battle state machine: start, per-action turn resolution,
// and reward application at battle end.
type Engine struct {
	store  store.Store
	ledger *player.Ledger
	board  *leaderboard.Service
	gen    *Generator
}

// NewEngine creates a battle engine.
func NewEngine(s store.Store, ledger *player.Ledger, board *leaderboard.Service, gen *Generator) *Engine {
	return &Engine{store: s, ledger: ledger, board: board, gen: gen}
}

// Start generates an enemy, snapshots both combatants, and persists a new
// active battle. The battle economy is local: both sides open at zero SP and
// full HP regardless of their persisted resource levels.
func (e *Engine) Start(ctx context.Context, p *models.Player, difficulty models.Difficulty) (*models.Battle, error) {
	enemy, err := e.gen.Generate(ctx, p, difficulty, false)
	if err != nil {
		return nil, err
	}

	b := &models.Battle{
		ID:          newBattleID(),
		Player:      p.Character,
		Enemy:       *enemy,
		CurrentTurn: models.TurnPlayer,
		TurnNumber:  1,
		IsActive:    true,
		Winner:      models.TurnNone,
		Log:         []models.TurnRecord{},
		CreatedAt:   time.Now(),
	}
	b.Player.Stats.SpecialPoints = 0
	b.Player.Stats.HitPoints = b.Player.Stats.MaxHitPoints
	b.Enemy.Stats.SpecialPoints = 0
	b.Enemy.Stats.HitPoints = b.Enemy.Stats.MaxHitPoints

	if err := e.saveBattle(ctx, b); err != nil {
		return nil, err
	}

	log.Printf("[Battle] %s started battle %s vs %s (level %d, %s)",
		p.Username, b.ID, b.Enemy.Username, b.Enemy.Stats.Level, difficulty)
	return b, nil
}

// Get loads a battle by ID.
func (e *Engine) Get(ctx context.Context, battleID string) (*models.Battle, error) {
	raw, err := e.store.Get(ctx, keyPrefix+battleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load battle %s: %w", battleID, err)
	}
	var b models.Battle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battle %s: %w", battleID, err)
	}
	return &b, nil
}

// SubmitPlayerAction resolves exactly one player action. The battle either
// ends in the player's favor (rewards applied) or control flips to the enemy.
func (e *Engine) SubmitPlayerAction(ctx context.Context, battleID string, action models.Action) (*models.BattleResult, error) {
	result := &models.BattleResult{}
	b, err := e.updateBattle(ctx, battleID, func(b *models.Battle) error {
		if !b.IsActive || b.CurrentTurn != models.TurnPlayer {
			return ErrInvalidState
		}

		rec := resolveAction(b.TurnNumber, models.TurnPlayer, &b.Player, &b.Enemy, action, rollMultiplier())
		b.Log = append(b.Log, rec)
		result.Turn = &rec

		if b.Enemy.Stats.HitPoints <= 0 {
			rewards, err := e.endBattle(ctx, b, models.TurnPlayer)
			if err != nil {
				return err
			}
			result.BattleEnded = true
			result.Winner = models.TurnPlayer
			result.Rewards = rewards
			return nil
		}

		b.CurrentTurn = models.TurnEnemy
		b.TurnNumber++
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Battle = b
	return result, nil
}

// AdvanceEnemyTurn resolves one automatically chosen enemy action. Split from
// the player action call so clients can pace animation between the two.
func (e *Engine) AdvanceEnemyTurn(ctx context.Context, battleID string) (*models.BattleResult, error) {
	result := &models.BattleResult{}
	b, err := e.updateBattle(ctx, battleID, func(b *models.Battle) error {
		if !b.IsActive || b.CurrentTurn != models.TurnEnemy {
			return ErrInvalidState
		}

		action := chooseEnemyAction(&b.Enemy)
		rec := resolveAction(b.TurnNumber, models.TurnEnemy, &b.Enemy, &b.Player, action, rollMultiplier())
		b.Log = append(b.Log, rec)
		result.Turn = &rec

		if b.Player.Stats.HitPoints <= 0 {
			// No progression on defeat.
			if _, err := e.endBattle(ctx, b, models.TurnEnemy); err != nil {
				return err
			}
			result.BattleEnded = true
			result.Winner = models.TurnEnemy
			return nil
		}

		b.CurrentTurn = models.TurnPlayer
		b.TurnNumber++
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Battle = b
	return result, nil
}

// endBattle marks the terminal state and, on a player win, applies
// progression to the caller's record and notifies the leaderboard. The player
// write and the leaderboard writes are separate, non-atomic operations.
func (e *Engine) endBattle(ctx context.Context, b *models.Battle, winner models.Turn) (*models.Rewards, error) {
	b.IsActive = false
	b.Winner = winner
	b.CurrentTurn = models.TurnNone

	if winner != models.TurnPlayer {
		log.Printf("[Battle] %s lost battle %s to %s", b.Player.Username, b.ID, b.Enemy.Username)
		return nil, nil
	}

	var rewards models.Rewards
	if _, err := e.ledger.UpdateWith(ctx, b.Player.Username, func(p *models.Player) {
		rewards = applyVictoryRewards(&p.Stats, b.Enemy.Stats.Level)
	}); err != nil {
		return nil, fmt.Errorf("failed to apply rewards: %w", err)
	}

	if err := e.board.RecordResult(ctx, b.Player.Username, int64(rewards.Experience)); err != nil {
		return nil, fmt.Errorf("failed to record battle result: %w", err)
	}

	log.Printf("[Battle] %s won battle %s: +%d exp, +%d gold (leveled up: %t)",
		b.Player.Username, b.ID, rewards.Experience, rewards.Gold, rewards.LeveledUp)
	return &rewards, nil
}

// updateBattle is the single read-modify-write point for battle state. There
// is no locking or versioning: two concurrent submissions against the same
// battle race and the loser's write is silently dropped. Acceptable for one
// caller driving one battle; a per-battle lock or CAS goes here if that ever
// changes.
func (e *Engine) updateBattle(ctx context.Context, battleID string, fn func(*models.Battle) error) (*models.Battle, error) {
	b, err := e.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := e.saveBattle(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) saveBattle(ctx context.Context, b *models.Battle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal battle %s: %w", b.ID, err)
	}
	if err := e.store.Set(ctx, keyPrefix+b.ID, string(raw)); err != nil {
		return fmt.Errorf("failed to save battle %s: %w", b.ID, err)
	}
	return nil
}

// newBattleID builds a generation-time-derived ID with a random suffix.
func newBattleID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("battle_%d_%s", time.Now().UnixNano(), hex.EncodeToString(suffix))
}
