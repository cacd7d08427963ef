// Package player owns the canonical character record: load-or-create,
// mutate, persist.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/store"
)

const keyPrefix = "player:"

// ErrNotFound is returned when no record exists for a username.
var ErrNotFound = errors.New("player not found")

// Default stats for a freshly created player.
const (
	DefaultLevel        = 1
	DefaultMaxHitPoints = 100
	DefaultMaxSpecial   = 20
	DefaultAttack       = 10
	DefaultDefense      = 5
	DefaultGold         = 100
	ExperiencePerLevel  = 100
)

// DefaultStats returns the stats a new player starts with.
func DefaultStats() models.CharacterStats {
	return models.CharacterStats{
		Level:            DefaultLevel,
		Experience:       0,
		ExperienceToNext: DefaultLevel * ExperiencePerLevel,
		HitPoints:        DefaultMaxHitPoints,
		MaxHitPoints:     DefaultMaxHitPoints,
		SpecialPoints:    DefaultMaxSpecial,
		MaxSpecialPoints: DefaultMaxSpecial,
		Attack:           DefaultAttack,
		Defense:          DefaultDefense,
		SkillPoints:      0,
		Gold:             DefaultGold,
	}
}

// StatsPatch carries the subset of stats fields an update supplies. Nil
// fields are left untouched.
type StatsPatch struct {
	Level            *int `json:"level,omitempty"`
	Experience       *int `json:"experience,omitempty"`
	ExperienceToNext *int `json:"experience_to_next,omitempty"`
	HitPoints        *int `json:"hit_points,omitempty"`
	MaxHitPoints     *int `json:"max_hit_points,omitempty"`
	SpecialPoints    *int `json:"special_points,omitempty"`
	MaxSpecialPoints *int `json:"max_special_points,omitempty"`
	Attack           *int `json:"attack,omitempty"`
	Defense          *int `json:"defense,omitempty"`
	SkillPoints      *int `json:"skill_points,omitempty"`
	Gold             *int `json:"gold,omitempty"`
}

// Ledger persists player records in the key-value store, one JSON record per
// username.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s, now: time.Now}
}

// Key returns the storage key for a username.
func Key(username string) string {
	return keyPrefix + username
}

// Get loads a player record without touching it. Used by the leaderboard
// resolution path.
func (l *Ledger) Get(ctx context.Context, username string) (*models.Player, error) {
	raw, err := l.store.Get(ctx, Key(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", username, err)
	}

	var p models.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player %s: %w", username, err)
	}
	return &p, nil
}

// GetOrCreate returns the stored record, bumping LastPlayed, or synthesizes a
// new player with default stats and persists it.
func (l *Ledger) GetOrCreate(ctx context.Context, username, avatarURL string) (*models.Player, error) {
	p, err := l.Get(ctx, username)
	if err == nil {
		p.LastPlayed = l.now()
		if err := l.save(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := l.now()
	p = &models.Player{
		Character: models.Character{
			Username:  username,
			AvatarURL: avatarURL,
			Stats:     DefaultStats(),
		},
		PurchasedItems: []string{},
		CreatedAt:      now,
		LastPlayed:     now,
	}
	if err := l.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update merges the supplied stats fields into the stored record. Fails with
// ErrNotFound if no record exists.
func (l *Ledger) Update(ctx context.Context, username string, patch StatsPatch) (*models.Player, error) {
	return l.UpdateWith(ctx, username, func(p *models.Player) {
		applyPatch(&p.Stats, patch)
		clampStats(&p.Stats)
	})
}

// Reset overwrites the record with default stats, optionally preserving the
// avatar. CreatedAt survives a reset.
func (l *Ledger) Reset(ctx context.Context, username string, preserveAvatar bool) (*models.Player, error) {
	return l.UpdateWith(ctx, username, func(p *models.Player) {
		avatarURL := p.AvatarURL
		p.Stats = DefaultStats()
		p.PurchasedItems = []string{}
		if preserveAvatar {
			p.AvatarURL = avatarURL
		} else {
			p.AvatarURL = ""
		}
	})
}

// UpdateWith loads the record, applies fn, and writes it back. This is the
// single read-modify-write point for player state: there is no locking or
// versioning, so concurrent updates to the same username are last-write-wins.
// A future CAS scheme slots in here without touching call sites.
func (l *Ledger) UpdateWith(ctx context.Context, username string, fn func(*models.Player)) (*models.Player, error) {
	p, err := l.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	fn(p)
	p.LastPlayed = l.now()

	if err := l.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a player record. Administrative use only.
func (l *Ledger) Delete(ctx context.Context, username string) error {
	return l.store.Delete(ctx, Key(username))
}

func (l *Ledger) save(ctx context.Context, p *models.Player) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player %s: %w", p.Username, err)
	}
	if err := l.store.Set(ctx, Key(p.Username), string(raw)); err != nil {
		return fmt.Errorf("failed to save player %s: %w", p.Username, err)
	}
	return nil
}

func applyPatch(stats *models.CharacterStats, patch StatsPatch) {
	if patch.Level != nil {
		stats.Level = *patch.Level
	}
	if patch.Experience != nil {
		stats.Experience = *patch.Experience
	}
	if patch.ExperienceToNext != nil {
		stats.ExperienceToNext = *patch.ExperienceToNext
	}
	if patch.HitPoints != nil {
		stats.HitPoints = *patch.HitPoints
	}
	if patch.MaxHitPoints != nil {
		stats.MaxHitPoints = *patch.MaxHitPoints
	}
	if patch.SpecialPoints != nil {
		stats.SpecialPoints = *patch.SpecialPoints
	}
	if patch.MaxSpecialPoints != nil {
		stats.MaxSpecialPoints = *patch.MaxSpecialPoints
	}
	if patch.Attack != nil {
		stats.Attack = *patch.Attack
	}
	if patch.Defense != nil {
		stats.Defense = *patch.Defense
	}
	if patch.SkillPoints != nil {
		stats.SkillPoints = *patch.SkillPoints
	}
	if patch.Gold != nil {
		stats.Gold = *patch.Gold
	}
}

func clampStats(stats *models.CharacterStats) {
	if stats.HitPoints > stats.MaxHitPoints {
		stats.HitPoints = stats.MaxHitPoints
	}
	if stats.HitPoints < 0 {
		stats.HitPoints = 0
	}
	if stats.SpecialPoints > stats.MaxSpecialPoints {
		stats.SpecialPoints = stats.MaxSpecialPoints
	}
	if stats.SpecialPoints < 0 {
		stats.SpecialPoints = 0
	}
}
