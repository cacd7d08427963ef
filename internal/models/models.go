package models

import "time"

// Difficulty is the coarse knob controlling enemy level offset and HP pacing.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ValidDifficulties is a map of accepted difficulty values.
var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// IsValidDifficulty checks if a difficulty value is accepted.
func IsValidDifficulty(d Difficulty) bool {
	return ValidDifficulties[d]
}

// Action is a combat intent submitted by a client.
type Action string

const (
	ActionAttack  Action = "attack"
	ActionDefend  Action = "defend"
	ActionSpecial Action = "special"
	ActionHeal    Action = "heal"
)

// ValidActions is a map of accepted combat actions.
var ValidActions = map[Action]bool{
	ActionAttack:  true,
	ActionDefend:  true,
	ActionSpecial: true,
	ActionHeal:    true,
}

// IsValidAction checks if an action value is accepted.
func IsValidAction(a Action) bool {
	return ValidActions[a]
}

// Turn identifies whose move it is within a battle.
type Turn string

const (
	TurnPlayer Turn = "player"
	TurnEnemy  Turn = "enemy"
	TurnNone   Turn = "none"
)

// CharacterStats holds the numeric state shared by players and enemies.
// HitPoints never exceeds MaxHitPoints and SpecialPoints never exceeds
// MaxSpecialPoints.
type CharacterStats struct {
	Level            int `json:"level"`
	Experience       int `json:"experience"`
	ExperienceToNext int `json:"experience_to_next"`
	HitPoints        int `json:"hit_points"`
	MaxHitPoints     int `json:"max_hit_points"`
	SpecialPoints    int `json:"special_points"`
	MaxSpecialPoints int `json:"max_special_points"`
	Attack           int `json:"attack"`
	Defense          int `json:"defense"`
	SkillPoints      int `json:"skill_points"`
	Gold             int `json:"gold"`
}

// Character is a combatant. Enemies are ephemeral (IsNPC=true) and are never
// persisted, even when sourced as a snapshot of a real player record.
type Character struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Stats     CharacterStats `json:"stats"`
	IsNPC     bool           `json:"is_npc"`
}

// Player is the durable character record, keyed by username.
type Player struct {
	Character
	PurchasedItems []string  `json:"purchased_items"`
	CreatedAt      time.Time `json:"created_at"`
	LastPlayed     time.Time `json:"last_played"`
}

// TurnRecord is one resolved action in a battle log.
type TurnRecord struct {
	Turn       int    `json:"turn"`
	Actor      Turn   `json:"actor"`
	Action     Action `json:"action"`
	Damage     int    `json:"damage"`
	Healed     int    `json:"healed"`
	SPGained   int    `json:"sp_gained"`
	SPSpent    int    `json:"sp_spent"`
	Downgraded bool   `json:"downgraded,omitempty"`
	TargetHP   int    `json:"target_hp"`
	Message    string `json:"message"`
}

// Battle is one turn-based encounter. Player and Enemy are snapshots taken at
// battle start, not references to live records. Once IsActive turns false the
// record is immutable and CurrentTurn is TurnNone.
type Battle struct {
	ID          string       `json:"id"`
	Player      Character    `json:"player"`
	Enemy       Character    `json:"enemy"`
	CurrentTurn Turn         `json:"current_turn"`
	TurnNumber  int          `json:"turn_number"`
	IsActive    bool         `json:"is_active"`
	Winner      Turn         `json:"winner"`
	Log         []TurnRecord `json:"log"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Rewards describes progression applied after a player victory.
type Rewards struct {
	Experience int  `json:"experience"`
	Gold       int  `json:"gold"`
	LeveledUp  bool `json:"leveled_up"`
	NewLevel   int  `json:"new_level,omitempty"`
}

// BattleResult is returned after each resolved action.
type BattleResult struct {
	Battle      *Battle     `json:"battle"`
	Turn        *TurnRecord `json:"turn"`
	BattleEnded bool        `json:"battle_ended"`
	Winner      Turn        `json:"winner,omitempty"`
	Rewards     *Rewards    `json:"rewards,omitempty"`
}

// ExpectedRewards is the preview of what defeating an enemy would grant.
type ExpectedRewards struct {
	Experience int    `json:"experience"`
	Gold       int    `json:"gold"`
	RiskLevel  string `json:"risk_level"`
}

// RankedEntry is one row of the display leaderboard. Placeholder entries mark
// the gap between the visible top block and a lower-ranked caller.
type RankedEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	Level       int    `json:"level"`
	BattlesWon  int    `json:"battles_won"`
	RawScore    int64  `json:"raw_score"`
	IsSelf      bool   `json:"is_self,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// RankedList is the bounded, precedence-sorted leaderboard response.
// TotalPlayers always reflects the full resolved count, not the truncated
// view. PlayerRank is -1 when the caller has no index entry.
type RankedList struct {
	Entries      []RankedEntry `json:"entries"`
	PlayerRank   int           `json:"player_rank"`
	TotalPlayers int           `json:"total_players"`
}

// User represents an account used for authentication.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
