package battle

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"

	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
)

// ErrGenerationFailed is returned when no opponent candidate exists at all.
// The curated pool makes this unreachable in practice.
var ErrGenerationFailed = errors.New("opponent generation failed")

// realSourceProbability is the chance an enemy is a snapshot of a real ranked
// player instead of a draw from the curated pool.
const realSourceProbability = 0.6

// closestCandidates bounds how many level-adjacent real players the draw
// picks among.
const closestCandidates = 5

// namePool is the curated fallback roster. Static and non-empty by
// construction.
var namePool = []string{
	"Gravemaw",
	"Ashen Warden",
	"Korrath the Unbound",
	"Sister Veil",
	"Pyreling",
	"The Hollow Knight",
	"Durga Ironjaw",
	"Whisperfang",
	"Baron Cinder",
	"Mirewalker",
	"Sellsword Oda",
	"The Pale Duelist",
}

// Difficulty pacing for pool-sourced enemies: hit points are base +
// level×perLevel, with perLevel drawn per encounter. The bands target roughly
// 3-4 turns on easy, 4-6 on medium, and 6-8 on hard. Snapshot enemies keep
// their source player's stats instead.
type difficultyScale struct {
	hpBase        int
	hpPerLevelMin int
	hpPerLevelMax int
}

var difficultyScales = map[models.Difficulty]difficultyScale{
	models.DifficultyEasy:   {hpBase: 30, hpPerLevelMin: 5, hpPerLevelMax: 15},
	models.DifficultyMedium: {hpBase: 50, hpPerLevelMin: 10, hpPerLevelMax: 20},
	models.DifficultyHard:   {hpBase: 80, hpPerLevelMin: 15, hpPerLevelMax: 25},
}

// Generator produces ephemeral enemies from a difficulty knob and either the
// ranked-player population or the curated pool.
type Generator struct {
	ledger  *player.Ledger
	board   *leaderboard.Service
	avatars *avatar.Resolver
}

// NewGenerator creates an opponent generator.
func NewGenerator(ledger *player.Ledger, board *leaderboard.Service, avatars *avatar.Resolver) *Generator {
	return &Generator{ledger: ledger, board: board, avatars: avatars}
}

// EnemyLevel derives the enemy level from the caller's level and difficulty,
// clamped to at least 1.
func EnemyLevel(playerLevel int, difficulty models.Difficulty) int {
	var level int
	switch difficulty {
	case models.DifficultyEasy:
		level = playerLevel - (1 + rand.Intn(3))
	case models.DifficultyMedium:
		level = playerLevel - rand.Intn(2)
	case models.DifficultyHard:
		level = playerLevel + 1 + rand.Intn(3)
	default:
		level = playerLevel
	}
	if level < 1 {
		level = 1
	}
	return level
}

// Generate builds a fresh enemy for the caller. Reroll re-runs the same draw;
// each call is an independent sample. Real-sourced enemies are a read-only
// snapshot join against the player record as it was at generation time, so
// their stats may be stale relative to the source player. The returned enemy
// is always IsNPC=true and is never persisted.
func (g *Generator) Generate(ctx context.Context, p *models.Player, difficulty models.Difficulty, reroll bool) (*models.Character, error) {
	if rand.Float64() < realSourceProbability {
		if source := g.pickRealSource(ctx, p); source != nil {
			enemy := &models.Character{
				Username:  source.Username,
				AvatarURL: source.AvatarURL,
				Stats:     source.Stats,
				IsNPC:     true,
			}
			enemy.Stats.HitPoints = enemy.Stats.MaxHitPoints
			enemy.Stats.SpecialPoints = enemy.Stats.MaxSpecialPoints
			return enemy, nil
		}
	}

	if len(namePool) == 0 {
		return nil, ErrGenerationFailed
	}
	name := namePool[rand.Intn(len(namePool))]
	level := EnemyLevel(p.Stats.Level, difficulty)
	return &models.Character{
		Username:  name,
		AvatarURL: g.avatars.AvatarFor(name),
		Stats:     enemyStats(level, difficulty),
		IsNPC:     true,
	}, nil
}

// pickRealSource samples a ranked player near the caller's level, or nil when
// no candidate exists.
func (g *Generator) pickRealSource(ctx context.Context, p *models.Player) *models.Player {
	usernames, err := g.board.IndexedUsernames(ctx)
	if err != nil {
		log.Printf("[Battle] Opponent sourcing: index unavailable, using pool: %v", err)
		return nil
	}

	candidates := make([]*models.Player, 0, len(usernames))
	for _, username := range usernames {
		if username == p.Username {
			continue
		}
		candidate, err := g.ledger.Get(ctx, username)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return levelDistance(candidates[i], p) < levelDistance(candidates[j], p)
	})

	limit := closestCandidates
	if len(candidates) < limit {
		limit = len(candidates)
	}
	return candidates[rand.Intn(limit)]
}

// enemyStats builds the full stat block for an enemy of the given level.
// Attack, defense, and SP scale linearly; HP follows the difficulty band.
func enemyStats(level int, difficulty models.Difficulty) models.CharacterStats {
	scale, ok := difficultyScales[difficulty]
	if !ok {
		scale = difficultyScales[models.DifficultyMedium]
	}

	perLevel := scale.hpPerLevelMin + rand.Intn(scale.hpPerLevelMax-scale.hpPerLevelMin+1)
	maxHP := scale.hpBase + level*perLevel
	maxSP := 10 + 2*level

	return models.CharacterStats{
		Level:            level,
		HitPoints:        maxHP,
		MaxHitPoints:     maxHP,
		SpecialPoints:    maxSP,
		MaxSpecialPoints: maxSP,
		Attack:           6 + 2*level,
		Defense:          2 + level,
	}
}

func levelDistance(a *models.Player, b *models.Player) int {
	d := a.Stats.Level - b.Stats.Level
	if d < 0 {
		d = -d
	}
	return d
}
