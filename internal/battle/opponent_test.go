package battle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
	"github.com/emberclash/api/internal/store"
)

func newTestGenerator(t *testing.T) (*Generator, *player.Ledger, *leaderboard.Service) {
	t.Helper()
	mem := store.NewMemory()
	ledger := player.NewLedger(mem)
	board := leaderboard.NewService(mem, ledger)
	return NewGenerator(ledger, board, avatar.NewResolver()), ledger, board
}

func TestEnemyLevelBounds(t *testing.T) {
	tests := []struct {
		name        string
		playerLevel int
		difficulty  models.Difficulty
		min         int
		max         int
	}{
		{"easy at level 1 clamps to 1", 1, models.DifficultyEasy, 1, 1},
		{"easy at level 10", 10, models.DifficultyEasy, 7, 9},
		{"medium at level 1", 1, models.DifficultyMedium, 1, 1},
		{"medium at level 10", 10, models.DifficultyMedium, 9, 10},
		{"hard at level 1", 1, models.DifficultyHard, 2, 4},
		{"hard at level 10", 10, models.DifficultyHard, 11, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				level := EnemyLevel(tt.playerLevel, tt.difficulty)
				require.GreaterOrEqual(t, level, tt.min)
				require.LessOrEqual(t, level, tt.max)
			}
		})
	}
}

func TestEnemyStatsEasyLevelOneHPBand(t *testing.T) {
	// base 30 plus 5-15 per level: a level-1 easy enemy lands in [35, 45]
	for i := 0; i < 200; i++ {
		stats := enemyStats(1, models.DifficultyEasy)
		require.GreaterOrEqual(t, stats.MaxHitPoints, 35)
		require.LessOrEqual(t, stats.MaxHitPoints, 45)
		require.Equal(t, stats.MaxHitPoints, stats.HitPoints)
	}
}

func TestEnemyStatsScaleLinearly(t *testing.T) {
	stats := enemyStats(4, models.DifficultyMedium)

	assert.Equal(t, 4, stats.Level)
	assert.Equal(t, 6+2*4, stats.Attack)
	assert.Equal(t, 2+4, stats.Defense)
	assert.Equal(t, 10+2*4, stats.MaxSpecialPoints)
	assert.Equal(t, stats.MaxSpecialPoints, stats.SpecialPoints)
	// base 50 plus 10-20 per level
	assert.GreaterOrEqual(t, stats.MaxHitPoints, 50+4*10)
	assert.LessOrEqual(t, stats.MaxHitPoints, 50+4*20)
}

func TestGenerateFallsBackToPoolWithEmptyIndex(t *testing.T) {
	gen, ledger, _ := newTestGenerator(t)
	ctx := context.Background()

	p, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	poolNames := make(map[string]bool, len(namePool))
	for _, name := range namePool {
		poolNames[name] = true
	}

	for i := 0; i < 50; i++ {
		enemy, err := gen.Generate(ctx, p, models.DifficultyEasy, i%2 == 0)
		require.NoError(t, err)
		assert.True(t, enemy.IsNPC)
		assert.True(t, poolNames[enemy.Username], "expected pool name, got %q", enemy.Username)
		assert.NotEmpty(t, enemy.AvatarURL)
	}
}

func TestGenerateNeverSourcesTheCaller(t *testing.T) {
	gen, ledger, board := newTestGenerator(t)
	ctx := context.Background()

	p, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)
	require.NoError(t, board.EnsureEntry(ctx, "hero"))

	// The caller is the only indexed player, so every draw must come from
	// the curated pool.
	for i := 0; i < 50; i++ {
		enemy, err := gen.Generate(ctx, p, models.DifficultyMedium, false)
		require.NoError(t, err)
		assert.NotEqual(t, "hero", enemy.Username)
	}
}

func TestGenerateSourcesRealPlayerSnapshots(t *testing.T) {
	gen, ledger, board := newTestGenerator(t)
	ctx := context.Background()

	p, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	// A ranked player with stats nowhere near the difficulty curve.
	_, err = ledger.GetOrCreate(ctx, "rival", "https://avatars.example/rival")
	require.NoError(t, err)
	attack := 77
	maxHP := 555
	level := 4
	_, err = ledger.Update(ctx, "rival", player.StatsPatch{Attack: &attack, MaxHitPoints: &maxHP, Level: &level})
	require.NoError(t, err)
	require.NoError(t, board.EnsureEntry(ctx, "rival"))

	poolNames := make(map[string]bool, len(namePool))
	for _, name := range namePool {
		poolNames[name] = true
	}

	sourcedReal := false
	for i := 0; i < 200; i++ {
		enemy, err := gen.Generate(ctx, p, models.DifficultyMedium, false)
		require.NoError(t, err)
		require.True(t, enemy.IsNPC)
		if enemy.Username == "rival" {
			sourcedReal = true
			assert.Equal(t, "https://avatars.example/rival", enemy.AvatarURL)
			// Snapshot join: the source record's stats, not the curve.
			assert.Equal(t, 4, enemy.Stats.Level)
			assert.Equal(t, 77, enemy.Stats.Attack)
			assert.Equal(t, 555, enemy.Stats.MaxHitPoints)
			assert.Equal(t, 555, enemy.Stats.HitPoints)
		} else {
			require.True(t, poolNames[enemy.Username], "unexpected enemy %q", enemy.Username)
		}
	}
	// 200 draws at 0.6 real-source probability: the odds of never sampling
	// the real player are negligible.
	assert.True(t, sourcedReal)
}

func TestGenerateRespectsLevelBoundsOnReroll(t *testing.T) {
	gen, ledger, _ := newTestGenerator(t)
	ctx := context.Background()

	p, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		enemy, err := gen.Generate(ctx, p, models.DifficultyHard, true)
		require.NoError(t, err)
		require.GreaterOrEqual(t, enemy.Stats.Level, 2)
		require.LessOrEqual(t, enemy.Stats.Level, 4)
	}
}
