package leaderboard

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberclash/api/internal/player"
	"github.com/emberclash/api/internal/store"
)

func newTestService(t *testing.T) (*Service, *player.Ledger) {
	t.Helper()
	mem := store.NewMemory()
	ledger := player.NewLedger(mem)
	return NewService(mem, ledger), ledger
}

// addRankedPlayer creates a player record at the given level and seeds its
// index entry.
func addRankedPlayer(t *testing.T, s *Service, ledger *player.Ledger, username string, level, wins int, score int64) {
	t.Helper()
	ctx := context.Background()
	_, err := ledger.GetOrCreate(ctx, username, "")
	require.NoError(t, err)
	_, err = ledger.Update(ctx, username, player.StatsPatch{Level: &level})
	require.NoError(t, err)
	require.NoError(t, s.Seed(ctx, username, score, wins))
}

func TestQueryOrderingPrecedence(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	// Level always outranks wins; wins outrank raw score.
	addRankedPlayer(t, s, ledger, "low-level-many-wins", 3, 50, 9000)
	addRankedPlayer(t, s, ledger, "high-level-no-wins", 7, 0, 10)
	addRankedPlayer(t, s, ledger, "high-level-some-wins", 7, 4, 5)
	addRankedPlayer(t, s, ledger, "tiebreak-by-score", 7, 4, 80)

	list, err := s.Query(ctx, "high-level-no-wins")
	require.NoError(t, err)

	require.Len(t, list.Entries, 4)
	assert.Equal(t, "tiebreak-by-score", list.Entries[0].Username)
	assert.Equal(t, "high-level-some-wins", list.Entries[1].Username)
	assert.Equal(t, "high-level-no-wins", list.Entries[2].Username)
	assert.Equal(t, "low-level-many-wins", list.Entries[3].Username)

	for i, entry := range list.Entries {
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.Equal(t, 3, list.PlayerRank)
	assert.Equal(t, 4, list.TotalPlayers)
}

func TestQuerySkipsEntriesWithoutPlayerRecords(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	addRankedPlayer(t, s, ledger, "real", 2, 1, 200)
	// An index entry with no backing player record is stale, not fatal.
	require.NoError(t, s.Seed(ctx, "ghost", 500, 9))

	list, err := s.Query(ctx, "real")
	require.NoError(t, err)

	require.Len(t, list.Entries, 1)
	assert.Equal(t, "real", list.Entries[0].Username)
	assert.Equal(t, 1, list.TotalPlayers)
	assert.Equal(t, 1, list.PlayerRank)
}

func TestQueryUnrankedCaller(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		addRankedPlayer(t, s, ledger, fmt.Sprintf("player-%02d", i), 30-i, 0, 100)
	}

	list, err := s.Query(ctx, "outsider")
	require.NoError(t, err)

	assert.Equal(t, -1, list.PlayerRank)
	assert.Equal(t, 30, list.TotalPlayers)
	require.Len(t, list.Entries, DisplayLimit-1)
	for _, entry := range list.Entries {
		assert.False(t, entry.Placeholder, "unranked caller must not produce a placeholder")
		assert.False(t, entry.IsSelf)
	}
}

func TestQueryBoundedViewIncludesLowRankedCaller(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 29; i++ {
		addRankedPlayer(t, s, ledger, fmt.Sprintf("player-%02d", i), 40-i, 0, 100)
	}
	addRankedPlayer(t, s, ledger, "straggler", 1, 0, 5)

	list, err := s.Query(ctx, "straggler")
	require.NoError(t, err)

	assert.Equal(t, 30, list.PlayerRank)
	assert.Equal(t, 30, list.TotalPlayers)

	// Top 24, one gap placeholder, then the caller.
	require.Len(t, list.Entries, DisplayLimit+1)
	assert.False(t, list.Entries[DisplayLimit-2].Placeholder)
	assert.True(t, list.Entries[DisplayLimit-1].Placeholder)
	last := list.Entries[DisplayLimit]
	assert.Equal(t, "straggler", last.Username)
	assert.True(t, last.IsSelf)
	assert.Equal(t, 30, last.Rank)
}

func TestQueryCallerInsideTopBlock(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		addRankedPlayer(t, s, ledger, fmt.Sprintf("player-%02d", i), 40-i, 0, 100)
	}

	list, err := s.Query(ctx, "player-02")
	require.NoError(t, err)

	assert.Equal(t, 3, list.PlayerRank)
	require.Len(t, list.Entries, DisplayLimit-1)
	for _, entry := range list.Entries {
		assert.False(t, entry.Placeholder)
	}
	assert.True(t, list.Entries[2].IsSelf)
}

func TestQuerySmallPopulationReturnsEveryone(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	addRankedPlayer(t, s, ledger, "alpha", 5, 2, 500)
	addRankedPlayer(t, s, ledger, "beta", 3, 1, 300)

	list, err := s.Query(ctx, "beta")
	require.NoError(t, err)

	require.Len(t, list.Entries, 2)
	assert.Equal(t, 2, list.PlayerRank)
	assert.Equal(t, 2, list.TotalPlayers)
}

func TestRecordResultIncrementsWinsAndScore(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	level := 2
	_, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)
	_, err = ledger.Update(ctx, "hero", player.StatsPatch{Level: &level})
	require.NoError(t, err)

	// First result seeds the score from the live record: 2×100 + 0 exp.
	require.NoError(t, s.RecordResult(ctx, "hero", 75))
	require.NoError(t, s.RecordResult(ctx, "hero", 25))

	list, err := s.Query(ctx, "hero")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, 2, list.Entries[0].BattlesWon)
	assert.Equal(t, int64(300), list.Entries[0].RawScore)
}

func TestRecordResultWithoutPlayerRecord(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	// No player record yet: score seeds at zero rather than failing.
	require.NoError(t, s.RecordResult(ctx, "early-bird", 25))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(25), entries["early-bird"])
}

func TestEnsureEntryIsIdempotent(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	_, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	require.NoError(t, s.EnsureEntry(ctx, "hero"))
	require.NoError(t, s.RecordResult(ctx, "hero", 50))
	require.NoError(t, s.EnsureEntry(ctx, "hero"))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	// 1×100 seed + 50; the second EnsureEntry must not reseed.
	assert.Equal(t, int64(150), entries["hero"])
}

func TestWipeAndRemove(t *testing.T) {
	s, ledger := newTestService(t)
	ctx := context.Background()

	addRankedPlayer(t, s, ledger, "alpha", 5, 2, 500)
	addRankedPlayer(t, s, ledger, "beta", 3, 1, 300)

	require.NoError(t, s.Remove(ctx, "alpha"))
	usernames, err := s.IndexedUsernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, usernames)

	require.NoError(t, s.Wipe(ctx))
	usernames, err = s.IndexedUsernames(ctx)
	require.NoError(t, err)
	assert.Empty(t, usernames)
}
