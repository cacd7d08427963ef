package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberclash/api/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(store.NewMemory())
}

func TestGetOrCreateSynthesizesDefaults(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p, err := ledger.GetOrCreate(ctx, "newcomer", "https://avatars.example/newcomer")
	require.NoError(t, err)

	assert.Equal(t, "newcomer", p.Username)
	assert.Equal(t, "https://avatars.example/newcomer", p.AvatarURL)
	assert.Equal(t, DefaultStats(), p.Stats)
	assert.Empty(t, p.PurchasedItems)
	assert.False(t, p.IsNPC)
	assert.False(t, p.CreatedAt.IsZero())

	// Durable: a second load returns the same record, not a fresh one.
	again, err := ledger.GetOrCreate(ctx, "newcomer", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.example/newcomer", again.AvatarURL)
	assert.Equal(t, p.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestGetOrCreateBumpsLastPlayed(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return current }

	p, err := ledger.GetOrCreate(ctx, "vet", "")
	require.NoError(t, err)
	assert.Equal(t, current, p.LastPlayed)

	current = current.Add(48 * time.Hour)
	p, err = ledger.GetOrCreate(ctx, "vet", "")
	require.NoError(t, err)
	assert.Equal(t, current, p.LastPlayed)
	assert.NotEqual(t, p.CreatedAt, p.LastPlayed)
}

func TestUpdateMergesSuppliedFieldsOnly(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	attack := 17
	gold := 250
	p, err := ledger.Update(ctx, "hero", StatsPatch{Attack: &attack, Gold: &gold})
	require.NoError(t, err)

	assert.Equal(t, 17, p.Stats.Attack)
	assert.Equal(t, 250, p.Stats.Gold)
	// Untouched fields keep their values.
	assert.Equal(t, DefaultDefense, p.Stats.Defense)
	assert.Equal(t, DefaultMaxHitPoints, p.Stats.HitPoints)
}

func TestUpdateClampsResources(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	hp := 9999
	sp := -5
	p, err := ledger.Update(ctx, "hero", StatsPatch{HitPoints: &hp, SpecialPoints: &sp})
	require.NoError(t, err)

	assert.Equal(t, p.Stats.MaxHitPoints, p.Stats.HitPoints)
	assert.Equal(t, 0, p.Stats.SpecialPoints)
}

func TestUpdateMissingPlayer(t *testing.T) {
	ledger := newTestLedger(t)

	gold := 10
	_, err := ledger.Update(context.Background(), "ghost", StatsPatch{Gold: &gold})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetRestoresDefaults(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.GetOrCreate(ctx, "hero", "https://avatars.example/hero")
	require.NoError(t, err)

	level := 9
	gold := 9000
	_, err = ledger.Update(ctx, "hero", StatsPatch{Level: &level, Gold: &gold})
	require.NoError(t, err)

	p, err := ledger.Reset(ctx, "hero", true)
	require.NoError(t, err)
	assert.Equal(t, DefaultStats(), p.Stats)
	assert.Equal(t, "https://avatars.example/hero", p.AvatarURL)
	assert.Empty(t, p.PurchasedItems)

	p, err = ledger.Reset(ctx, "hero", false)
	require.NoError(t, err)
	assert.Empty(t, p.AvatarURL)
}

func TestResetMissingPlayer(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Reset(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRecord(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.GetOrCreate(ctx, "hero", "")
	require.NoError(t, err)

	require.NoError(t, ledger.Delete(ctx, "hero"))

	_, err = ledger.Get(ctx, "hero")
	assert.ErrorIs(t, err, ErrNotFound)
}
