package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStringOperations(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.Set(ctx, "k", "v1"))
	value, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	require.NoError(t, mem.Set(ctx, "k", "v2"))
	value, err = mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	require.NoError(t, mem.Delete(ctx, "k"))
	_, err = mem.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryHashOperations(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	// Missing hashes read as empty, matching HGETALL semantics.
	fields, err := mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, fields)

	require.NoError(t, mem.HashSet(ctx, "h", "a", "1"))
	require.NoError(t, mem.HashSet(ctx, "h", "b", "2"))

	fields, err = mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, fields)

	require.NoError(t, mem.HashDelete(ctx, "h", "a", "nonexistent"))
	fields, err = mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, fields)

	require.NoError(t, mem.Delete(ctx, "h"))
	fields, err = mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestMemoryHashGetAllReturnsCopy(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.HashSet(ctx, "h", "a", "1"))

	fields, err := mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	fields["a"] = "tampered"

	fresh, err := mem.HashGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "1", fresh["a"])
}
