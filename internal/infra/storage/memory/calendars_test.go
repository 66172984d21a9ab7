package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewCalendarRepository()

	calendar, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.NoError(t, calendar.Reserve(testWindow(0, 3), "res-1", time.Now().UTC()))
	require.NoError(t, repo.Save(ctx, calendar))

	// Mutating a fetched calendar must not leak into the stored one
	// until it is saved back.
	fetched, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.NoError(t, fetched.Reserve(testWindow(5, 8), "res-2", time.Now().UTC()))

	stored, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 1)
	assert.Len(t, fetched.Blocks, 2)
}

func TestCalendarSaveVersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewCalendarRepository()

	first, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	second, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)

	require.NoError(t, first.BlockRange(testWindow(0, 3), "blk-1", time.Now().UTC()))
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	// The second copy read version zero; saving it would overwrite the
	// block it never saw.
	require.NoError(t, second.BlockRange(testWindow(1, 4), "blk-2", time.Now().UTC()))
	assert.ErrorIs(t, repo.Save(ctx, second), ErrConcurrentUpdate)

	stored, err := repo.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "blk-1", stored.Blocks[0].Reference)
}
