package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarReserve(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	calendar := NewCalendar("veh-1")

	require.NoError(t, calendar.Reserve(win(0, 3), "res-1", now))
	require.Len(t, calendar.Blocks, 1)
	assert.Equal(t, ReasonBooking, calendar.Blocks[0].Reason)
	assert.Equal(t, "res-1", calendar.Blocks[0].Reference)

	// Back to back trips share the boundary instant without conflict.
	require.NoError(t, calendar.Reserve(win(3, 5), "res-2", now))

	err := calendar.Reserve(win(2, 4), "res-3", now)
	assert.ErrorIs(t, err, ErrOverlappingRange)

	events := calendar.PendingEvents()
	require.Len(t, events, 3)
	prevented, ok := events[2].(OverbookingPrevented)
	require.True(t, ok)
	assert.Equal(t, "veh-1", prevented.VehicleID)
}

func TestCalendarHostBlocks(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	calendar := NewCalendar("veh-1")

	require.NoError(t, calendar.BlockRange(win(0, 4), "blk-1", now))
	assert.ErrorIs(t, calendar.Reserve(win(2, 6), "res-1", now), ErrOverlappingRange)

	conflicts := calendar.ConflictingBlocks(win(2, 6))
	require.Len(t, conflicts, 1)
	assert.Equal(t, ReasonHostBlock, conflicts[0].Reason)
}

func TestCalendarRelease(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	calendar := NewCalendar("veh-1")

	require.NoError(t, calendar.Reserve(win(0, 3), "res-1", now))
	require.NoError(t, calendar.Release("res-1", now))
	assert.Empty(t, calendar.Blocks)
	assert.True(t, calendar.CanReserve(win(0, 3)))

	assert.ErrorIs(t, calendar.Release("res-1", now), ErrRangeNotFound)
}
