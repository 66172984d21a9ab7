package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "driveshare/internal/domain/availability"
	domainbooking "driveshare/internal/domain/booking"
	"driveshare/internal/domain/shared/timewindow"
)

func testWindow(startDay, endDay int) timewindow.Window {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return timewindow.Window{
		Start: base.AddDate(0, 0, startDay),
		End:   base.AddDate(0, 0, endDay),
	}
}

func newTestStore() *ReserveStore {
	return NewReserveStore(NewCalendarRepository(), NewReservationRepository())
}

func reserveCmd(reservationID string, w timewindow.Window) domainavailability.ReserveCommand {
	return domainavailability.ReserveCommand{
		ReservationID: reservationID,
		VehicleID:     "veh-1",
		RenterID:      "renter-" + reservationID,
		Window:        w,
		Insurance:     string(domainbooking.InsuranceStandard),
		AutoApprove:   true,
	}
}

func TestAtomicReserveOverlap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	receipt, err := store.AtomicReserve(ctx, reserveCmd("res-1", testWindow(0, 3)))
	require.NoError(t, err)
	assert.Equal(t, "res-1", receipt.ReservationID)
	assert.Equal(t, string(domainbooking.StatusConfirmed), receipt.Status)

	_, err = store.AtomicReserve(ctx, reserveCmd("res-2", testWindow(2, 5)))
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainavailability.ConflictBooking, conflict.Kind)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "res-1", conflict.Conflicts[0].Ref)
}

func TestAtomicReserveBoundaryAdjacent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.AtomicReserve(ctx, reserveCmd("res-1", testWindow(0, 3)))
	require.NoError(t, err)

	// A trip starting the instant another ends shares no occupancy.
	_, err = store.AtomicReserve(ctx, reserveCmd("res-2", testWindow(3, 6)))
	require.NoError(t, err)
}

func TestAtomicReserveManualApproval(t *testing.T) {
	cmd := reserveCmd("res-1", testWindow(0, 3))
	cmd.AutoApprove = false
	receipt, err := newTestStore().AtomicReserve(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatusPending), receipt.Status)
}

func TestConcurrentOverlappingCommits(t *testing.T) {
	const attempts = 16
	ctx := context.Background()
	store := newTestStore()

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every window covers day 5, so all attempts collide pairwise.
			w := testWindow(i%3, 6+i%3)
			_, errs[i] = store.AtomicReserve(ctx, reserveCmd(fmt.Sprintf("res-%d", i), w))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *domainavailability.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, domainavailability.ConflictBooking, conflict.Kind)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSoftCheckDuringCommits(t *testing.T) {
	const readers = 200
	ctx := context.Background()
	store := newTestStore()

	var wg sync.WaitGroup
	commitErrs := make([]error, readers)
	readErrs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Disjoint two-day windows, so every commit succeeds while
			// readers scan the growing block set.
			w := testWindow(2*i, 2*i+2)
			_, commitErrs[i] = store.AtomicReserve(ctx, reserveCmd(fmt.Sprintf("res-%d", i), w))
		}(i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, readErrs[i] = store.ListObstacles(ctx, "veh-1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		require.NoError(t, commitErrs[i])
		require.NoError(t, readErrs[i])
	}
	obstacles, err := store.ListObstacles(ctx, "veh-1")
	require.NoError(t, err)
	assert.Len(t, obstacles, readers)
}

func TestHostBlockDuringCommitCannotOverlap(t *testing.T) {
	ctx := context.Background()
	calendars := NewCalendarRepository()
	store := NewReserveStore(calendars, NewReservationRepository())

	// A host fetches the calendar before any booking lands.
	hostCopy, err := calendars.Calendar(ctx, "veh-1")
	require.NoError(t, err)

	_, err = store.AtomicReserve(ctx, reserveCmd("res-1", testWindow(0, 3)))
	require.NoError(t, err)

	// The host's copy predates the booking, so its conflict check passes,
	// but the stale save must not land the overlapping block.
	require.NoError(t, hostCopy.BlockRange(testWindow(1, 4), "blk-1", time.Now().UTC()))
	assert.ErrorIs(t, calendars.Save(ctx, hostCopy), ErrConcurrentUpdate)

	stored, err := calendars.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "res-1", stored.Blocks[0].Reference)
}

func TestReleaseThenRebook(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.AtomicReserve(ctx, reserveCmd("res-1", testWindow(0, 3)))
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, "veh-1", "res-1"))

	_, err = store.AtomicReserve(ctx, reserveCmd("res-2", testWindow(0, 3)))
	require.NoError(t, err)
}

func TestReleaseUnknownReference(t *testing.T) {
	err := newTestStore().Release(context.Background(), "veh-1", "missing")
	assert.ErrorIs(t, err, domainavailability.ErrRangeNotFound)
}

func TestListObstacles(t *testing.T) {
	ctx := context.Background()
	calendars := NewCalendarRepository()
	reservations := NewReservationRepository()
	store := NewReserveStore(calendars, reservations)

	cmd := reserveCmd("res-1", testWindow(0, 3))
	cmd.AutoApprove = false
	_, err := store.AtomicReserve(ctx, cmd)
	require.NoError(t, err)

	calendar, err := calendars.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.NoError(t, calendar.BlockRange(testWindow(10, 12), "blk-1", time.Now().UTC()))
	require.NoError(t, calendars.Save(ctx, calendar))

	obstacles, err := store.ListObstacles(ctx, "veh-1")
	require.NoError(t, err)
	require.Len(t, obstacles, 2)

	byRef := make(map[string]domainavailability.Obstacle, len(obstacles))
	for _, o := range obstacles {
		byRef[o.Ref] = o
	}
	booking := byRef["res-1"]
	assert.False(t, booking.HostBlock)
	assert.Equal(t, string(domainbooking.StatusPending), booking.Status)
	block := byRef["blk-1"]
	assert.True(t, block.HostBlock)
	assert.Equal(t, string(domainavailability.ReasonHostBlock), block.Status)
}

func TestHostBlockConflictKind(t *testing.T) {
	ctx := context.Background()
	calendars := NewCalendarRepository()
	store := NewReserveStore(calendars, NewReservationRepository())

	calendar, err := calendars.Calendar(ctx, "veh-1")
	require.NoError(t, err)
	require.NoError(t, calendar.BlockRange(testWindow(0, 4), "blk-1", time.Now().UTC()))
	require.NoError(t, calendars.Save(ctx, calendar))

	_, err = store.AtomicReserve(ctx, reserveCmd("res-1", testWindow(2, 6)))
	var conflict *domainavailability.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domainavailability.ConflictHostBlocked, conflict.Kind)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "blk-1", conflict.Conflicts[0].Ref)
	assert.Equal(t, timewindow.OverlapStartsFirst, conflict.Conflicts[0].Overlap)
}
