package devstore

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crease/internal/booking"
)

func testBooking(publicID string, status booking.Status, start, expires time.Time) *Booking {
	return &Booking{
		PublicID:  publicID,
		PlayerID:  1,
		Resource:  booking.ResourceNet,
		Date:      start.Format(booking.DateLayout),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Amount:    800,
		Status:    status,
		ExpiresAt: expires,
		CreatedAt: start.Add(-time.Hour),
	}
}

func TestBookingStore_CountHolding(t *testing.T) {
	s := newBookingStore()
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	require.NoError(t, s.Create(testBooking("CRS-AAAA-0001", booking.StatusConfirmed, start, time.Time{})))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0002", booking.StatusPendingPayment, start, now.Add(time.Minute))))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0003", booking.StatusPendingPayment, start, now.Add(-time.Minute))))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0004", booking.StatusCancelled, start, time.Time{})))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0005", booking.StatusConfirmed, start.Add(time.Hour), time.Time{})))

	// Confirmed plus unexpired pending hold a unit; expired pending,
	// cancelled, and other windows do not.
	assert.Equal(t, 2, s.CountHolding(booking.ResourceNet, start, now))
}

func TestBookingStore_ExpireOverdue(t *testing.T) {
	s := newBookingStore()
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	require.NoError(t, s.Create(testBooking("CRS-AAAA-0001", booking.StatusPendingPayment, start, now.Add(-time.Second))))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0002", booking.StatusPendingPayment, start, now.Add(time.Minute))))
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0003", booking.StatusConfirmed, start, time.Time{})))

	assert.Equal(t, 1, s.ExpireOverdue(now))

	b, err := s.GetByPublicID("CRS-AAAA-0001")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusExpired, b.Status)

	b, err = s.GetByPublicID("CRS-AAAA-0002")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPendingPayment, b.Status)

	assert.Zero(t, s.ExpireOverdue(now), "a second sweep finds nothing")
}

func TestBookingStore_CreateIfAvailable(t *testing.T) {
	s := newBookingStore()
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	require.NoError(t, s.CreateIfAvailable(
		testBooking("CRS-AAAA-0001", booking.StatusPendingPayment, start, now.Add(time.Minute)), 1, now))

	err := s.CreateIfAvailable(
		testBooking("CRS-AAAA-0002", booking.StatusPendingPayment, start, now.Add(time.Minute)), 1, now)
	assert.ErrorIs(t, err, ErrSlotTaken)
	_, err = s.GetByPublicID("CRS-AAAA-0002")
	assert.ErrorIs(t, err, ErrNotFound, "a rejected booking is never stored")

	// A different window of the same resource is unaffected.
	require.NoError(t, s.CreateIfAvailable(
		testBooking("CRS-AAAA-0003", booking.StatusPendingPayment, start.Add(time.Hour), now.Add(time.Minute)), 1, now))

	// An expired pending hold frees the unit again.
	require.NoError(t, s.SetStatus("CRS-AAAA-0001", booking.StatusExpired))
	require.NoError(t, s.CreateIfAvailable(
		testBooking("CRS-AAAA-0004", booking.StatusPendingPayment, start, now.Add(time.Minute)), 1, now))
}

func TestBookingStore_CreateIfAvailable_ConcurrentLastUnit(t *testing.T) {
	s := newBookingStore()
	now := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	const contenders = 32
	barrier := make(chan struct{})
	results := make(chan error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := testBooking(fmt.Sprintf("CRS-RACE-%04d", i), booking.StatusPendingPayment, start, now.Add(time.Minute))
			<-barrier
			results <- s.CreateIfAvailable(b, 1, now)
		}(i)
	}
	close(barrier)
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one contender takes the last unit")
	assert.Equal(t, contenders-1, losses)
	assert.Equal(t, 1, s.CountHolding(booking.ResourceNet, start, now))
}

func TestBookingStore_GetReturnsCopy(t *testing.T) {
	s := newBookingStore()
	start := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0001", booking.StatusPendingPayment, start, start)))

	b, err := s.GetByPublicID("CRS-AAAA-0001")
	require.NoError(t, err)
	b.Status = booking.StatusConfirmed

	again, err := s.GetByPublicID("CRS-AAAA-0001")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPendingPayment, again.Status, "callers cannot mutate stored state")
}

func TestBookingStore_DuplicatePublicID(t *testing.T) {
	s := newBookingStore()
	start := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(testBooking("CRS-AAAA-0001", booking.StatusPendingPayment, start, start)))
	assert.ErrorIs(t, s.Create(testBooking("CRS-AAAA-0001", booking.StatusPendingPayment, start, start)), ErrConflict)
}

func TestPlayerStore_PublicIDRoundTrip(t *testing.T) {
	s := newPlayerStore("test-salt")

	p, err := s.Create("Demo", "demo@crease.local", []byte("hash"))
	require.NoError(t, err)
	assert.Contains(t, p.PublicID, "plr_")

	byID, err := s.GetByPublicID(p.PublicID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	byEmail, err := s.GetByEmail("demo@crease.local")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byEmail.ID)

	_, err = s.Create("Other", "demo@crease.local", []byte("hash"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBookingNumberGenerator_Format(t *testing.T) {
	g := NewBookingNumberGenerator("test-secret")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		n := g.Generate(7)
		assert.Regexp(t, `^CRS-[0-9A-Z]{4}-[0-9A-Z]{4}$`, n)
		assert.False(t, seen[n], "numbers must not repeat")
		seen[n] = true
	}
}
