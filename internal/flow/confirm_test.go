package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crease/internal/api"
	"crease/internal/session"
	"crease/internal/task"
)

func TestConfirmBooking_NoPlayerIsLocal(t *testing.T) {
	backend := &mockBackend{}
	f, store := newTestFlow(t, task.RealClock(), backend, nil)
	require.NoError(t, store.SaveDraft(storedDraft(time.Now().Add(24*time.Hour))))

	_, err := f.ConfirmBooking(context.Background())
	assert.ErrorIs(t, err, ErrNoPlayer)
	assert.Zero(t, backend.createCalls, "validation errors never reach the network")
}

func TestConfirmBooking_NoDraftIsTerminal(t *testing.T) {
	backend := &mockBackend{}
	f, store := newTestFlow(t, task.RealClock(), backend, nil)
	require.NoError(t, store.SetCredentials("tok", "", "plr_1", "Demo"))

	_, err := f.ConfirmBooking(context.Background())
	assert.ErrorIs(t, err, session.ErrNoDraft)
	assert.Zero(t, backend.createCalls)
}

func TestConfirmBooking_PersistsIDBeforeReturning(t *testing.T) {
	start := time.Date(2026, 9, 2, 18, 0, 0, 0, time.UTC)
	backend := &mockBackend{
		createFn: func(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResponse, error) {
			assert.Equal(t, "plr_1", req.PlayerPublicID)
			assert.Equal(t, "2026-09-02", req.Date)
			assert.Equal(t, start.Format(time.RFC3339), req.StartTime)
			assert.Equal(t, "net", req.ResourceType)
			return api.CreateBookingResponse{BookingPublicID: "CRS-AAAA-BBBB", Status: "PENDING_PAYMENT"}, nil
		},
	}
	f, store := newTestFlow(t, task.RealClock(), backend, nil)
	require.NoError(t, store.SetCredentials("tok", "", "plr_1", "Demo"))
	require.NoError(t, store.SaveDraft(storedDraft(start)))

	resp, err := f.ConfirmBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "CRS-AAAA-BBBB", resp.BookingPublicID)

	id, err := store.ActiveBooking()
	require.NoError(t, err)
	assert.Equal(t, "CRS-AAAA-BBBB", id)

	// The draft stays until payment completes; failure paths may need it.
	_, err = store.LoadDraft()
	assert.NoError(t, err)
}

func TestConfirmBooking_ServerErrorVerbatimNoRetry(t *testing.T) {
	backend := &mockBackend{
		createFn: func(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResponse, error) {
			return api.CreateBookingResponse{}, &api.Error{Status: 409, Message: "selected slot is no longer available"}
		},
	}
	f, store := newTestFlow(t, task.RealClock(), backend, nil)
	require.NoError(t, store.SetCredentials("tok", "", "plr_1", "Demo"))
	require.NoError(t, store.SaveDraft(storedDraft(time.Now().Add(24*time.Hour))))

	_, err := f.ConfirmBooking(context.Background())
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "selected slot is no longer available", apiErr.Message)
	assert.Equal(t, 1, backend.createCalls, "no automatic retry")

	_, err = store.ActiveBooking()
	assert.ErrorIs(t, err, session.ErrNoBooking)
}
