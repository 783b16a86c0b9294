package flow

import (
	"context"
	"time"

	"crease/internal/api"
)

// ConfirmBooking converts the stored draft into a server-side booking and
// persists the returned identifier before reporting success, so the payment
// stage can always find it. The draft itself is retained until payment
// completes.
//
// Server-side rejections (window taken meanwhile, etc.) come back verbatim
// as *api.Error with no retry; availability may have changed, so the user
// must reselect.
func (f *Flow) ConfirmBooking(ctx context.Context) (api.CreateBookingResponse, error) {
	playerID := f.store.PlayerID()
	if playerID == "" {
		return api.CreateBookingResponse{}, ErrNoPlayer
	}

	draft, err := f.store.LoadDraft()
	if err != nil {
		return api.CreateBookingResponse{}, err
	}

	req := api.CreateBookingRequest{
		PlayerPublicID: playerID,
		Date:           draft.Date,
		StartTime:      draft.Slot.StartTime.Format(time.RFC3339),
		ResourceType:   string(draft.Resource),
	}

	resp, err := f.client.CreateBooking(ctx, req)
	if err != nil {
		return api.CreateBookingResponse{}, err
	}

	if err := f.store.SetActiveBooking(resp.BookingPublicID); err != nil {
		return api.CreateBookingResponse{}, err
	}
	f.logger.Infow("booking created", "bookingId", resp.BookingPublicID, "date", draft.Date, "resource", draft.Resource)
	return resp, nil
}
