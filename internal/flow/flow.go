// Package flow coordinates the booking wizard: slot draft, confirmation,
// payment, and confirmation polling. State moves strictly forward between
// stages; the session store is the reload-survival cache, and each store key
// has exactly one writing stage at a time.
package flow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"crease/internal/api"
	"crease/internal/booking"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/task"
)

var (
	// ErrNoPlayer is a local validation failure; the server is never called.
	ErrNoPlayer = errors.New("select a player before booking")

	// ErrRedirectToSlots signals a hard redirect back to slot selection,
	// with no error dialog.
	ErrRedirectToSlots = errors.New("redirect to slot selection")

	// ErrRedirectHome signals an immediate redirect to the home route.
	ErrRedirectHome = errors.New("redirect home")

	// ErrCancelled means the stage was left before the operation resolved;
	// its result was discarded.
	ErrCancelled = errors.New("stage cancelled")
)

type backend interface {
	CreateBooking(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResponse, error)
	BookingDetails(ctx context.Context, bookingID string) (booking.Detail, error)
	CreatePaymentOrder(ctx context.Context, bookingID string) (api.PaymentOrder, error)
	VerifyPayment(ctx context.Context, req api.VerifyPaymentRequest) error
	BookingStatus(ctx context.Context, bookingID string) (booking.StatusDetail, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// Flow owns the stages' shared dependencies.
type Flow struct {
	store    *session.Store
	client   backend
	checkout payments.CheckoutGateway
	runner   *task.Runner
	logger   *zap.SugaredLogger
}

func New(store *session.Store, client backend, checkout payments.CheckoutGateway, runner *task.Runner, logger *zap.SugaredLogger) *Flow {
	return &Flow{
		store:    store,
		client:   client,
		checkout: checkout,
		runner:   runner,
		logger:   logger,
	}
}

// SaveDraft validates and persists the selection, making the confirmation
// stage reachable (also across a full restart).
func (f *Flow) SaveDraft(date string, resource booking.ResourceType, w booking.SlotWindow) error {
	d := booking.Draft{Date: date, Resource: resource, Slot: w}
	if err := booking.Validate.Struct(d); err != nil {
		return err
	}
	return f.store.SaveDraft(d)
}

// LoadDraft returns session.ErrNoDraft when absent; the confirmation stage
// treats that as terminal and sends the user back to slot selection.
func (f *Flow) LoadDraft() (booking.Draft, error) {
	return f.store.LoadDraft()
}

// Cancel requests server-side cancellation and clears local flow state.
func (f *Flow) Cancel(ctx context.Context, bookingID string) error {
	if err := f.client.CancelBooking(ctx, bookingID); err != nil {
		return err
	}
	return f.store.ClearBookingState()
}
