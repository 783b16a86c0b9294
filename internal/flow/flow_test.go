package flow

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crease/internal/api"
	"crease/internal/booking"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/task"
)

// mockBackend implements the backend interface with per-call function
// fields plus call counters.
type mockBackend struct {
	createFn  func(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResponse, error)
	detailsFn func(ctx context.Context, bookingID string) (booking.Detail, error)
	orderFn   func(ctx context.Context, bookingID string) (api.PaymentOrder, error)
	verifyFn  func(ctx context.Context, req api.VerifyPaymentRequest) error
	statusFn  func(ctx context.Context, bookingID string) (booking.StatusDetail, error)
	cancelFn  func(ctx context.Context, bookingID string) error

	createCalls  int
	detailsCalls int
	orderCalls   int
	verifyCalls  int
	statusCalls  int
}

func (m *mockBackend) CreateBooking(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResponse, error) {
	m.createCalls++
	if m.createFn == nil {
		return api.CreateBookingResponse{}, nil
	}
	return m.createFn(ctx, req)
}

func (m *mockBackend) BookingDetails(ctx context.Context, bookingID string) (booking.Detail, error) {
	m.detailsCalls++
	if m.detailsFn == nil {
		return booking.Detail{}, nil
	}
	return m.detailsFn(ctx, bookingID)
}

func (m *mockBackend) CreatePaymentOrder(ctx context.Context, bookingID string) (api.PaymentOrder, error) {
	m.orderCalls++
	if m.orderFn == nil {
		return api.PaymentOrder{}, nil
	}
	return m.orderFn(ctx, bookingID)
}

func (m *mockBackend) VerifyPayment(ctx context.Context, req api.VerifyPaymentRequest) error {
	m.verifyCalls++
	if m.verifyFn == nil {
		return nil
	}
	return m.verifyFn(ctx, req)
}

func (m *mockBackend) BookingStatus(ctx context.Context, bookingID string) (booking.StatusDetail, error) {
	m.statusCalls++
	if m.statusFn == nil {
		return booking.StatusDetail{}, nil
	}
	return m.statusFn(ctx, bookingID)
}

func (m *mockBackend) CancelBooking(ctx context.Context, bookingID string) error {
	if m.cancelFn == nil {
		return nil
	}
	return m.cancelFn(ctx, bookingID)
}

type scriptedCheckout struct {
	openFn func(ctx context.Context, order payments.Order) (payments.Proof, error)
}

func (s *scriptedCheckout) Open(ctx context.Context, order payments.Order) (payments.Proof, error) {
	if s.openFn == nil {
		return payments.Proof{OrderID: order.OrderID, PaymentID: "pay_test", Signature: "sig"}, nil
	}
	return s.openFn(ctx, order)
}

func newTestFlow(t *testing.T, clock task.Clock, backend *mockBackend, checkout payments.CheckoutGateway) (*Flow, *session.Store) {
	t.Helper()
	store, err := session.New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	if checkout == nil {
		checkout = &scriptedCheckout{}
	}
	f := New(store, backend, checkout, task.NewRunner(clock), zap.NewNop().Sugar())
	return f, store
}

func storedDraft(start time.Time) booking.Draft {
	return booking.Draft{
		Date:     start.Format(booking.DateLayout),
		Resource: booking.ResourceNet,
		Slot: booking.SlotWindow{
			StartTime:      start,
			EndTime:        start.Add(time.Hour),
			AvailableCount: 1,
			Price:          800,
			SlotType:       booking.SlotEvening,
		},
	}
}
