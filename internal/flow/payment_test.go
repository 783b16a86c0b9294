package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crease/internal/api"
	"crease/internal/booking"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/task"
)

func paymentFixture(t *testing.T, clock task.Clock, backend *mockBackend, checkout payments.CheckoutGateway, ttl time.Duration) (*PaymentStage, *session.Store) {
	t.Helper()
	if backend.detailsFn == nil {
		expires := clock.Now().Add(ttl)
		backend.detailsFn = func(ctx context.Context, bookingID string) (booking.Detail, error) {
			return booking.Detail{BookingPublicID: bookingID, Amount: 800, ExpiresAt: expires}, nil
		}
	}
	f, store := newTestFlow(t, clock, backend, checkout)
	require.NoError(t, store.SetCredentials("tok", "", "plr_1", "Demo"))
	require.NoError(t, store.SaveDraft(storedDraft(clock.Now().Add(24*time.Hour))))
	require.NoError(t, store.SetActiveBooking("CRS-AAAA-BBBB"))

	stage, err := f.EnterPayment(context.Background())
	require.NoError(t, err)
	return stage, store
}

func draftPresent(s *session.Store) bool {
	_, err := s.LoadDraft()
	return err == nil
}

func activePresent(s *session.Store) bool {
	_, err := s.ActiveBooking()
	return err == nil
}

func TestEnterPayment_MissingBookingRedirects(t *testing.T) {
	backend := &mockBackend{}
	f, _ := newTestFlow(t, task.RealClock(), backend, nil)

	_, err := f.EnterPayment(context.Background())
	assert.ErrorIs(t, err, ErrRedirectToSlots)
	assert.Zero(t, backend.detailsCalls, "redirect issues no network request")
}

func TestCountdown_DisplaysRemainingAndExpires(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	stage, _ := paymentFixture(t, clock, &mockBackend{}, nil, 125*time.Second)

	ticks := make(chan int)
	h := stage.StartCountdown(func(remaining int) { ticks <- remaining })
	defer h.Cancel()

	var last int
	for i := 0; i < 5; i++ {
		clock.AwaitWaiters(1)
		clock.Advance(time.Second)
		last = <-ticks
	}
	assert.Equal(t, 120, last)
	assert.Equal(t, "2:00", FormatRemaining(last))
}

func TestCountdown_ZeroStopsTickerAndDisablesPay(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{}
	stage, _ := paymentFixture(t, clock, backend, nil, 2*time.Second)

	ticks := make(chan int)
	h := stage.StartCountdown(func(remaining int) { ticks <- remaining })
	defer h.Cancel()

	clock.AwaitWaiters(1)
	clock.Advance(time.Second)
	assert.Equal(t, 1, <-ticks)

	clock.AwaitWaiters(1)
	clock.Advance(time.Second)
	assert.Equal(t, 0, <-ticks)

	assert.Equal(t, PaymentExpired, stage.State())
	err := stage.Pay(context.Background())
	assert.ErrorIs(t, err, ErrBookingExpired)
	assert.Zero(t, backend.orderCalls, "no payment initiation after expiry")
}

func TestPay_SuccessClearsFlowState(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	var verified api.VerifyPaymentRequest
	backend := &mockBackend{
		orderFn: func(ctx context.Context, bookingID string) (api.PaymentOrder, error) {
			return api.PaymentOrder{Amount: 800, Currency: "INR", RazorpayOrderID: "order_1"}, nil
		},
		verifyFn: func(ctx context.Context, req api.VerifyPaymentRequest) error {
			verified = req
			return nil
		},
	}
	checkout := &scriptedCheckout{openFn: func(ctx context.Context, order payments.Order) (payments.Proof, error) {
		return payments.Proof{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "sig_1"}, nil
	}}
	stage, store := paymentFixture(t, clock, backend, checkout, 5*time.Minute)

	require.NoError(t, stage.Pay(context.Background()))

	assert.Equal(t, PaymentVerified, stage.State())
	assert.Equal(t, "order_1", verified.RazorpayOrderID)
	assert.Equal(t, "pay_1", verified.RazorpayPaymentID)
	assert.Equal(t, "sig_1", verified.RazorpaySignature)
	assert.False(t, draftPresent(store), "draft cleared after verified payment")
	assert.False(t, activePresent(store), "active booking id cleared after verified payment")
}

func TestPay_VerificationFailureLeavesStateUntouched(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{
		verifyFn: func(ctx context.Context, req api.VerifyPaymentRequest) error {
			return &api.Error{Status: 400, Message: "payment verification failed"}
		},
	}
	stage, store := paymentFixture(t, clock, backend, nil, 5*time.Minute)

	err := stage.Pay(context.Background())
	assert.ErrorIs(t, err, ErrVerificationFailed)

	assert.Equal(t, PaymentIdle, stage.State(), "user can retry from the same screen")
	assert.True(t, draftPresent(store))
	assert.True(t, activePresent(store))
}

func TestPay_VerificationTimeoutIsPending(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{
		verifyFn: func(ctx context.Context, req api.VerifyPaymentRequest) error {
			return context.DeadlineExceeded
		},
	}
	stage, store := paymentFixture(t, clock, backend, nil, 5*time.Minute)

	err := stage.Pay(context.Background())
	assert.ErrorIs(t, err, ErrVerificationPending)

	// Outcome unknown: nothing cleared, polling resolves the truth.
	assert.True(t, draftPresent(store))
	assert.True(t, activePresent(store))
}

func TestPay_DismissedReturnsToIdle(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{}
	checkout := &scriptedCheckout{openFn: func(ctx context.Context, order payments.Order) (payments.Proof, error) {
		return payments.Proof{}, payments.ErrDismissed
	}}
	stage, store := paymentFixture(t, clock, backend, checkout, 5*time.Minute)

	err := stage.Pay(context.Background())
	assert.ErrorIs(t, err, payments.ErrDismissed)

	assert.Equal(t, PaymentIdle, stage.State())
	assert.Zero(t, backend.verifyCalls, "no verification without a completed checkout")
	assert.True(t, draftPresent(store))
	assert.True(t, activePresent(store))
}

func TestPay_AlreadyExpiredOnEntry(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{
		detailsFn: func(ctx context.Context, bookingID string) (booking.Detail, error) {
			return booking.Detail{BookingPublicID: bookingID, ExpiresAt: clock.Now().Add(-time.Minute)}, nil
		},
	}
	stage, _ := paymentFixture(t, clock, backend, nil, 0)

	assert.Equal(t, PaymentExpired, stage.State())
	assert.ErrorIs(t, stage.Pay(context.Background()), ErrBookingExpired)
	assert.Zero(t, backend.orderCalls)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "2:05", FormatRemaining(125))
	assert.Equal(t, "0:09", FormatRemaining(9))
	assert.Equal(t, "0:00", FormatRemaining(0))
	assert.Equal(t, "0:00", FormatRemaining(-3))
}

func TestPay_OrderCreationErrorSurfaces(t *testing.T) {
	clock := task.NewManual(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC))
	backend := &mockBackend{
		orderFn: func(ctx context.Context, bookingID string) (api.PaymentOrder, error) {
			return api.PaymentOrder{}, errors.New("order backend down")
		},
	}
	stage, store := paymentFixture(t, clock, backend, nil, 5*time.Minute)

	err := stage.Pay(context.Background())
	assert.Error(t, err)
	assert.Equal(t, PaymentIdle, stage.State())
	assert.True(t, activePresent(store))
}
