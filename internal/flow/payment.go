package flow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"crease/internal/api"
	"crease/internal/booking"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/task"
)

var (
	// ErrBookingExpired means the payment window closed; the user starts
	// over from slot selection.
	ErrBookingExpired = errors.New("booking expired, start over")

	// ErrVerificationFailed is a definitive server rejection of the proof.
	// Local booking state is left untouched so the user can retry from the
	// same payment screen.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrVerificationPending means the verification call timed out with the
	// outcome unknown. The server may still have confirmed; the caller
	// should proceed to the polling stage, which resolves the true state.
	ErrVerificationPending = errors.New("payment verification pending")

	// ErrPaymentInProgress rejects a second Pay while one is running.
	ErrPaymentInProgress = errors.New("payment already in progress")
)

// PaymentState is the payment page's render state.
type PaymentState int

const (
	PaymentIdle PaymentState = iota
	PaymentPaying
	PaymentExpired
	PaymentVerified
)

// PaymentStage holds one booking's payment screen: fetched detail, a local
// countdown mirror of the server's expiry, and the pay action. The local
// countdown is UI only; the server remains the source of truth on expiry.
type PaymentStage struct {
	flow      *Flow
	bookingID string
	detail    booking.Detail

	mu    sync.Mutex
	state PaymentState
}

// EnterPayment requires a persisted booking identifier; absence is
// ErrRedirectToSlots, a hard redirect with no error dialog and no network
// request.
func (f *Flow) EnterPayment(ctx context.Context) (*PaymentStage, error) {
	id, err := f.store.ActiveBooking()
	if errors.Is(err, session.ErrNoBooking) {
		return nil, ErrRedirectToSlots
	}
	if err != nil {
		return nil, err
	}

	detail, err := f.client.BookingDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &PaymentStage{flow: f, bookingID: id, detail: detail}
	if p.Remaining() == 0 {
		p.state = PaymentExpired
	}
	return p, nil
}

func (p *PaymentStage) Detail() booking.Detail { return p.detail }
func (p *PaymentStage) BookingID() string      { return p.bookingID }

func (p *PaymentStage) State() PaymentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Remaining is the whole seconds left until expiry, floored at zero.
func (p *PaymentStage) Remaining() int {
	now := p.flow.runner.Clock().Now()
	left := p.detail.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// FormatRemaining renders a second count as M:SS for the countdown display.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// StartCountdown ticks once per second with the remaining seconds. When the
// count reaches zero the stage flips to expired, onTick fires a final time
// with zero, and the ticker stops itself; pay is unreachable from then on.
func (p *PaymentStage) StartCountdown(onTick func(remaining int)) *task.Handle {
	return p.flow.runner.Every(time.Second, func(h *task.Handle) {
		remaining := p.Remaining()
		if remaining == 0 {
			p.mu.Lock()
			if p.state == PaymentIdle {
				p.state = PaymentExpired
			}
			p.mu.Unlock()
			onTick(0)
			h.Cancel()
			return
		}
		onTick(remaining)
	})
}

// Pay runs order creation, checkout, and verification. Only a successful
// verification clears the stored draft and booking id and flips the stage to
// verified; every other outcome leaves booking state exactly as it was.
func (p *PaymentStage) Pay(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case PaymentExpired:
		p.mu.Unlock()
		return ErrBookingExpired
	case PaymentPaying:
		p.mu.Unlock()
		return ErrPaymentInProgress
	case PaymentVerified:
		p.mu.Unlock()
		return nil
	}
	if p.Remaining() == 0 {
		p.state = PaymentExpired
		p.mu.Unlock()
		return ErrBookingExpired
	}
	p.state = PaymentPaying
	p.mu.Unlock()

	err := p.pay(ctx)

	p.mu.Lock()
	if err == nil {
		p.state = PaymentVerified
	} else if p.state == PaymentPaying {
		p.state = PaymentIdle
	}
	p.mu.Unlock()
	return err
}

func (p *PaymentStage) pay(ctx context.Context) error {
	order, err := p.flow.client.CreatePaymentOrder(ctx, p.bookingID)
	if err != nil {
		return err
	}

	proof, err := p.flow.checkout.Open(ctx, payments.Order{
		OrderID:   order.RazorpayOrderID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		KeyID:     order.RazorpayKeyID,
		BookingID: p.bookingID,
	})
	if err != nil {
		// Dismissal included: back to payable idle, nothing altered.
		return err
	}

	// The checkout callback alone never proves anything; payment capture
	// and booking confirmation are verified asynchronously server-side.
	err = p.flow.client.VerifyPayment(ctx, api.VerifyPaymentRequest{
		RazorpayOrderID:   proof.OrderID,
		RazorpayPaymentID: proof.PaymentID,
		RazorpaySignature: proof.Signature,
	})
	if err != nil {
		if isTimeout(err) {
			p.flow.logger.Warnw("verification timed out, outcome unknown", "bookingId", p.bookingID)
			return ErrVerificationPending
		}
		p.flow.logger.Warnw("verification rejected", "bookingId", p.bookingID, "error", err)
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if err := p.flow.store.ClearBookingState(); err != nil {
		return err
	}
	p.flow.logger.Infow("payment verified", "bookingId", p.bookingID)
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
