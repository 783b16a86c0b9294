package payments

import (
	"context"
	"errors"
)

// ErrDismissed means the user closed the checkout without completing it.
// The payment stage returns to a payable idle state; booking state is
// untouched.
var ErrDismissed = errors.New("checkout dismissed")

// Order is the server-created checkout handle for a pending booking.
type Order struct {
	OrderID   string
	Amount    int
	Currency  string
	KeyID     string
	BookingID string
}

// Proof is what the checkout hands back on completion. It is necessary but
// not sufficient: only server-side verification of the proof confirms the
// booking.
type Proof struct {
	OrderID   string
	PaymentID string
	Signature string
}

// CheckoutGateway hands control to a third-party checkout for one order and
// blocks until it completes, is dismissed, or ctx is cancelled.
type CheckoutGateway interface {
	Open(ctx context.Context, order Order) (Proof, error)
}
