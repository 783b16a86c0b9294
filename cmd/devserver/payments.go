package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"crease/internal/booking"
	"crease/internal/devstore"
	"crease/internal/payments"
)

type paymentOrderEnvelope struct {
	Amount          int    `json:"amount"`
	Currency        string `json:"currency"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	RazorpayKeyID   string `json:"razorpayKeyId"`
}

// createPaymentOrderHandler issues a checkout handle for a booking that is
// still inside its payment window.
func (app *application) createPaymentOrderHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}

	if b.Status != booking.StatusPendingPayment {
		app.conflictResponse(w, r, fmt.Errorf("booking is %s, not awaiting payment", b.Status))
		return
	}
	if !b.ExpiresAt.After(time.Now()) {
		app.conflictResponse(w, r, fmt.Errorf("payment window has expired"))
		return
	}

	order := &devstore.Order{
		ID:              "order_" + uuid.NewString(),
		BookingPublicID: b.PublicID,
		Amount:          b.Amount,
		Currency:        "INR",
		CreatedAt:       time.Now(),
	}
	if err := app.store.Orders.Create(order); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, paymentOrderEnvelope{
		Amount:          order.Amount,
		Currency:        order.Currency,
		RazorpayOrderID: order.ID,
		RazorpayKeyID:   app.config.razorpay.keyID,
	})
}

type VerifyPaymentPayload struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

// verifyPaymentHandler checks the checkout proof and only then flips the
// booking to CONFIRMED. The checkout's client-side callback proves nothing
// on its own.
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload VerifyPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := booking.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	order, err := app.store.Orders.Get(payload.RazorpayOrderID)
	if err != nil {
		if errors.Is(err, devstore.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return
	}

	b, err := app.store.Bookings.GetByPublicID(order.BookingPublicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if b.PlayerID != getPlayerFromContext(r).ID {
		app.forbiddenResponse(w, r)
		return
	}

	if !payments.VerifySignature(payload.RazorpayOrderID, payload.RazorpayPaymentID,
		payload.RazorpaySignature, app.config.razorpay.keySecret) {
		app.badRequestResponse(w, r, fmt.Errorf("payment verification failed"))
		return
	}

	if b.Status != booking.StatusPendingPayment {
		app.conflictResponse(w, r, fmt.Errorf("booking is %s, cannot verify payment", b.Status))
		return
	}
	if !b.ExpiresAt.After(time.Now()) {
		app.conflictResponse(w, r, fmt.Errorf("payment window has expired"))
		return
	}

	if err := app.store.Bookings.SetStatus(b.PublicID, booking.StatusConfirmed); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("payment verified", "bookingId", b.PublicID, "orderId", order.ID)
	app.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "payment verified",
	})
}
