package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// Signature computes the Razorpay payment proof over orderID|paymentID.
// The devserver verifies the same construction; against the real backend the
// signature arrives from the hosted checkout and is only passed through.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a proof in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	want := Signature(orderID, paymentID, secret)
	return hmac.Equal([]byte(want), []byte(signature))
}

// DevCheckout completes checkouts instantly by signing with the shared dev
// secret. It stands in for the hosted Razorpay overlay when the client runs
// against the devserver.
type DevCheckout struct {
	Secret string
}

func (d *DevCheckout) Open(ctx context.Context, order Order) (Proof, error) {
	if err := ctx.Err(); err != nil {
		return Proof{}, err
	}
	paymentID := "pay_" + uuid.NewString()
	return Proof{
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Signature: Signature(order.OrderID, paymentID, d.Secret),
	}, nil
}
