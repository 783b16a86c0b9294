package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_KnownVector(t *testing.T) {
	// HMAC-SHA256("order_1|pay_1", "secret"), hex encoded.
	sig := Signature("order_1", "pay_1", "secret")
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature("order_1", "pay_1", sig, "secret"))
	assert.False(t, VerifySignature("order_1", "pay_1", sig, "other-secret"))
	assert.False(t, VerifySignature("order_1", "pay_2", sig, "secret"))
}

func TestDevCheckout_SignsWithSharedSecret(t *testing.T) {
	gw := &DevCheckout{Secret: "s3cret"}
	proof, err := gw.Open(context.Background(), Order{OrderID: "order_abc", Amount: 800, Currency: "INR"})
	require.NoError(t, err)

	assert.Equal(t, "order_abc", proof.OrderID)
	assert.NotEmpty(t, proof.PaymentID)
	assert.True(t, VerifySignature(proof.OrderID, proof.PaymentID, proof.Signature, "s3cret"))
}

func TestDevCheckout_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := &DevCheckout{Secret: "s"}
	_, err := gw.Open(ctx, Order{OrderID: "order_abc"})
	assert.Error(t, err)
}
