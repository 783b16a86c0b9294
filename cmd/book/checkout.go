package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"crease/internal/payments"
)

// terminalCheckout stands in for the hosted Razorpay overlay against a real
// backend: the user completes the payment in their browser and pastes the
// proof back. An empty payment id dismisses the checkout.
type terminalCheckout struct{}

func (t *terminalCheckout) Open(ctx context.Context, order payments.Order) (payments.Proof, error) {
	fmt.Printf("\nComplete the payment in your browser (order %s, %d %s, key %s).\n",
		order.OrderID, order.Amount, order.Currency, order.KeyID)

	paymentID, err := prompt(ctx, "Razorpay payment id (empty to dismiss): ")
	if err != nil {
		return payments.Proof{}, err
	}
	if paymentID == "" {
		return payments.Proof{}, payments.ErrDismissed
	}

	signature, err := prompt(ctx, "Razorpay signature: ")
	if err != nil {
		return payments.Proof{}, err
	}

	return payments.Proof{OrderID: order.OrderID, PaymentID: paymentID, Signature: signature}, nil
}

func prompt(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
