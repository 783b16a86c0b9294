package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crease/internal/booking"
	"crease/internal/flow"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/slots"
	"crease/internal/task"
)

// runWizard walks the booking flow front to back: login, slot selection,
// draft, confirmation, payment, confirmation polling. Each screen maps to
// one page of the original front-end.
func (app *application) runWizard() error {
	ctx := context.Background()

	if app.session.TokenExpired(time.Now()) {
		if err := app.loginScreen(ctx); err != nil {
			return err
		}
	}
	fmt.Printf("Welcome, %s.\n", app.session.PlayerName())

	// An active booking id means a payment was started and not finished;
	// resume there rather than drafting a new selection.
	if _, err := app.session.ActiveBooking(); err == nil {
		fmt.Println("You have a booking awaiting payment.")
		return app.paymentScreen(ctx)
	}

	for {
		if err := app.slotSelectionScreen(ctx); err != nil {
			return err
		}
		if err := app.confirmScreen(ctx); err != nil {
			if errors.Is(err, flow.ErrRedirectToSlots) {
				continue
			}
			return err
		}
		return app.paymentScreen(ctx)
	}
}

func (app *application) loginScreen(ctx context.Context) error {
	fmt.Println("-- Log in --")
	email, err := prompt(ctx, "Email: ")
	if err != nil {
		return err
	}
	password, err := prompt(ctx, "Password: ")
	if err != nil {
		return err
	}
	if err := app.client.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

func (app *application) slotSelectionScreen(ctx context.Context) error {
	fmt.Println("\n-- Book a slot --")

	fmt.Println("Resources:")
	for i, r := range booking.ResourceTypes {
		fmt.Printf("  %d. %s\n", i+1, r)
	}
	choice, err := promptInt(ctx, "Resource: ", 1, len(booking.ResourceTypes))
	if err != nil {
		return err
	}
	resource := booking.ResourceTypes[choice-1]

	today := time.Now().Format(booking.DateLayout)
	date, err := prompt(ctx, fmt.Sprintf("Date [%s]: ", today))
	if err != nil {
		return err
	}
	if date == "" {
		date = today
	}

	view := slots.NewView(app.client, task.RealClock(), app.logger)
	if err := view.Load(ctx, date, resource); err != nil {
		if errors.Is(err, slots.ErrUnavailable) || errors.Is(err, slots.ErrPastDate) {
			fmt.Println(err)
			return app.slotSelectionScreen(ctx)
		}
		return err
	}
	if msg := view.Message(); msg != "" {
		fmt.Println(msg)
	}

	type option struct {
		window booking.SlotWindow
	}
	var options []option
	for _, bucket := range view.Buckets() {
		fmt.Printf("\n%s\n", strings.ToUpper(string(bucket.Type)))
		for _, w := range bucket.Windows {
			if !view.Selectable(w) {
				continue
			}
			options = append(options, option{window: w})
			lights := ""
			if w.LightsRequired {
				lights = " (floodlights)"
			}
			fmt.Printf("  %d. %s - %s  ₹%d%s\n", len(options),
				w.StartTime.Format("15:04"), w.EndTime.Format("15:04"), w.Price, lights)
		}
	}
	if len(options) == 0 {
		fmt.Println("No selectable slots for that day.")
		return app.slotSelectionScreen(ctx)
	}

	pick, err := promptInt(ctx, "Slot: ", 1, len(options))
	if err != nil {
		return err
	}

	return app.flow.SaveDraft(date, resource, options[pick-1].window)
}

func (app *application) confirmScreen(ctx context.Context) error {
	draft, err := app.flow.LoadDraft()
	if errors.Is(err, session.ErrNoDraft) {
		fmt.Println("No slot selection found; start again.")
		return flow.ErrRedirectToSlots
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n-- Confirm booking --\n%s  %s - %s  %s  ₹%d\n",
		draft.Date, draft.Slot.StartTime.Format("15:04"), draft.Slot.EndTime.Format("15:04"),
		draft.Resource, draft.Slot.Price)
	answer, err := prompt(ctx, "Confirm? [y/N]: ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		return flow.ErrRedirectToSlots
	}

	resp, err := app.flow.ConfirmBooking(ctx)
	if err != nil {
		if errors.Is(err, flow.ErrNoPlayer) {
			fmt.Println("Select a player before booking.")
			return flow.ErrRedirectToSlots
		}
		// Server rejections (slot taken meanwhile) are shown verbatim; the
		// user must reselect since availability may have changed.
		fmt.Println("Booking failed:", err)
		return flow.ErrRedirectToSlots
	}
	fmt.Println("Booking created:", resp.BookingPublicID)
	return nil
}

func (app *application) paymentScreen(ctx context.Context) error {
	stage, err := app.flow.EnterPayment(ctx)
	if errors.Is(err, flow.ErrRedirectToSlots) {
		fmt.Println("No booking awaiting payment; start again.")
		return nil
	}
	if err != nil {
		return err
	}

	detail := stage.Detail()
	fmt.Printf("\n-- Payment --\nBooking %s  %s  %s  %s  ₹%d\n",
		detail.BookingPublicID, detail.Date, detail.Slot, detail.Resource, detail.Amount)

	countdown := stage.StartCountdown(func(remaining int) {
		if remaining == 0 {
			fmt.Println("\nPayment window expired.")
			return
		}
		fmt.Printf("\rTime remaining: %s ", flow.FormatRemaining(remaining))
	})
	defer countdown.Cancel()

	for {
		answer, err := prompt(ctx, "\nPress enter to pay (or q to abandon): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "q") {
			return nil
		}
		if stage.State() == flow.PaymentExpired {
			fmt.Println("This booking expired; start over from slot selection.")
			return nil
		}

		err = stage.Pay(ctx)
		switch {
		case err == nil:
			countdown.Cancel()
			fmt.Println("Payment verified.")
			return app.pollScreen(ctx, stage.BookingID())
		case errors.Is(err, payments.ErrDismissed):
			fmt.Println("Checkout dismissed.")
			// back to the payable idle state
		case errors.Is(err, flow.ErrVerificationFailed):
			fmt.Println("Payment verification failed. You can retry from here.")
		case errors.Is(err, flow.ErrVerificationPending):
			countdown.Cancel()
			fmt.Println("Verification is taking long; checking booking status...")
			return app.pollScreen(ctx, stage.BookingID())
		case errors.Is(err, flow.ErrBookingExpired):
			fmt.Println("This booking expired; start over from slot selection.")
			return nil
		default:
			fmt.Println("Payment failed:", err)
		}
	}
}

func (app *application) pollScreen(ctx context.Context, bookingID string) error {
	handle := task.NewHandle()
	defer handle.Cancel()

	result, err := app.flow.PollConfirmation(ctx, bookingID, handle, func(attempt int) {
		fmt.Printf("\rChecking booking status (attempt %d)... ", attempt)
	})
	if errors.Is(err, flow.ErrRedirectHome) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	switch result.Outcome {
	case flow.PollConfirmed:
		d := result.Detail
		fmt.Printf("Booking confirmed!\n%s  %s  %s  %s  (%s)\n",
			d.BookingPublicID, d.Date, d.Slot, d.Resource, d.PlayerName)
	case flow.PollNotCompleted:
		fmt.Printf("Booking was not completed (%s).\n", result.Detail.Status)
	case flow.PollTimedOut:
		fmt.Println("This is taking longer than expected. Your booking may still confirm; check again later.")
	case flow.PollUnreachable:
		fmt.Println("Could not reach the server to check your booking:", result.Err)
	}
	return nil
}

func promptInt(ctx context.Context, label string, min, max int) (int, error) {
	for {
		raw, err := prompt(ctx, label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err == nil && n >= min && n <= max {
			return n, nil
		}
		fmt.Printf("Enter a number between %d and %d.\n", min, max)
	}
}
