package flow

import (
	"context"
	"time"

	"crease/internal/booking"
	"crease/internal/task"
)

// PollOutcome is the terminal state of the confirmation-polling stage.
type PollOutcome int

const (
	// PollConfirmed: the booking reached CONFIRMED; render success detail.
	PollConfirmed PollOutcome = iota
	// PollNotCompleted: CANCELLED or EXPIRED; a normal failure view, not an
	// exception.
	PollNotCompleted
	// PollTimedOut: the attempt budget ran out while still pending. A soft
	// fail; the booking may still confirm out-of-band.
	PollTimedOut
	// PollUnreachable: a transport error; the failed request is not retried.
	PollUnreachable
)

const (
	pollMaxAttempts = 10
	pollInterval    = 3 * time.Second
)

// PollResult is what the stage renders once polling stops.
type PollResult struct {
	Outcome  PollOutcome
	Detail   booking.StatusDetail
	Attempts int
	Err      error
}

// PollConfirmation polls the booking-status endpoint until a terminal state
// or the attempt budget is spent. The booking id arrives via navigation
// state, not the store; an empty id is ErrRedirectHome with no request
// issued.
//
// Cancelling the handle both skips the pending delay and suppresses an
// in-flight response: no result is produced after the caller navigated away.
// onAttempt, if non-nil, fires before each request with the attempt number.
func (f *Flow) PollConfirmation(ctx context.Context, bookingID string, h *task.Handle, onAttempt func(attempt int)) (PollResult, error) {
	if bookingID == "" {
		return PollResult{}, ErrRedirectHome
	}
	if h == nil {
		h = task.NewHandle()
	}

	for attempt := 1; ; attempt++ {
		if onAttempt != nil {
			onAttempt(attempt)
		}

		detail, err := f.client.BookingStatus(ctx, bookingID)
		if h.Cancelled() {
			return PollResult{}, ErrCancelled
		}
		if err != nil {
			f.logger.Warnw("status poll failed", "bookingId", bookingID, "attempt", attempt, "error", err)
			return PollResult{Outcome: PollUnreachable, Attempts: attempt, Err: err}, nil
		}

		switch detail.Status {
		case booking.StatusConfirmed:
			f.logger.Infow("booking confirmed", "bookingId", bookingID, "attempts", attempt)
			return PollResult{Outcome: PollConfirmed, Detail: detail, Attempts: attempt}, nil
		case booking.StatusCancelled, booking.StatusExpired:
			return PollResult{Outcome: PollNotCompleted, Detail: detail, Attempts: attempt}, nil
		}

		if attempt >= pollMaxAttempts {
			return PollResult{Outcome: PollTimedOut, Detail: detail, Attempts: attempt}, nil
		}

		select {
		case <-ctx.Done():
			return PollResult{}, ErrCancelled
		case <-h.Done():
			return PollResult{}, ErrCancelled
		case <-f.runner.Clock().After(pollInterval):
		}
	}
}
