// Package slots renders server availability snapshots for one (date,
// resource) pair at a time: bucket partition by the server's time-of-day
// tag, selectability rules, and a stale-response guard for overlapping
// fetches.
package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"crease/internal/api"
	"crease/internal/booking"
	"crease/internal/task"
)

// ErrUnavailable is the generic load failure surfaced to the user; the
// underlying cause is logged, not rendered.
var ErrUnavailable = errors.New("unable to load available slots")

// ErrPastDate rejects a date before today locally, without a network call.
var ErrPastDate = errors.New("date must be today or later")

type fetcher interface {
	SlotAvailability(ctx context.Context, date string, resource booking.ResourceType) (api.AvailabilityResponse, error)
}

// Bucket is one rendered time-of-day group. Empty buckets are not rendered.
type Bucket struct {
	Type    booking.SlotType
	Windows []booking.SlotWindow
}

// View holds the current availability snapshot. Load calls for newer inputs
// invalidate responses still in flight for older ones: each fetch is tagged
// with a generation, and a resolution whose generation is no longer current
// is discarded without touching state.
type View struct {
	client fetcher
	clock  task.Clock
	logger *zap.SugaredLogger

	mu         sync.Mutex
	generation uint64
	date       string
	resource   booking.ResourceType
	buckets    []Bucket
	message    string
}

func NewView(client fetcher, clock task.Clock, logger *zap.SugaredLogger) *View {
	return &View{client: client, clock: clock, logger: logger}
}

// Load fetches availability for the pair and replaces the snapshot, unless
// a newer Load started meanwhile. Any transport or server failure clears
// the list entirely; a half-updated snapshot is never rendered.
func (v *View) Load(ctx context.Context, date string, resource booking.ResourceType) error {
	if !resource.Valid() {
		return fmt.Errorf("unknown resource type %q", resource)
	}
	day, err := booking.ParseDate(date, v.clock.Now().Location())
	if err != nil {
		return err
	}
	if day.Before(today(v.clock.Now())) {
		return ErrPastDate
	}

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.date = date
	v.resource = resource
	v.mu.Unlock()

	resp, err := v.client.SlotAvailability(ctx, date, resource)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		// A newer request was issued while this one was in flight.
		v.logger.Debugw("discarding stale availability response", "date", date, "resource", resource)
		return nil
	}
	if err != nil {
		v.buckets = nil
		v.message = ""
		v.logger.Warnw("availability load failed", "date", date, "resource", resource, "error", err)
		return ErrUnavailable
	}

	v.buckets = partition(resp.Slots)
	v.message = resp.Message
	return nil
}

// Buckets returns the non-empty time-of-day groups of the current snapshot.
func (v *View) Buckets() []Bucket {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Bucket, len(v.buckets))
	copy(out, v.buckets)
	return out
}

// Message is the server's optional note on the snapshot (closed day etc.).
func (v *View) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Selectable reports whether a window can be picked right now. Fully booked
// windows never qualify; for today's date the window must not have started
// yet; future dates depend only on the available count.
func (v *View) Selectable(w booking.SlotWindow) bool {
	v.mu.Lock()
	date := v.date
	v.mu.Unlock()
	return Selectable(w, date, v.clock.Now())
}

// Selectable is the pure rule, exported for stage code rechecking a pick
// just before drafting it.
func Selectable(w booking.SlotWindow, date string, now time.Time) bool {
	if w.AvailableCount <= 0 {
		return false
	}
	day, err := booking.ParseDate(date, now.Location())
	if err != nil {
		return false
	}
	t := today(now)
	if day.Before(t) {
		return false
	}
	if day.Equal(t) && !w.StartTime.After(now) {
		return false
	}
	return true
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// partition groups windows by the server-supplied tag. Bucket order is
// fixed morning, afternoon, evening; empty groups are dropped.
func partition(windows []booking.SlotWindow) []Bucket {
	byType := map[booking.SlotType][]booking.SlotWindow{}
	for _, w := range windows {
		byType[w.SlotType] = append(byType[w.SlotType], w)
	}

	var out []Bucket
	for _, st := range []booking.SlotType{booking.SlotMorning, booking.SlotAfternoon, booking.SlotEvening} {
		if ws := byType[st]; len(ws) > 0 {
			out = append(out, Bucket{Type: st, Windows: ws})
		}
	}
	return out
}
