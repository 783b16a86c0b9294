// Package devstore is the devserver's in-memory persistence: enough state
// to exercise the full booking and payment flow locally, with the same
// lifecycle rules the production backend enforces.
package devstore

import (
	"errors"
	"time"

	"crease/internal/booking"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrConflict  = errors.New("resource already exists")
	ErrSlotTaken = errors.New("selected slot is no longer available")
)

// PendingTTL is how long a PENDING_PAYMENT booking holds its slot before
// the sweeper expires it.
const PendingTTL = 7 * time.Minute

type Player struct {
	ID           int64
	PublicID     string
	Name         string
	Email        string
	PasswordHash []byte
}

// SlotTemplate drives availability generation for one resource category.
// Windows are hourly between OpenHour and CloseHour.
type SlotTemplate struct {
	Resource     booking.ResourceType
	OpenHour     int
	CloseHour    int
	Units        int
	Price        int
	EveningPrice int
	// LightsFromHour marks windows starting at or after this hour as
	// requiring floodlights.
	LightsFromHour int
}

type Booking struct {
	ID        int64
	PublicID  string
	PlayerID  int64
	Resource  booking.ResourceType
	Date      string
	StartTime time.Time
	EndTime   time.Time
	Amount    int
	Status    booking.Status
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Order is a Razorpay-style payment order tied to one pending booking.
type Order struct {
	ID              string
	BookingPublicID string
	Amount          int
	Currency        string
	CreatedAt       time.Time
}

type Storage struct {
	Players interface {
		Create(name, email string, passwordHash []byte) (*Player, error)
		GetByEmail(email string) (*Player, error)
		GetByPublicID(publicID string) (*Player, error)
	}
	Bookings interface {
		Create(b *Booking) error
		// CreateIfAvailable atomically recounts the window's holders
		// against units and inserts only when one is free; a full window
		// is ErrSlotTaken.
		CreateIfAvailable(b *Booking, units int, now time.Time) error
		GetByPublicID(publicID string) (*Booking, error)
		// CountHolding counts bookings that still hold a unit of the given
		// window: CONFIRMED, or PENDING_PAYMENT and not yet past expiry.
		CountHolding(resource booking.ResourceType, start time.Time, now time.Time) int
		SetStatus(publicID string, status booking.Status) error
		// ExpireOverdue flips overdue PENDING_PAYMENT bookings to EXPIRED
		// and returns how many it touched.
		ExpireOverdue(now time.Time) int
	}
	Orders interface {
		Create(o *Order) error
		Get(id string) (*Order, error)
	}
	Templates interface {
		For(resource booking.ResourceType) (SlotTemplate, bool)
		Put(t SlotTemplate)
	}
}

func NewStorage(hashidsSalt string) Storage {
	return Storage{
		Players:   newPlayerStore(hashidsSalt),
		Bookings:  newBookingStore(),
		Orders:    newOrderStore(),
		Templates: newTemplateStore(),
	}
}
