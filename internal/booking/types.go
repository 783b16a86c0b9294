package booking

import (
	"fmt"
	"time"
)

// ResourceType identifies a bookable resource category at the academy.
type ResourceType string

const (
	ResourceNet            ResourceType = "net"
	ResourceBowlingMachine ResourceType = "bowling_machine"
	ResourceCenterWicket   ResourceType = "center_wicket"
)

// ResourceTypes lists every valid resource category, in display order.
var ResourceTypes = []ResourceType{ResourceNet, ResourceBowlingMachine, ResourceCenterWicket}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceNet, ResourceBowlingMachine, ResourceCenterWicket:
		return true
	}
	return false
}

// SlotType is the server-assigned time-of-day bucket for a window.
// The client never re-derives it from the clock.
type SlotType string

const (
	SlotMorning   SlotType = "morning"
	SlotAfternoon SlotType = "afternoon"
	SlotEvening   SlotType = "evening"
)

// Status is the lifecycle state of a server-owned booking.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
	StatusExpired        Status = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusExpired
}

// SlotWindow is one bookable time range for a resource category on a date.
// Availability snapshots are advisory only; another player may take the
// window between fetch and submit.
type SlotWindow struct {
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	AvailableCount int       `json:"availableCount"`
	Price          int       `json:"price"`
	SlotType       SlotType  `json:"slotType"`
	LightsRequired bool      `json:"lightsRequired"`
}

// Draft is the client-only tentative selection carried from slot selection
// to confirmation. It has no server identity.
type Draft struct {
	Date     string       `json:"date" validate:"required,calendardate"`
	Resource ResourceType `json:"resource" validate:"required,resourcetype"`
	Slot     SlotWindow   `json:"slot"`
}

// DateLayout is the wire format for calendar dates, interpreted in the
// client's local timezone.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date string in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Detail is the booking view fetched before payment.
type Detail struct {
	BookingPublicID string    `json:"bookingPublicId"`
	PlayerName      string    `json:"playerName"`
	Date            string    `json:"date"`
	Slot            string    `json:"slot"`
	Resource        string    `json:"resource"`
	Amount          int       `json:"amount"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// StatusDetail is the polled view of a booking's current state.
type StatusDetail struct {
	BookingPublicID string `json:"bookingPublicId"`
	Status          Status `json:"status"`
	PlayerName      string `json:"playerName"`
	Date            string `json:"date"`
	Slot            string `json:"slot"`
	Resource        string `json:"resource"`
}
