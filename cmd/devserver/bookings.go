package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crease/internal/booking"
	"crease/internal/devstore"
)

type CreateBookingPayload struct {
	PlayerPublicID string `json:"playerPublicId" validate:"required"`
	Date           string `json:"date" validate:"required,calendardate"`
	StartTime      string `json:"startTime" validate:"required"`
	ResourceType   string `json:"resourceType" validate:"required,resourcetype"`
}

type bookingCreatedEnvelope struct {
	BookingPublicID string    `json:"bookingPublicId"`
	Status          string    `json:"status"`
	Amount          int       `json:"amount"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := booking.Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	player := getPlayerFromContext(r)
	if player.PublicID != payload.PlayerPublicID {
		app.forbiddenResponse(w, r)
		return
	}

	start, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid startTime: %w", err))
		return
	}

	resource := booking.ResourceType(payload.ResourceType)
	tmpl, ok := app.store.Templates.For(resource)
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("no slots configured for resource %q", resource))
		return
	}

	now := time.Now()
	if !start.After(now) {
		app.badRequestResponse(w, r, fmt.Errorf("slot start time has already passed"))
		return
	}

	price := tmpl.Price
	if start.Hour() >= tmpl.LightsFromHour {
		price = tmpl.EveningPrice
	}

	b := &devstore.Booking{
		PublicID:  app.bookingNums.Generate(player.ID),
		PlayerID:  player.ID,
		Resource:  resource,
		Date:      payload.Date,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Amount:    price,
		Status:    booking.StatusPendingPayment,
		ExpiresAt: now.Add(devstore.PendingTTL),
		CreatedAt: now,
	}
	// Capacity is checked inside the store's write lock; a pre-check here
	// would leave a window where two creates both see the last unit free.
	if err := app.store.Bookings.CreateIfAvailable(b, tmpl.Units, now); err != nil {
		if errors.Is(err, devstore.ErrSlotTaken) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("booking created", "bookingId", b.PublicID, "player", player.PublicID,
		"resource", resource, "start", start)

	app.jsonResponse(w, http.StatusCreated, bookingCreatedEnvelope{
		BookingPublicID: b.PublicID,
		Status:          string(b.Status),
		Amount:          b.Amount,
		ExpiresAt:       b.ExpiresAt,
	})
}

// ownedBooking loads the path booking and enforces ownership.
func (app *application) ownedBooking(w http.ResponseWriter, r *http.Request) (*devstore.Booking, bool) {
	b, err := app.store.Bookings.GetByPublicID(chi.URLParam(r, "bookingID"))
	if err != nil {
		if errors.Is(err, devstore.ErrNotFound) {
			app.notFoundResponse(w, r, err)
		} else {
			app.internalServerError(w, r, err)
		}
		return nil, false
	}
	if b.PlayerID != getPlayerFromContext(r).ID {
		app.forbiddenResponse(w, r)
		return nil, false
	}
	return b, true
}

func slotLabel(b *devstore.Booking) string {
	return fmt.Sprintf("%s - %s", b.StartTime.Format("15:04"), b.EndTime.Format("15:04"))
}

func (app *application) bookingDetailsHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}
	player := getPlayerFromContext(r)

	app.jsonResponse(w, http.StatusOK, booking.Detail{
		BookingPublicID: b.PublicID,
		PlayerName:      player.Name,
		Date:            b.Date,
		Slot:            slotLabel(b),
		Resource:        string(b.Resource),
		Amount:          b.Amount,
		ExpiresAt:       b.ExpiresAt,
	})
}

func (app *application) bookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}
	player := getPlayerFromContext(r)

	status := b.Status
	// Report expiry as soon as the deadline passes, even if the sweeper has
	// not run yet.
	if status == booking.StatusPendingPayment && !b.ExpiresAt.After(time.Now()) {
		status = booking.StatusExpired
	}

	app.jsonResponse(w, http.StatusOK, booking.StatusDetail{
		BookingPublicID: b.PublicID,
		Status:          status,
		PlayerName:      player.Name,
		Date:            b.Date,
		Slot:            slotLabel(b),
		Resource:        string(b.Resource),
	})
}

func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	b, ok := app.ownedBooking(w, r)
	if !ok {
		return
	}
	if b.Status == booking.StatusConfirmed {
		app.conflictResponse(w, r, fmt.Errorf("confirmed bookings must be cancelled through the academy office"))
		return
	}
	if err := app.store.Bookings.SetStatus(b.PublicID, booking.StatusCancelled); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.logger.Infow("booking cancelled", "bookingId", b.PublicID)
	w.WriteHeader(http.StatusNoContent)
}
