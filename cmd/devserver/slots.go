package main

import (
	"fmt"
	"net/http"
	"time"

	"crease/internal/booking"
)

type availabilityEnvelope struct {
	Available bool                 `json:"available"`
	Message   string               `json:"message,omitempty"`
	Slots     []booking.SlotWindow `json:"slots"`
}

// slotAvailabilityHandler generates the day's hourly windows from the
// resource's template and subtracts bookings that still hold a unit. The
// snapshot includes already-started windows; filtering those is the
// client's concern.
func (app *application) slotAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		app.badRequestResponse(w, r, fmt.Errorf("missing date"))
		return
	}
	date, err := booking.ParseDate(dateStr, time.Local)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	resource := booking.ResourceType(r.URL.Query().Get("resourceType"))
	if !resource.Valid() {
		app.badRequestResponse(w, r, fmt.Errorf("unknown resource type %q", resource))
		return
	}

	tmpl, ok := app.store.Templates.For(resource)
	if !ok {
		app.jsonResponse(w, http.StatusOK, availabilityEnvelope{
			Available: false,
			Message:   "no slots configured for this resource",
			Slots:     []booking.SlotWindow{},
		})
		return
	}

	now := time.Now()
	slots := make([]booking.SlotWindow, 0, tmpl.CloseHour-tmpl.OpenHour)
	for hour := tmpl.OpenHour; hour < tmpl.CloseHour; hour++ {
		start := date.Add(time.Duration(hour) * time.Hour)
		holding := app.store.Bookings.CountHolding(resource, start, now)
		available := tmpl.Units - holding
		if available < 0 {
			available = 0
		}

		price := tmpl.Price
		lights := hour >= tmpl.LightsFromHour
		if lights {
			price = tmpl.EveningPrice
		}

		slots = append(slots, booking.SlotWindow{
			StartTime:      start,
			EndTime:        start.Add(time.Hour),
			AvailableCount: available,
			Price:          price,
			SlotType:       slotTypeFor(hour),
			LightsRequired: lights,
		})
	}

	app.jsonResponse(w, http.StatusOK, availabilityEnvelope{Available: true, Slots: slots})
}

func slotTypeFor(hour int) booking.SlotType {
	switch {
	case hour < 12:
		return booking.SlotMorning
	case hour < 17:
		return booking.SlotAfternoon
	default:
		return booking.SlotEvening
	}
}
