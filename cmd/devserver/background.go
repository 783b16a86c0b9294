package main

import (
	"time"
)

func (app *application) expirePendingBookingsEvery30Secs() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			if n := app.store.Bookings.ExpireOverdue(time.Now()); n > 0 {
				app.logger.Infow("expired overdue bookings", "count", n)
			}
		}
	}()
}
