package services

import "pelotero/internal/store"

// App bundles the services a binary needs over one store.
type App struct {
	Bookings  *BookingService
	Movements *MovementService
	Stats     *StatsService
	Reset     *ResetService
}

// NewApp wires every service to st. pub may be nil.
func NewApp(st store.Store, pub ChangePublisher, opts ...Option) *App {
	bookings := NewBookingService(st, pub, opts...)
	movements := NewMovementService(st, pub, opts...)
	return &App{
		Bookings:  bookings,
		Movements: movements,
		Stats:     NewStatsService(st, opts...),
		Reset:     NewResetService(bookings, movements),
	}
}
