// Package sheets declares the spreadsheet mirror the worker writes to.
// The mirror is a read-only copy for the venue owner; the store stays
// the source of truth.
package sheets

import (
	"context"

	"pelotero/internal/core"
)

// Ports for outbound adapters.
type (
	BookingMirror interface {
		// UpsertBooking writes b to the row keyed by its id, appending
		// when no such row exists.
		UpsertBooking(ctx context.Context, b core.Booking) (rowRef string, err error)
		// ReplaceBookings rewrites the whole booking tab.
		ReplaceBookings(ctx context.Context, bs []core.Booking) error
	}

	MovementMirror interface {
		UpsertMovement(ctx context.Context, m core.Movement) (rowRef string, err error)
		// RemoveMovement clears the row keyed by id. A missing row is not an error.
		RemoveMovement(ctx context.Context, id int64) error
		ReplaceMovements(ctx context.Context, ms []core.Movement) error
	}

	Mirror interface {
		BookingMirror
		MovementMirror
	}
)
