// Package store declares the Record Store the services persist through,
// together with the structured predicates and partial updates both
// implementations (SQLite and memory) must honour.
package store

import (
	"context"
	"slices"
	"time"

	"pelotero/internal/core"
)

// Ports for outbound adapters.
type (
	BookingStore interface {
		InsertBooking(ctx context.Context, b core.Booking) (id int64, err error)
		// UpdateBooking applies patch to one row. An unknown id is a no-op.
		UpdateBooking(ctx context.Context, id int64, patch BookingPatch) error
		// UpdateBookings applies patch to every row matching f and returns
		// the number of rows touched.
		UpdateBookings(ctx context.Context, f BookingFilter, patch BookingPatch) (int64, error)
		SelectBookings(ctx context.Context, q BookingQuery) ([]core.Booking, error)
		// GetBooking returns core.ErrNotFound for an unknown id.
		GetBooking(ctx context.Context, id int64) (core.Booking, error)
	}

	MovementStore interface {
		InsertMovement(ctx context.Context, m core.Movement) (id int64, err error)
		UpdateMovement(ctx context.Context, id int64, patch MovementPatch) error
		UpdateMovements(ctx context.Context, f MovementFilter, patch MovementPatch) (int64, error)
		DeleteMovement(ctx context.Context, id int64) error
		SelectMovements(ctx context.Context, q MovementQuery) ([]core.Movement, error)
		GetMovement(ctx context.Context, id int64) (core.Movement, error)
	}

	// Store is the full Record Store.
	Store interface {
		BookingStore
		MovementStore
	}
)

// Order is the sort applied by Select*. The zero value sorts by date,
// newest first.
type Order int

const (
	OrderDateDesc Order = iota
	OrderDateAsc
)

// Bool returns a pointer to v, for the tri-state filter and patch fields.
func Bool(v bool) *bool { return &v }

// BookingFilter is a conjunction of predicates. Zero fields match
// everything. Status predicates see an unset status as pending.
type BookingFilter struct {
	Statuses    []core.BookingStatus // status IN (...)
	NotStatuses []core.BookingStatus // status NOT IN (...)
	Archived    *bool
	Excluded    *bool
	Before      time.Time // date < Before
}

func (f BookingFilter) Matches(b core.Booking) bool {
	st := b.Status.Normalize()
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, st) {
		return false
	}
	if slices.Contains(f.NotStatuses, st) {
		return false
	}
	if f.Archived != nil && b.Archived != *f.Archived {
		return false
	}
	if f.Excluded != nil && b.ExcludedFromStats != *f.Excluded {
		return false
	}
	if !f.Before.IsZero() && !b.Date.Before(f.Before) {
		return false
	}
	return true
}

type BookingQuery struct {
	Filter BookingFilter
	Order  Order
	Limit  int // 0 means no limit
}

// BookingPatch lists the columns an update overwrites; nil fields are
// left untouched.
type BookingPatch struct {
	Total        *core.Money
	Deposit      *core.Money
	Status       *core.BookingStatus
	Observations *string
	Archived     *bool
	Excluded     *bool
}

func (p BookingPatch) IsEmpty() bool {
	return p == (BookingPatch{})
}

// Apply returns b with the patch applied.
func (p BookingPatch) Apply(b core.Booking) core.Booking {
	if p.Total != nil {
		b.Total = *p.Total
	}
	if p.Deposit != nil {
		b.Deposit = *p.Deposit
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Observations != nil {
		b.Observations = *p.Observations
	}
	if p.Archived != nil {
		b.Archived = *p.Archived
	}
	if p.Excluded != nil {
		b.ExcludedFromStats = *p.Excluded
	}
	return b
}

type MovementFilter struct {
	Type     core.MovementType // empty matches both
	Excluded *bool
}

func (f MovementFilter) Matches(m core.Movement) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Excluded != nil && m.ExcludedFromStats != *f.Excluded {
		return false
	}
	return true
}

type MovementQuery struct {
	Filter MovementFilter
	Order  Order
	Limit  int
}

// MovementPatch only carries the columns that may change after creation.
type MovementPatch struct {
	Amount      *core.Money
	Description *string
	Excluded    *bool
}

func (p MovementPatch) IsEmpty() bool {
	return p == (MovementPatch{})
}

func (p MovementPatch) Apply(m core.Movement) core.Movement {
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Excluded != nil {
		m.ExcludedFromStats = *p.Excluded
	}
	return m
}
