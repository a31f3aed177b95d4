package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"pelotero/internal/amqp"
	"pelotero/internal/core"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
	"pelotero/internal/store"
)

// NewBooking is the raw input of a booking form.
type NewBooking struct {
	ClientName   string
	Date         string
	TimeSlot     string
	Deposit      string
	Total        string
	Observations string
}

// BookingService owns the booking lifecycle: creation, budget edits,
// status changes and the archive and exclude flags.
type BookingService struct {
	store     store.BookingStore
	publisher ChangePublisher
	settings
}

func NewBookingService(st store.BookingStore, pub ChangePublisher, opts ...Option) *BookingService {
	return &BookingService{
		store:     st,
		publisher: pub,
		settings:  newSettings(opts),
	}
}

// Create validates the input and inserts a confirmed booking.
func (s *BookingService) Create(ctx context.Context, in NewBooking) (core.Booking, error) {
	date, err := core.ParseDate(in.Date, s.loc)
	if err != nil {
		return core.Booking{}, err
	}
	deposit, err := parseOptionalMoney("deposit", in.Deposit)
	if err != nil {
		return core.Booking{}, err
	}
	total, err := parseOptionalMoney("total", in.Total)
	if err != nil {
		return core.Booking{}, err
	}

	b := core.Booking{
		ClientName:   strings.TrimSpace(in.ClientName),
		Date:         date,
		TimeSlot:     strings.TrimSpace(in.TimeSlot),
		Deposit:      deposit,
		Total:        total,
		Status:       core.StatusConfirmed,
		Observations: strings.TrimSpace(in.Observations),
		CreatedAt:    s.now(),
	}
	if err := b.Validate(); err != nil {
		return core.Booking{}, err
	}
	if b.DepositExceedsTotal() {
		slog.WarnContext(ctx, "Booking deposit exceeds total",
			log.FieldClientName, b.ClientName,
			log.FieldDepositCents, b.Deposit.Cents,
			log.FieldTotalCents, b.Total.Cents)
	}

	id, err := s.store.InsertBooking(ctx, b)
	if err != nil {
		return core.Booking{}, fmt.Errorf("save booking: %w", err)
	}
	b.ID = id
	metrics.BookingsCreated.WithLabelValues(string(b.Status)).Inc()
	log.NewStructuredLogger(log.FromContext(ctx)).LogBookingCreated(ctx, b)

	notify(ctx, s.publisher, amqp.EntityBooking, id, amqp.ActionCreated)
	return b, nil
}

// UpdateBudget overwrites both amounts whatever the booking's status.
func (s *BookingService) UpdateBudget(ctx context.Context, id int64, total, deposit string) error {
	if err := core.RequireID(id); err != nil {
		return err
	}
	t, err := core.ParseMoney("total", total)
	if err != nil {
		return err
	}
	d, err := core.ParseMoney("deposit", deposit)
	if err != nil {
		return err
	}
	if d.Cents > t.Cents {
		slog.WarnContext(ctx, "Booking deposit exceeds total",
			log.FieldID, id, log.FieldDepositCents, d.Cents, log.FieldTotalCents, t.Cents)
	}

	if err := s.store.UpdateBooking(ctx, id, store.BookingPatch{Total: &t, Deposit: &d}); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	slog.InfoContext(ctx, "Booking budget updated",
		log.FieldID, id, log.FieldTotalCents, t.Cents, log.FieldDepositCents, d.Cents)

	notify(ctx, s.publisher, amqp.EntityBooking, id, amqp.ActionUpdated)
	return nil
}

func (s *BookingService) UpdateObservations(ctx context.Context, id int64, text string) error {
	if err := core.RequireID(id); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if len(text) > 2000 {
		return core.Invalid("observations", "too long (max 2000 characters)")
	}
	if err := s.store.UpdateBooking(ctx, id, store.BookingPatch{Observations: &text}); err != nil {
		return fmt.Errorf("update observations: %w", err)
	}
	notify(ctx, s.publisher, amqp.EntityBooking, id, amqp.ActionUpdated)
	return nil
}

// Cancel marks the booking cancelled. Cancelling twice is a no-op.
func (s *BookingService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.StatusCancelled)
}

// Complete marks the booking completed from any status.
func (s *BookingService) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.StatusCompleted)
}

// transition applies next unconditionally. Moves outside the lifecycle
// machine are reported, not refused.
func (s *BookingService) transition(ctx context.Context, id int64, next core.BookingStatus) error {
	if err := core.RequireID(id); err != nil {
		return err
	}

	canonical := true
	current, err := s.store.GetBooking(ctx, id)
	switch {
	case err == nil:
		if current.Status.Normalize() == next {
			slog.DebugContext(ctx, "Booking already in status", log.FieldID, id, log.FieldStatus, next)
			return nil
		}
		if !current.Status.CanTransitionTo(next) {
			canonical = false
			slog.WarnContext(ctx, "Booking status change outside lifecycle",
				log.FieldID, id,
				log.FieldFromStatus, current.Status.Normalize(),
				log.FieldStatus, next)
		}
	case isNotFound(err):
		// The store logs and ignores unknown ids.
		return s.store.UpdateBooking(ctx, id, store.BookingPatch{Status: &next})
	default:
		return fmt.Errorf("load booking: %w", err)
	}

	if err := s.store.UpdateBooking(ctx, id, store.BookingPatch{Status: &next}); err != nil {
		return fmt.Errorf("set status %s: %w", next, err)
	}
	metrics.BookingTransitions.WithLabelValues(string(next), strconv.FormatBool(canonical)).Inc()
	slog.InfoContext(ctx, "Booking status changed", log.FieldID, id, log.FieldStatus, next)

	notify(ctx, s.publisher, amqp.EntityBooking, id, amqp.ActionUpdated)
	return nil
}

// ArchiveRecent archives every booking.
func (s *BookingService) ArchiveRecent(ctx context.Context) (int64, error) {
	n, err := s.store.UpdateBookings(ctx, store.BookingFilter{}, store.BookingPatch{Archived: store.Bool(true)})
	if err != nil {
		return 0, fmt.Errorf("archive bookings: %w", err)
	}
	s.bulkDone(ctx, "all", n)
	return n, nil
}

// ArchiveHistory archives past bookings that are completed or cancelled.
func (s *BookingService) ArchiveHistory(ctx context.Context) (int64, error) {
	f := store.BookingFilter{
		Statuses: []core.BookingStatus{core.StatusCompleted, core.StatusCancelled},
		Before:   s.now(),
	}
	n, err := s.store.UpdateBookings(ctx, f, store.BookingPatch{Archived: store.Bool(true)})
	if err != nil {
		return 0, fmt.Errorf("archive booking history: %w", err)
	}
	s.bulkDone(ctx, "history", n)
	return n, nil
}

func (s *BookingService) bulkDone(ctx context.Context, scope string, n int64) {
	metrics.BookingsArchived.WithLabelValues(scope).Add(float64(n))
	slog.InfoContext(ctx, "Bookings archived",
		log.FieldOperation, log.OpArchive, "scope", scope, log.FieldAffected, n)
	notify(ctx, s.publisher, amqp.EntityBooking, 0, amqp.ActionBulk)
}

// ExcludeAllFromStats flags every booking so it no longer counts toward
// any aggregate. Records stay listed.
func (s *BookingService) ExcludeAllFromStats(ctx context.Context) (int64, error) {
	n, err := s.store.UpdateBookings(ctx, store.BookingFilter{}, store.BookingPatch{Excluded: store.Bool(true)})
	if err != nil {
		return 0, fmt.Errorf("exclude bookings from stats: %w", err)
	}
	slog.InfoContext(ctx, "Bookings excluded from stats", log.FieldOperation, log.OpExclude, log.FieldAffected, n)
	notify(ctx, s.publisher, amqp.EntityBooking, 0, amqp.ActionBulk)
	return n, nil
}

// List returns every booking, newest date first.
func (s *BookingService) List(ctx context.Context) ([]core.Booking, error) {
	items, err := s.store.SelectBookings(ctx, store.BookingQuery{})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (core.Booking, error) {
	if err := core.RequireID(id); err != nil {
		return core.Booking{}, err
	}
	return s.store.GetBooking(ctx, id)
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

// parseOptionalMoney reads a blank amount as zero.
func parseOptionalMoney(field, s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return core.ParseMoney(field, s)
}
