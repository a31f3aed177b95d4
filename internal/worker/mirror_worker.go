package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pelotero/internal/amqp"
	"pelotero/internal/core"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
	"pelotero/internal/sheets"
	"pelotero/internal/store"
)

// MirrorWorker copies changed records from the store into the spreadsheet.
// The store is the source of truth: messages only carry ids, and every
// row written is read back from the store first.
type MirrorWorker struct {
	store  store.Store
	mirror sheets.Mirror
}

func NewMirrorWorker(st store.Store, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{store: st, mirror: mirror}
}

// HandleChange processes a single change message from AMQP. A returned
// error requeues the message.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEntity, msg.Entity,
		log.FieldID, msg.ID,
		log.FieldAction, msg.Action)

	var err error
	switch msg.Entity {
	case amqp.EntityBooking:
		err = w.handleBooking(ctx, msg)
	case amqp.EntityMovement:
		err = w.handleMovement(ctx, msg)
	default:
		err = fmt.Errorf("unknown entity %q", msg.Entity)
	}

	metrics.MirrorProcessed.WithLabelValues(string(msg.Entity), metrics.Result(err)).Inc()
	return err
}

func (w *MirrorWorker) handleBooking(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Action {
	case amqp.ActionBulk:
		return w.replaceBookings(ctx)
	case amqp.ActionDeleted:
		// Bookings are never deleted, only archived.
		slog.WarnContext(ctx, "Ignoring delete for booking", log.FieldComponent, log.ComponentWorker, log.FieldID, msg.ID)
		return nil
	}

	b, err := w.store.GetBooking(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Booking gone before it could be mirrored",
			log.FieldComponent, log.ComponentWorker, log.FieldID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get booking %d: %w", msg.ID, err)
	}

	ref, err := w.mirror.UpsertBooking(ctx, b)
	if err != nil {
		return fmt.Errorf("mirror booking %d: %w", msg.ID, err)
	}
	slog.InfoContext(ctx, "Booking mirrored",
		log.FieldComponent, log.ComponentWorker, log.FieldID, b.ID, log.FieldSheetsRow, ref)
	return nil
}

func (w *MirrorWorker) handleMovement(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Action {
	case amqp.ActionBulk:
		return w.replaceMovements(ctx)
	case amqp.ActionDeleted:
		if err := w.mirror.RemoveMovement(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove movement %d: %w", msg.ID, err)
		}
		return nil
	}

	m, err := w.store.GetMovement(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after this message was sent; the delete message follows.
		slog.WarnContext(ctx, "Movement gone before it could be mirrored",
			log.FieldComponent, log.ComponentWorker, log.FieldID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get movement %d: %w", msg.ID, err)
	}

	ref, err := w.mirror.UpsertMovement(ctx, m)
	if err != nil {
		return fmt.Errorf("mirror movement %d: %w", msg.ID, err)
	}
	slog.InfoContext(ctx, "Movement mirrored",
		log.FieldComponent, log.ComponentWorker, log.FieldID, m.ID, log.FieldSheetsRow, ref)
	return nil
}

func (w *MirrorWorker) replaceBookings(ctx context.Context) error {
	bs, err := w.store.SelectBookings(ctx, store.BookingQuery{Order: store.OrderDateAsc})
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	if err := w.mirror.ReplaceBookings(ctx, bs); err != nil {
		return fmt.Errorf("replace bookings: %w", err)
	}
	return nil
}

func (w *MirrorWorker) replaceMovements(ctx context.Context) error {
	ms, err := w.store.SelectMovements(ctx, store.MovementQuery{Order: store.OrderDateAsc})
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}
	if err := w.mirror.ReplaceMovements(ctx, ms); err != nil {
		return fmt.Errorf("replace movements: %w", err)
	}
	return nil
}

// Resync rewrites both tabs from the store. It recovers from lost
// messages and from manual edits to the spreadsheet.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.replaceBookings(gctx) })
	g.Go(func() error { return w.replaceMovements(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("resync: %w", err)
	}
	slog.InfoContext(ctx, "Spreadsheet resync completed",
		log.FieldComponent, log.ComponentWorker, log.FieldOperation, log.OpSync,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// RunPeriodicResync calls Resync every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (w *MirrorWorker) RunPeriodicResync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed",
					log.FieldComponent, log.ComponentWorker, log.FieldError, err)
			}
		}
	}
}
