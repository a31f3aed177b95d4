package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pelotero/internal/core"
	"pelotero/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable Record Store.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection. The worker and
	// the server may share the file.
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) InsertBooking(ctx context.Context, b core.Booking) (int64, error) {
	id, err := r.queries.CreateBooking(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("create booking: %w", err)
	}
	slog.DebugContext(ctx, "Booking saved to SQLite", "id", id, "client", b.ClientName)
	return id, nil
}

func (r *SQLiteRepository) UpdateBooking(ctx context.Context, id int64, patch store.BookingPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	n, err := r.queries.UpdateBookingByID(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", id, err)
	}
	if n == 0 {
		slog.WarnContext(ctx, "Booking update matched no row", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) UpdateBookings(ctx context.Context, f store.BookingFilter, patch store.BookingPatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	n, err := r.queries.UpdateBookings(ctx, f, patch)
	if err != nil {
		return 0, fmt.Errorf("update bookings: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SelectBookings(ctx context.Context, q store.BookingQuery) ([]core.Booking, error) {
	items, err := r.queries.ListBookings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetBooking(ctx context.Context, id int64) (core.Booking, error) {
	b, err := r.queries.GetBooking(ctx, id)
	if err != nil {
		return core.Booking{}, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteRepository) InsertMovement(ctx context.Context, m core.Movement) (int64, error) {
	id, err := r.queries.CreateMovement(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("create movement: %w", err)
	}
	slog.DebugContext(ctx, "Movement saved to SQLite", "id", id, "type", m.Type)
	return id, nil
}

func (r *SQLiteRepository) UpdateMovement(ctx context.Context, id int64, patch store.MovementPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	n, err := r.queries.UpdateMovementByID(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("update movement %d: %w", id, err)
	}
	if n == 0 {
		slog.WarnContext(ctx, "Movement update matched no row", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) UpdateMovements(ctx context.Context, f store.MovementFilter, patch store.MovementPatch) (int64, error) {
	if patch.IsEmpty() {
		return 0, nil
	}
	n, err := r.queries.UpdateMovements(ctx, f, patch)
	if err != nil {
		return 0, fmt.Errorf("update movements: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteMovement(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteMovement(ctx, id)
	if err != nil {
		return fmt.Errorf("delete movement %d: %w", id, err)
	}
	if n == 0 {
		slog.WarnContext(ctx, "Movement delete matched no row", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) SelectMovements(ctx context.Context, q store.MovementQuery) ([]core.Movement, error) {
	items, err := r.queries.ListMovements(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetMovement(ctx context.Context, id int64) (core.Movement, error) {
	m, err := r.queries.GetMovement(ctx, id)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get movement %d: %w", id, err)
	}
	return m, nil
}
