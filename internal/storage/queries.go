package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pelotero/internal/core"
	"pelotero/internal/store"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL for both tables.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Dates are stored as unix milliseconds in UTC so range predicates and
// ORDER BY compare numerically.
func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// statusExpr reads a NULL or blank status as pending.
const statusExpr = `COALESCE(NULLIF(TRIM(status), ''), 'pending')`

const bookingColumns = `id, client_name, date, time_slot, deposit_cents, total_cents,
	status, observations, is_archived, is_excluded_from_stats, created_at`

const createBooking = `INSERT INTO bookings (client_name, date, time_slot, deposit_cents, total_cents,
	status, observations, is_archived, is_excluded_from_stats, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateBooking(ctx context.Context, b core.Booking) (int64, error) {
	res, err := q.db.ExecContext(ctx, createBooking,
		b.ClientName,
		toMillis(b.Date),
		b.TimeSlot,
		b.Deposit.Cents,
		b.Total.Cents,
		string(b.Status),
		b.Observations,
		boolInt(b.Archived),
		boolInt(b.ExcludedFromStats),
		toMillis(b.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetBooking(ctx context.Context, id int64) (core.Booking, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Booking{}, core.ErrNotFound
	}
	return b, err
}

func (q *Queries) ListBookings(ctx context.Context, query store.BookingQuery) ([]core.Booking, error) {
	where, args := bookingWhere(query.Filter)
	sqlText := `SELECT ` + bookingColumns + ` FROM bookings` + where + orderBy(query.Order) + limit(query.Limit)
	rows, err := q.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []core.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) UpdateBookings(ctx context.Context, f store.BookingFilter, p store.BookingPatch) (int64, error) {
	set, setArgs := bookingSet(p)
	where, whereArgs := bookingWhere(f)
	res, err := q.db.ExecContext(ctx, `UPDATE bookings SET `+set+where, append(setArgs, whereArgs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateBookingByID(ctx context.Context, id int64, p store.BookingPatch) (int64, error) {
	set, args := bookingSet(p)
	res, err := q.db.ExecContext(ctx, `UPDATE bookings SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const movementColumns = `id, description, category, amount_cents, type, is_excluded_from_stats, date`

const createMovement = `INSERT INTO movements (description, category, amount_cents, type, is_excluded_from_stats, date)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateMovement(ctx context.Context, m core.Movement) (int64, error) {
	res, err := q.db.ExecContext(ctx, createMovement,
		m.Description,
		m.Category,
		m.Amount.Cents,
		string(m.Type),
		boolInt(m.ExcludedFromStats),
		toMillis(m.Date),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) GetMovement(ctx context.Context, id int64) (core.Movement, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Movement{}, core.ErrNotFound
	}
	return m, err
}

func (q *Queries) ListMovements(ctx context.Context, query store.MovementQuery) ([]core.Movement, error) {
	where, args := movementWhere(query.Filter)
	sqlText := `SELECT ` + movementColumns + ` FROM movements` + where + orderBy(query.Order) + limit(query.Limit)
	rows, err := q.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []core.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) UpdateMovements(ctx context.Context, f store.MovementFilter, p store.MovementPatch) (int64, error) {
	set, setArgs := movementSet(p)
	where, whereArgs := movementWhere(f)
	res, err := q.db.ExecContext(ctx, `UPDATE movements SET `+set+where, append(setArgs, whereArgs...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) UpdateMovementByID(ctx context.Context, id int64, p store.MovementPatch) (int64, error) {
	set, args := movementSet(p)
	res, err := q.db.ExecContext(ctx, `UPDATE movements SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteMovement(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(r rowScanner) (core.Booking, error) {
	var (
		b                  core.Booking
		date, createdAt    int64
		deposit, total     sql.NullInt64
		status, obs        sql.NullString
		archived, excluded int64
	)
	if err := r.Scan(&b.ID, &b.ClientName, &date, &b.TimeSlot, &deposit, &total,
		&status, &obs, &archived, &excluded, &createdAt); err != nil {
		return core.Booking{}, err
	}
	b.Date = fromMillis(date)
	b.CreatedAt = fromMillis(createdAt)
	b.Deposit = core.Money{Cents: deposit.Int64}
	b.Total = core.Money{Cents: total.Int64}
	b.Status = core.BookingStatus(status.String).Normalize()
	b.Observations = obs.String
	b.Archived = archived != 0
	b.ExcludedFromStats = excluded != 0
	return b, nil
}

func scanMovement(r rowScanner) (core.Movement, error) {
	var (
		m        core.Movement
		amount   sql.NullInt64
		typ      string
		excluded int64
		date     int64
	)
	if err := r.Scan(&m.ID, &m.Description, &m.Category, &amount, &typ, &excluded, &date); err != nil {
		return core.Movement{}, err
	}
	m.Amount = core.Money{Cents: amount.Int64}
	m.Type = core.MovementType(typ)
	m.ExcludedFromStats = excluded != 0
	m.Date = fromMillis(date)
	return m, nil
}

func bookingWhere(f store.BookingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		conds = append(conds, statusExpr+` IN (`+placeholders(len(f.Statuses))+`)`)
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if len(f.NotStatuses) > 0 {
		conds = append(conds, statusExpr+` NOT IN (`+placeholders(len(f.NotStatuses))+`)`)
		for _, s := range f.NotStatuses {
			args = append(args, string(s))
		}
	}
	if f.Archived != nil {
		conds = append(conds, `is_archived = ?`)
		args = append(args, boolInt(*f.Archived))
	}
	if f.Excluded != nil {
		conds = append(conds, `is_excluded_from_stats = ?`)
		args = append(args, boolInt(*f.Excluded))
	}
	if !f.Before.IsZero() {
		conds = append(conds, `date < ?`)
		args = append(args, toMillis(f.Before))
	}
	return whereClause(conds), args
}

func movementWhere(f store.MovementFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		conds = append(conds, `type = ?`)
		args = append(args, string(f.Type))
	}
	if f.Excluded != nil {
		conds = append(conds, `is_excluded_from_stats = ?`)
		args = append(args, boolInt(*f.Excluded))
	}
	return whereClause(conds), args
}

func bookingSet(p store.BookingPatch) (string, []any) {
	var (
		cols []string
		args []any
	)
	if p.Total != nil {
		cols = append(cols, `total_cents = ?`)
		args = append(args, p.Total.Cents)
	}
	if p.Deposit != nil {
		cols = append(cols, `deposit_cents = ?`)
		args = append(args, p.Deposit.Cents)
	}
	if p.Status != nil {
		cols = append(cols, `status = ?`)
		args = append(args, string(*p.Status))
	}
	if p.Observations != nil {
		cols = append(cols, `observations = ?`)
		args = append(args, *p.Observations)
	}
	if p.Archived != nil {
		cols = append(cols, `is_archived = ?`)
		args = append(args, boolInt(*p.Archived))
	}
	if p.Excluded != nil {
		cols = append(cols, `is_excluded_from_stats = ?`)
		args = append(args, boolInt(*p.Excluded))
	}
	return strings.Join(cols, ", "), args
}

func movementSet(p store.MovementPatch) (string, []any) {
	var (
		cols []string
		args []any
	)
	if p.Amount != nil {
		cols = append(cols, `amount_cents = ?`)
		args = append(args, p.Amount.Cents)
	}
	if p.Description != nil {
		cols = append(cols, `description = ?`)
		args = append(args, *p.Description)
	}
	if p.Excluded != nil {
		cols = append(cols, `is_excluded_from_stats = ?`)
		args = append(args, boolInt(*p.Excluded))
	}
	return strings.Join(cols, ", "), args
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return ` WHERE ` + strings.Join(conds, ` AND `)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func orderBy(o store.Order) string {
	if o == store.OrderDateAsc {
		return ` ORDER BY date ASC, id ASC`
	}
	return ` ORDER BY date DESC, id DESC`
}

func limit(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(` LIMIT %d`, n)
}
