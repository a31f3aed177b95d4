package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pelotero/internal/core"
	"pelotero/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pelotero.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

var day0 = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func TestSQLiteRepositoryBookingRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.InsertBooking(ctx, core.Booking{
		ClientName:   "Ana",
		Date:         day0,
		TimeSlot:     "14:00-18:00",
		Deposit:      core.Money{Cents: 80000},
		Total:        core.Money{Cents: 200000},
		Status:       core.StatusConfirmed,
		Observations: "piñata",
		CreatedAt:    day0.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := repo.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.ClientName)
	assert.True(t, got.Date.Equal(day0))
	assert.Equal(t, int64(200000), got.Total.Cents)
	assert.Equal(t, int64(80000), got.Deposit.Cents)
	assert.Equal(t, core.StatusConfirmed, got.Status)
	assert.Equal(t, "piñata", got.Observations)
	assert.False(t, got.Archived)
	assert.False(t, got.ExcludedFromStats)
}

func TestSQLiteRepositoryNullColumnsReadAsDefaults(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO bookings (client_name, date, status, created_at) VALUES ('legacy', ?, NULL, ?)`,
		toMillis(day0), toMillis(day0))
	require.NoError(t, err)

	items, err := repo.SelectBookings(ctx, store.BookingQuery{
		Filter: store.BookingFilter{NotStatuses: []core.BookingStatus{core.StatusCancelled}},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.StatusPending, items[0].Status)
	assert.Zero(t, items[0].Total.Cents)
	assert.Zero(t, items[0].Deposit.Cents)

	pending, err := repo.SelectBookings(ctx, store.BookingQuery{
		Filter: store.BookingFilter{Statuses: []core.BookingStatus{core.StatusPending}},
	})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSQLiteRepositoryFiltersOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	insert := func(date time.Time, st core.BookingStatus) int64 {
		id, err := repo.InsertBooking(ctx, core.Booking{ClientName: "c", Date: date, Status: st, CreatedAt: day0})
		require.NoError(t, err)
		return id
	}
	oldDone := insert(day0.AddDate(0, 0, -10), core.StatusCompleted)
	oldConfirmed := insert(day0.AddDate(0, 0, -5), core.StatusConfirmed)
	future := insert(day0.AddDate(0, 0, 5), core.StatusCancelled)

	desc, err := repo.SelectBookings(ctx, store.BookingQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, future, desc[0].ID)
	assert.Equal(t, oldConfirmed, desc[1].ID)

	asc, err := repo.SelectBookings(ctx, store.BookingQuery{Order: store.OrderDateAsc})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, oldDone, asc[0].ID)

	n, err := repo.UpdateBookings(ctx,
		store.BookingFilter{
			Before:   day0,
			Statuses: []core.BookingStatus{core.StatusCompleted, core.StatusCancelled},
		},
		store.BookingPatch{Archived: store.Bool(true)},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	visible, err := repo.SelectBookings(ctx, store.BookingQuery{Filter: store.BookingFilter{Archived: store.Bool(false)}})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestSQLiteRepositoryMissingIDIsSilent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	st := core.StatusCancelled
	require.NoError(t, repo.UpdateBooking(ctx, 999, store.BookingPatch{Status: &st}))
	require.NoError(t, repo.UpdateMovement(ctx, 999, store.MovementPatch{Excluded: store.Bool(true)}))
	require.NoError(t, repo.DeleteMovement(ctx, 999))

	_, err := repo.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetMovement(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepositoryMovements(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	expense, err := repo.InsertMovement(ctx, core.Movement{
		Description: "Globos", Category: "decoración", Amount: core.Money{Cents: 3000},
		Type: core.MovementExpense, Date: day0,
	})
	require.NoError(t, err)
	income, err := repo.InsertMovement(ctx, core.Movement{
		Description: "Renta de sillas", Amount: core.Money{Cents: 5000},
		Type: core.MovementIncome, Date: day0.Add(time.Hour),
	})
	require.NoError(t, err)

	desc := "Globos metálicos"
	amount := core.Money{Cents: 4500}
	require.NoError(t, repo.UpdateMovement(ctx, expense, store.MovementPatch{Amount: &amount, Description: &desc}))

	m, err := repo.GetMovement(ctx, expense)
	require.NoError(t, err)
	assert.Equal(t, "Globos metálicos", m.Description)
	assert.Equal(t, int64(4500), m.Amount.Cents)
	assert.Equal(t, "decoración", m.Category)

	incomes, err := repo.SelectMovements(ctx, store.MovementQuery{Filter: store.MovementFilter{Type: core.MovementIncome}})
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, income, incomes[0].ID)

	n, err := repo.UpdateMovements(ctx, store.MovementFilter{}, store.MovementPatch{Excluded: store.Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.DeleteMovement(ctx, income))
	left, err := repo.SelectMovements(ctx, store.MovementQuery{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, left[0].ExcludedFromStats)
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(path))
	v, _, err = SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestSQLiteRepositoryBusyTimeoutOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	conn1, err := repo.db.Conn(ctx)
	require.NoError(t, err)
	defer conn1.Close()
	conn2, err := repo.db.Conn(ctx)
	require.NoError(t, err)
	defer conn2.Close()

	for i, conn := range []*sql.Conn{conn1, conn2} {
		var timeout int
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		assert.Equal(t, 5000, timeout, "connection %d", i+1)
	}
}

func TestDSNAppendsPragma(t *testing.T) {
	assert.Equal(t, "/data/p.db?_pragma=busy_timeout(5000)", dsn("/data/p.db"))
	assert.Equal(t, "file:p.db?mode=rwc&_pragma=busy_timeout(5000)", dsn("file:p.db?mode=rwc"))
}
