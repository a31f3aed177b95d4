package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pelotero/internal/config"
	"pelotero/internal/core"
)

// fakeValues keeps one tab per name as a row matrix.
type fakeValues struct {
	tabs    map[string][][]any
	calls   []string
	failGet error
}

func newFakeValues() *fakeValues {
	return &fakeValues{tabs: map[string][][]any{}}
}

func splitRange(rng string) (tab, cells string) {
	i := strings.LastIndex(rng, "!")
	tab = strings.Trim(rng[:i], "'")
	return tab, rng[i+1:]
}

func rowOf(cells string) int {
	var n int
	start := strings.IndexAny(cells, "0123456789")
	fmt.Sscanf(cells[start:], "%d", &n)
	return n
}

func (f *fakeValues) get(_ context.Context, rng string) ([][]any, error) {
	f.calls = append(f.calls, "get "+rng)
	if f.failGet != nil {
		return nil, f.failGet
	}
	tab, _ := splitRange(rng)
	out := make([][]any, 0, len(f.tabs[tab]))
	for _, r := range f.tabs[tab] {
		if len(r) == 0 {
			out = append(out, []any{})
			continue
		}
		out = append(out, []any{r[0]})
	}
	return out, nil
}

func (f *fakeValues) update(_ context.Context, rng string, rows [][]any) error {
	f.calls = append(f.calls, "update "+rng)
	tab, cells := splitRange(rng)
	start := rowOf(cells)
	for i, r := range rows {
		idx := start - 1 + i
		for len(f.tabs[tab]) <= idx {
			f.tabs[tab] = append(f.tabs[tab], nil)
		}
		f.tabs[tab][idx] = r
	}
	return nil
}

func (f *fakeValues) append(_ context.Context, rng string, rows [][]any) (string, error) {
	f.calls = append(f.calls, "append "+rng)
	tab, _ := splitRange(rng)
	f.tabs[tab] = append(f.tabs[tab], rows...)
	n := len(f.tabs[tab])
	return fmt.Sprintf("'%s'!A%d:K%d", tab, n, n), nil
}

func (f *fakeValues) clear(_ context.Context, rng string) error {
	f.calls = append(f.calls, "clear "+rng)
	tab, cells := splitRange(rng)
	if cells == "A:Z" {
		f.tabs[tab] = nil
		return nil
	}
	if idx := rowOf(cells) - 1; idx < len(f.tabs[tab]) {
		f.tabs[tab][idx] = nil
	}
	return nil
}

func newTestClient() (*Client, *fakeValues) {
	fv := newFakeValues()
	return &Client{
		values:      fv,
		bookingTab:  "Reservas",
		movementTab: "Movimientos",
		loc:         time.UTC,
	}, fv
}

func testBooking(id int64) core.Booking {
	return core.Booking{
		ID:         id,
		ClientName: "Familia Pérez",
		Date:       time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC),
		TimeSlot:   "14:00-18:00",
		Deposit:    core.Money{Cents: 5000},
		Total:      core.Money{Cents: 20000},
		Status:     core.StatusConfirmed,
	}
}

func TestNewFromConfig_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.Default())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromConfig_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	cfg := config.Default()
	cfg.GoogleSpreadsheetID = "sheet"

	_, err := NewFromConfig(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestUpsertBooking_AppendsThenUpdates(t *testing.T) {
	c, fv := newTestClient()
	ctx := context.Background()
	fv.tabs["Reservas"] = [][]any{bookingHeader}

	ref, err := c.UpsertBooking(ctx, testBooking(7))
	if err != nil {
		t.Fatalf("UpsertBooking() error = %v", err)
	}
	if ref != "'Reservas'!A2:K2" {
		t.Errorf("ref = %q", ref)
	}

	b := testBooking(7)
	b.Status = core.StatusCancelled
	ref, err = c.UpsertBooking(ctx, b)
	if err != nil {
		t.Fatalf("UpsertBooking() error = %v", err)
	}
	if ref != "'Reservas'!A2:K2" {
		t.Errorf("update ref = %q, want row 2 rewritten", ref)
	}
	if got := len(fv.tabs["Reservas"]); got != 2 {
		t.Fatalf("rows = %d, want header plus one booking", got)
	}
	if got := fv.tabs["Reservas"][1][6]; got != "cancelled" {
		t.Errorf("status cell = %v, want cancelled", got)
	}
}

func TestUpsertBooking_ReadError(t *testing.T) {
	c, fv := newTestClient()
	fv.failGet = errors.New("quota exceeded")

	if _, err := c.UpsertBooking(context.Background(), testBooking(1)); err == nil {
		t.Fatal("expected error")
	}
}

func TestRemoveMovement(t *testing.T) {
	c, fv := newTestClient()
	ctx := context.Background()
	m := core.Movement{ID: 3, Description: "Globos", Amount: core.Money{Cents: 1250}, Type: core.MovementExpense,
		Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}

	if _, err := c.UpsertMovement(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := c.RemoveMovement(ctx, 3); err != nil {
		t.Fatalf("RemoveMovement() error = %v", err)
	}
	if row := fv.tabs["Movimientos"][0]; row != nil {
		t.Errorf("row should be cleared, got %v", row)
	}

	// Missing rows are fine.
	if err := c.RemoveMovement(ctx, 99); err != nil {
		t.Errorf("RemoveMovement(missing) error = %v", err)
	}
}

func TestReplaceBookings(t *testing.T) {
	c, fv := newTestClient()
	fv.tabs["Reservas"] = [][]any{{"stale"}, {"stale"}, {"stale"}}

	if err := c.ReplaceBookings(context.Background(), []core.Booking{testBooking(1), testBooking(2)}); err != nil {
		t.Fatalf("ReplaceBookings() error = %v", err)
	}
	rows := fv.tabs["Reservas"]
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "ID" {
		t.Errorf("first row should be the header, got %v", rows[0])
	}
	if fv.calls[0] != "clear 'Reservas'!A:Z" {
		t.Errorf("first call = %q, want a clear", fv.calls[0])
	}
}

func TestBookingRow(t *testing.T) {
	b := testBooking(4)
	b.Status = ""
	b.Archived = true
	row := bookingRow(b, time.UTC)

	if len(row) != len(bookingHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(bookingHeader))
	}
	want := []any{int64(4), "Familia Pérez", "2025-07-12", "14:00-18:00", 50.0, 200.0, "pending", "", "sí", "no", ""}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestMovementRow(t *testing.T) {
	m := core.Movement{ID: 9, Description: "Luz", Category: "servicios", Amount: core.Money{Cents: 899},
		Type: core.MovementExpense, ExcludedFromStats: true, Date: time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)}
	row := movementRow(m, time.UTC)
	if len(row) != len(movementHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(movementHeader))
	}
	if row[1] != "2025-01-02" || row[5] != 8.99 || row[6] != "sí" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {}, {"12"}, {" 7 "}, {float64(8)}}
	tests := []struct {
		id   int64
		want int
	}{
		{12, 3},
		{7, 4},
		{8, 5},
		{99, 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{1: "A", 7: "G", 11: "K", 26: "Z", 27: "AA", 52: "AZ"}
	for n, want := range tests {
		if got := columnName(n); got != want {
			t.Errorf("columnName(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestA1(t *testing.T) {
	if got := a1("Reservas", "A:A"); got != "'Reservas'!A:A" {
		t.Errorf("a1() = %q", got)
	}
	if got := a1("Bob's", "A1"); got != "'Bob''s'!A1" {
		t.Errorf("a1() = %q", got)
	}
}
