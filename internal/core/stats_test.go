package core

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestRevenueExcludesCancelledButDepositsDoNot(t *testing.T) {
	bookings := []Booking{
		{ID: 1, Status: StatusConfirmed, Total: Money{Cents: 200000}, Deposit: Money{Cents: 50000}},
		{ID: 2, Status: StatusCancelled, Total: Money{Cents: 100000}, Deposit: Money{Cents: 30000}},
	}
	if got := TotalRevenue(bookings); got.Cents != 200000 {
		t.Fatalf("revenue = %d, want 200000", got.Cents)
	}
	if got := TotalDeposits(bookings); got.Cents != 80000 {
		t.Fatalf("deposits = %d, want 80000", got.Cents)
	}
}

func TestRevenueCountsPendingAndUnsetStatus(t *testing.T) {
	bookings := []Booking{
		{Status: StatusPending, Total: Money{Cents: 100}},
		{Status: "", Total: Money{Cents: 10}},
		{Status: StatusCompleted, Total: Money{Cents: 1}},
	}
	if got := TotalRevenue(bookings); got.Cents != 111 {
		t.Fatalf("revenue = %d, want 111", got.Cents)
	}
}

func TestExcludedRecordsDropOutOfEveryAggregate(t *testing.T) {
	bookings := []Booking{
		{Status: StatusConfirmed, Total: Money{Cents: 100}, Deposit: Money{Cents: 10}, ExcludedFromStats: true},
	}
	movements := []Movement{
		{Type: MovementExpense, Amount: Money{Cents: 40}, ExcludedFromStats: true},
		{Type: MovementIncome, Amount: Money{Cents: 70}, ExcludedFromStats: true},
	}
	totals := Summarize(bookings, movements)
	if totals != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestEmptySetsAreZero(t *testing.T) {
	totals := Summarize(nil, nil)
	if totals != (Totals{}) || totals.Net().Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
	if got := RecentBookings(nil, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := CalendarDates(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMovementsSplitByType(t *testing.T) {
	movements := []Movement{
		{Type: MovementExpense, Amount: Money{Cents: 300}},
		{Type: MovementExpense, Amount: Money{Cents: 200}},
		{Type: MovementIncome, Amount: Money{Cents: 1000}},
	}
	if got := TotalExpenses(movements); got.Cents != 500 {
		t.Fatalf("expenses = %d", got.Cents)
	}
	if got := OtherIncome(movements); got.Cents != 1000 {
		t.Fatalf("income = %d", got.Cents)
	}
	totals := Summarize([]Booking{{Status: StatusConfirmed, Total: Money{Cents: 100}}}, movements)
	if totals.Net().Cents != 600 {
		t.Fatalf("net = %d, want 600", totals.Net().Cents)
	}
	if totals.ConfirmedCount != 1 {
		t.Fatalf("confirmed = %d", totals.ConfirmedCount)
	}
}

func TestRecentBookingsOrderAndLimit(t *testing.T) {
	bookings := []Booking{
		{ID: 1, Date: day(2025, 1, 1)},
		{ID: 2, Date: day(2025, 3, 1)},
		{ID: 3, Date: day(2025, 2, 1), Archived: true},
		{ID: 4, Date: day(2025, 4, 1)},
	}
	got := RecentBookings(bookings, 2)
	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 2 {
		t.Fatalf("unexpected recent: %+v", got)
	}
	if len(RecentBookings(bookings, 0)) != 0 {
		t.Fatal("n=0 should return nothing")
	}
}

func TestUpcomingConfirmedIgnoresTime(t *testing.T) {
	bookings := []Booking{
		{ID: 1, Status: StatusConfirmed, Date: day(2001, 1, 1)},
		{ID: 2, Status: StatusConfirmed, Date: day(2099, 1, 1)},
		{ID: 3, Status: StatusCompleted, Date: day(2099, 1, 2)},
		{ID: 4, Status: StatusConfirmed, Date: day(2050, 1, 1), Archived: true},
	}
	got := UpcomingConfirmed(bookings)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected upcoming: %+v", got)
	}
}

func TestCalendarDatesKeepsDuplicates(t *testing.T) {
	d := day(2025, 6, 6)
	bookings := []Booking{
		{Status: StatusConfirmed, Date: d},
		{Status: StatusPending, Date: d},
		{Status: StatusCancelled, Date: d},
		{Status: StatusCompleted, Date: d, Archived: true},
		{Status: StatusCompleted, Date: day(2025, 6, 7)},
	}
	dates := CalendarDates(bookings)
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %v", dates)
	}
	marks := MarkCalendar(bookings)
	if len(marks.Active) != 2 || len(marks.Completed) != 1 {
		t.Fatalf("unexpected marks: %+v", marks)
	}
}

func TestBookingsOn(t *testing.T) {
	bookings := []Booking{
		{ID: 1, Date: time.Date(2025, 6, 6, 18, 0, 0, 0, time.UTC)},
		{ID: 2, Date: time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC)},
		{ID: 3, Date: time.Date(2025, 6, 7, 10, 0, 0, 0, time.UTC)},
		{ID: 4, Date: time.Date(2025, 6, 6, 11, 0, 0, 0, time.UTC), Archived: true},
	}
	got := BookingsOn(bookings, day(2025, 6, 6))
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected bookings on day: %+v", got)
	}
}

func TestBookingReportPolicy(t *testing.T) {
	bookings := []Booking{
		{Status: StatusConfirmed, Total: Money{Cents: 100}, Deposit: Money{Cents: 10}},
		{Status: StatusCompleted, Total: Money{Cents: 200}, Deposit: Money{Cents: 20}},
		{Status: StatusPending, Total: Money{Cents: 400}, Deposit: Money{Cents: 40}},
		{Status: StatusCancelled, Total: Money{Cents: 800}, Deposit: Money{Cents: 80}},
	}
	r := SummarizeBookingReport(bookings)
	if r.Active != 3 || r.Revenue.Cents != 300 || r.Deposits.Cents != 30 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestFinanceSummaryBalance(t *testing.T) {
	f := SummarizeFinance([]Movement{
		{Type: MovementIncome, Amount: Money{Cents: 100}},
		{Type: MovementExpense, Amount: Money{Cents: 250}},
	})
	if f.Balance().Cents != -150 {
		t.Fatalf("balance = %d", f.Balance().Cents)
	}
}
