package core

import (
	"cmp"
	"slices"
	"time"
)

// Aggregates computed over booking and movement sets. Each function applies
// its own predicate, so callers may pass either a raw collection or one the
// store already narrowed; an empty or nil input yields zero.

// ConfirmedCount counts confirmed bookings that are not excluded from stats.
func ConfirmedCount(bookings []Booking) int {
	n := 0
	for _, b := range bookings {
		if !b.ExcludedFromStats && b.Status.Normalize() == StatusConfirmed {
			n++
		}
	}
	return n
}

// TotalRevenue sums totals of every non-cancelled booking, pending and
// unset statuses included.
func TotalRevenue(bookings []Booking) Money {
	var sum Money
	for _, b := range bookings {
		if b.ExcludedFromStats || b.Status.Normalize() == StatusCancelled {
			continue
		}
		sum = sum.Add(b.Total)
	}
	return sum
}

// TotalDeposits sums deposits regardless of status: a cancelled booking
// keeps its deposit.
func TotalDeposits(bookings []Booking) Money {
	var sum Money
	for _, b := range bookings {
		if !b.ExcludedFromStats {
			sum = sum.Add(b.Deposit)
		}
	}
	return sum
}

// TotalExpenses sums expense movements not excluded from stats.
func TotalExpenses(movements []Movement) Money {
	return sumMovements(movements, MovementExpense)
}

// OtherIncome sums income movements not excluded from stats.
func OtherIncome(movements []Movement) Money {
	return sumMovements(movements, MovementIncome)
}

func sumMovements(movements []Movement, typ MovementType) Money {
	var sum Money
	for _, m := range movements {
		if !m.ExcludedFromStats && m.Type == typ {
			sum = sum.Add(m.Amount)
		}
	}
	return sum
}

// RecentBookings returns up to n non-archived bookings, newest date first.
func RecentBookings(bookings []Booking, n int) []Booking {
	if n <= 0 {
		return []Booking{}
	}
	out := filterBookings(bookings, func(b Booking) bool { return !b.Archived })
	SortByDateDesc(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// UpcomingConfirmed returns non-archived confirmed bookings, newest date
// first. Past dates are kept: the filter is on status only.
func UpcomingConfirmed(bookings []Booking) []Booking {
	out := filterBookings(bookings, func(b Booking) bool {
		return !b.Archived && b.Status.Normalize() == StatusConfirmed
	})
	SortByDateDesc(out)
	return out
}

// CalendarDates projects non-archived, non-cancelled bookings to their
// dates. Duplicates are kept.
func CalendarDates(bookings []Booking) []time.Time {
	out := []time.Time{}
	for _, b := range bookings {
		if onCalendar(b) {
			out = append(out, b.Date)
		}
	}
	return out
}

func onCalendar(b Booking) bool {
	return !b.Archived && b.Status.Normalize() != StatusCancelled
}

// CalendarMarks splits calendar dates the way the calendar widget shades
// them.
type CalendarMarks struct {
	Active    []time.Time // confirmed or pending
	Completed []time.Time
}

func MarkCalendar(bookings []Booking) CalendarMarks {
	marks := CalendarMarks{Active: []time.Time{}, Completed: []time.Time{}}
	for _, b := range bookings {
		if !onCalendar(b) {
			continue
		}
		if b.Status.Normalize() == StatusCompleted {
			marks.Completed = append(marks.Completed, b.Date)
		} else {
			marks.Active = append(marks.Active, b.Date)
		}
	}
	return marks
}

// BookingsOn returns the non-archived bookings whose date falls on the
// calendar day of day, in day's location.
func BookingsOn(bookings []Booking, day time.Time) []Booking {
	y, m, d := day.Date()
	out := filterBookings(bookings, func(b Booking) bool {
		by, bm, bd := b.Date.In(day.Location()).Date()
		return !b.Archived && by == y && bm == m && bd == d
	})
	slices.SortStableFunc(out, func(a, b Booking) int { return a.Date.Compare(b.Date) })
	return out
}

// SortByDateDesc orders bookings newest first, ties by id descending.
func SortByDateDesc(bookings []Booking) {
	slices.SortStableFunc(bookings, func(a, b Booking) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func filterBookings(bookings []Booking, keep func(Booking) bool) []Booking {
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
