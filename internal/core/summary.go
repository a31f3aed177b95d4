package core

import "time"

// Totals are the dashboard figures derived from both collections.
type Totals struct {
	ConfirmedCount int
	Revenue        Money
	Deposits       Money
	Expenses       Money
	OtherIncome    Money
}

// Net is revenue plus other income minus expenses. It can be negative.
func (t Totals) Net() Money {
	return t.Revenue.Add(t.OtherIncome).Sub(t.Expenses)
}

// Summarize computes Totals from the given record sets.
func Summarize(bookings []Booking, movements []Movement) Totals {
	return Totals{
		ConfirmedCount: ConfirmedCount(bookings),
		Revenue:        TotalRevenue(bookings),
		Deposits:       TotalDeposits(bookings),
		Expenses:       TotalExpenses(movements),
		OtherIncome:    OtherIncome(movements),
	}
}

// Dashboard is everything the home page shows, computed in one pass.
type Dashboard struct {
	Totals
	Recent            []Booking
	UpcomingConfirmed []Booking
	CalendarDates     []time.Time
}

// FinanceSummary backs the finance page: the movement list and its
// balance over movements that still count toward stats.
type FinanceSummary struct {
	Movements []Movement
	Income    Money
	Expense   Money
}

func (f FinanceSummary) Balance() Money {
	return f.Income.Sub(f.Expense)
}

func SummarizeFinance(movements []Movement) FinanceSummary {
	return FinanceSummary{
		Movements: movements,
		Income:    OtherIncome(movements),
		Expense:   TotalExpenses(movements),
	}
}

// BookingReport is the header of the exported booking report. Unlike the
// dashboard, revenue and deposits only count confirmed and completed
// bookings.
type BookingReport struct {
	Active   int // non-cancelled bookings
	Revenue  Money
	Deposits Money
}

func SummarizeBookingReport(bookings []Booking) BookingReport {
	var r BookingReport
	for _, b := range bookings {
		if b.ExcludedFromStats {
			continue
		}
		st := b.Status.Normalize()
		if st != StatusCancelled {
			r.Active++
		}
		if st == StatusConfirmed || st == StatusCompleted {
			r.Revenue = r.Revenue.Add(b.Total)
			r.Deposits = r.Deposits.Add(b.Deposit)
		}
	}
	return r
}
