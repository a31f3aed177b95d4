package http

import (
	"time"

	"pelotero/internal/core"
)

type moneyDTO struct {
	Cents int64  `json:"cents"`
	Text  string `json:"text"`
}

func money(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Text: m.String()}
}

type bookingDTO struct {
	ID                int64     `json:"id"`
	ClientName        string    `json:"client_name"`
	Date              time.Time `json:"date"`
	TimeSlot          string    `json:"time_slot"`
	Deposit           moneyDTO  `json:"deposit"`
	Total             moneyDTO  `json:"total"`
	Balance           moneyDTO  `json:"balance"`
	Status            string    `json:"status"`
	Observations      string    `json:"observations"`
	Archived          bool      `json:"archived"`
	ExcludedFromStats bool      `json:"excluded_from_stats"`
	CreatedAt         time.Time `json:"created_at"`
}

func toBooking(b core.Booking) bookingDTO {
	return bookingDTO{
		ID:                b.ID,
		ClientName:        b.ClientName,
		Date:              b.Date,
		TimeSlot:          b.TimeSlot,
		Deposit:           money(b.Deposit),
		Total:             money(b.Total),
		Balance:           money(b.Total.Sub(b.Deposit)),
		Status:            string(b.Status.Normalize()),
		Observations:      b.Observations,
		Archived:          b.Archived,
		ExcludedFromStats: b.ExcludedFromStats,
		CreatedAt:         b.CreatedAt,
	}
}

func toBookings(bs []core.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBooking(b))
	}
	return out
}

type movementDTO struct {
	ID                int64     `json:"id"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	Amount            moneyDTO  `json:"amount"`
	Type              string    `json:"type"`
	ExcludedFromStats bool      `json:"excluded_from_stats"`
	Date              time.Time `json:"date"`
}

func toMovement(m core.Movement) movementDTO {
	return movementDTO{
		ID:                m.ID,
		Description:       m.Description,
		Category:          m.Category,
		Amount:            money(m.Amount),
		Type:              string(m.Type),
		ExcludedFromStats: m.ExcludedFromStats,
		Date:              m.Date,
	}
}

type totalsDTO struct {
	ConfirmedCount int      `json:"confirmed_count"`
	Revenue        moneyDTO `json:"revenue"`
	Deposits       moneyDTO `json:"deposits"`
	Expenses       moneyDTO `json:"expenses"`
	OtherIncome    moneyDTO `json:"other_income"`
	Net            moneyDTO `json:"net"`
}

type dashboardDTO struct {
	Totals            totalsDTO    `json:"totals"`
	Recent            []bookingDTO `json:"recent"`
	UpcomingConfirmed []bookingDTO `json:"upcoming_confirmed"`
	CalendarDates     []string     `json:"calendar_dates"`
}

func toDashboard(d core.Dashboard, loc *time.Location) dashboardDTO {
	return dashboardDTO{
		Totals: totalsDTO{
			ConfirmedCount: d.ConfirmedCount,
			Revenue:        money(d.Revenue),
			Deposits:       money(d.Deposits),
			Expenses:       money(d.Expenses),
			OtherIncome:    money(d.OtherIncome),
			Net:            money(d.Net()),
		},
		Recent:            toBookings(d.Recent),
		UpcomingConfirmed: toBookings(d.UpcomingConfirmed),
		CalendarDates:     days(d.CalendarDates, loc),
	}
}

type calendarDTO struct {
	Active    []string `json:"active"`
	Completed []string `json:"completed"`
}

func toCalendar(m core.CalendarMarks, loc *time.Location) calendarDTO {
	return calendarDTO{Active: days(m.Active, loc), Completed: days(m.Completed, loc)}
}

// days renders calendar days in loc. Duplicates are kept.
func days(ts []time.Time, loc *time.Location) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.In(loc).Format(time.DateOnly))
	}
	return out
}

type financeDTO struct {
	Movements []movementDTO `json:"movements"`
	Income    moneyDTO      `json:"income"`
	Expense   moneyDTO      `json:"expense"`
	Balance   moneyDTO      `json:"balance"`
}

func toFinance(f core.FinanceSummary) financeDTO {
	ms := make([]movementDTO, 0, len(f.Movements))
	for _, m := range f.Movements {
		ms = append(ms, toMovement(m))
	}
	return financeDTO{
		Movements: ms,
		Income:    money(f.Income),
		Expense:   money(f.Expense),
		Balance:   money(f.Balance()),
	}
}

type countDTO struct {
	Affected int64 `json:"affected"`
}
