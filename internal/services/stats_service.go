package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pelotero/internal/core"
	"pelotero/internal/metrics"
	"pelotero/internal/store"
)

// StatsService derives the dashboard figures. Nothing is cached: every
// call re-reads the store, so a reset or archive shows up on the next
// read.
type StatsService struct {
	store store.Store
	settings
}

func NewStatsService(st store.Store, opts ...Option) *StatsService {
	return &StatsService{store: st, settings: newSettings(opts)}
}

var counted = store.BookingFilter{Excluded: store.Bool(false)}

func (s *StatsService) bookings(ctx context.Context, f store.BookingFilter) ([]core.Booking, error) {
	items, err := s.store.SelectBookings(ctx, store.BookingQuery{Filter: f})
	if err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}
	return items, nil
}

func (s *StatsService) movements(ctx context.Context, f store.MovementFilter) ([]core.Movement, error) {
	items, err := s.store.SelectMovements(ctx, store.MovementQuery{Filter: f})
	if err != nil {
		return nil, fmt.Errorf("read movements: %w", err)
	}
	return items, nil
}

func (s *StatsService) ConfirmedCount(ctx context.Context) (int, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{
		Statuses: []core.BookingStatus{core.StatusConfirmed},
		Excluded: store.Bool(false),
	})
	if err != nil {
		return 0, err
	}
	return core.ConfirmedCount(bs), nil
}

func (s *StatsService) TotalRevenue(ctx context.Context) (core.Money, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{
		NotStatuses: []core.BookingStatus{core.StatusCancelled},
		Excluded:    store.Bool(false),
	})
	if err != nil {
		return core.Money{}, err
	}
	return core.TotalRevenue(bs), nil
}

func (s *StatsService) TotalDeposits(ctx context.Context) (core.Money, error) {
	bs, err := s.bookings(ctx, counted)
	if err != nil {
		return core.Money{}, err
	}
	return core.TotalDeposits(bs), nil
}

func (s *StatsService) TotalExpenses(ctx context.Context) (core.Money, error) {
	ms, err := s.movements(ctx, store.MovementFilter{Type: core.MovementExpense, Excluded: store.Bool(false)})
	if err != nil {
		return core.Money{}, err
	}
	return core.TotalExpenses(ms), nil
}

func (s *StatsService) OtherIncome(ctx context.Context) (core.Money, error) {
	ms, err := s.movements(ctx, store.MovementFilter{Type: core.MovementIncome, Excluded: store.Bool(false)})
	if err != nil {
		return core.Money{}, err
	}
	return core.OtherIncome(ms), nil
}

// Net is revenue plus other income minus expenses.
func (s *StatsService) Net(ctx context.Context) (core.Money, error) {
	t, err := s.Totals(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return t.Net(), nil
}

// Totals reads both collections concurrently and sums them.
func (s *StatsService) Totals(ctx context.Context) (core.Totals, error) {
	bs, ms, err := s.readBoth(ctx, counted, store.MovementFilter{Excluded: store.Bool(false)})
	if err != nil {
		return core.Totals{}, err
	}
	return core.Summarize(bs, ms), nil
}

// RecentBookings returns up to n non-archived bookings, newest first.
// n <= 0 yields an empty slice.
func (s *StatsService) RecentBookings(ctx context.Context, n int) ([]core.Booking, error) {
	if n <= 0 {
		return []core.Booking{}, nil
	}
	items, err := s.store.SelectBookings(ctx, store.BookingQuery{
		Filter: store.BookingFilter{Archived: store.Bool(false)},
		Limit:  n,
	})
	if err != nil {
		return nil, fmt.Errorf("read recent bookings: %w", err)
	}
	return items, nil
}

// UpcomingConfirmed lists non-archived confirmed bookings, newest first.
// Past dates are included.
func (s *StatsService) UpcomingConfirmed(ctx context.Context) ([]core.Booking, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{
		Statuses: []core.BookingStatus{core.StatusConfirmed},
		Archived: store.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	return core.UpcomingConfirmed(bs), nil
}

func (s *StatsService) CalendarDates(ctx context.Context) ([]time.Time, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{Archived: store.Bool(false)})
	if err != nil {
		return nil, err
	}
	return core.CalendarDates(bs), nil
}

func (s *StatsService) CalendarMarks(ctx context.Context) (core.CalendarMarks, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{Archived: store.Bool(false)})
	if err != nil {
		return core.CalendarMarks{}, err
	}
	return core.MarkCalendar(bs), nil
}

// BookingsOn lists the non-archived bookings on day's calendar date.
func (s *StatsService) BookingsOn(ctx context.Context, day time.Time) ([]core.Booking, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{Archived: store.Bool(false)})
	if err != nil {
		return nil, err
	}
	return core.BookingsOn(bs, day.In(s.loc)), nil
}

// Dashboard computes every home page figure from one concurrent read of
// each collection.
func (s *StatsService) Dashboard(ctx context.Context, recent int) (core.Dashboard, error) {
	start := time.Now()
	defer func() { metrics.DashboardDuration.Observe(time.Since(start).Seconds()) }()

	bs, ms, err := s.readBoth(ctx, store.BookingFilter{}, store.MovementFilter{})
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Dashboard{
		Totals:            core.Summarize(bs, ms),
		Recent:            core.RecentBookings(bs, recent),
		UpcomingConfirmed: core.UpcomingConfirmed(bs),
		CalendarDates:     core.CalendarDates(bs),
	}, nil
}

// FinanceSummary lists every movement with the balance over those still
// counted.
func (s *StatsService) FinanceSummary(ctx context.Context) (core.FinanceSummary, error) {
	ms, err := s.movements(ctx, store.MovementFilter{})
	if err != nil {
		return core.FinanceSummary{}, err
	}
	return core.SummarizeFinance(ms), nil
}

// BookingReport summarizes bookings with the export report policy.
func (s *StatsService) BookingReport(ctx context.Context) ([]core.Booking, core.BookingReport, error) {
	bs, err := s.bookings(ctx, store.BookingFilter{})
	if err != nil {
		return nil, core.BookingReport{}, err
	}
	return bs, core.SummarizeBookingReport(bs), nil
}

func (s *StatsService) readBoth(ctx context.Context, bf store.BookingFilter, mf store.MovementFilter) ([]core.Booking, []core.Movement, error) {
	var (
		bs []core.Booking
		ms []core.Movement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bs, err = s.bookings(gctx, bf)
		return err
	})
	g.Go(func() error {
		var err error
		ms, err = s.movements(gctx, mf)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return bs, ms, nil
}
