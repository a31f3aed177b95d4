package services

import (
	"context"
	"fmt"
	"log/slog"

	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

type excluder interface {
	ExcludeAllFromStats(ctx context.Context) (int64, error)
}

// ResetService zeroes the dashboard without deleting history.
type ResetService struct {
	bookings  excluder
	movements excluder
}

func NewResetService(bookings *BookingService, movements *MovementService) *ResetService {
	return &ResetService{bookings: bookings, movements: movements}
}

// ResetResult reports how many rows each command flagged.
type ResetResult struct {
	Bookings  int64 `json:"bookings"`
	Movements int64 `json:"movements"`
}

// ExcludeAllFromStats runs the booking command then the movement command.
// They are independent: if the second fails the first stays applied.
func (r *ResetService) ExcludeAllFromStats(ctx context.Context) (ResetResult, error) {
	var res ResetResult
	var err error

	res.Bookings, err = r.bookings.ExcludeAllFromStats(ctx)
	if err != nil {
		return res, fmt.Errorf("reset stats: %w", err)
	}
	res.Movements, err = r.movements.ExcludeAllFromStats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Stats reset left bookings excluded but movements counted",
			log.FieldAffected, res.Bookings, log.FieldError, err)
		return res, fmt.Errorf("reset stats: %w", err)
	}

	metrics.StatsResets.Inc()
	return res, nil
}
