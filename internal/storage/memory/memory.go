package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"pelotero/internal/core"
	"pelotero/internal/store"
)

// Store is an in-process Record Store. Every read returns copies.
type Store struct {
	mu        sync.Mutex
	bookings  map[int64]core.Booking
	movements map[int64]core.Movement
	nextID    int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bookings:  make(map[int64]core.Booking),
		movements: make(map[int64]core.Movement),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) InsertBooking(_ context.Context, b core.Booking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.bookings[b.ID] = b
	return b.ID, nil
}

func (s *Store) UpdateBooking(ctx context.Context, id int64, patch store.BookingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		slog.WarnContext(ctx, "Booking update matched no row", "id", id)
		return nil
	}
	s.bookings[id] = patch.Apply(b)
	return nil
}

func (s *Store) UpdateBookings(_ context.Context, f store.BookingFilter, patch store.BookingPatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.bookings {
		if f.Matches(b) {
			s.bookings[id] = patch.Apply(b)
			n++
		}
	}
	return n, nil
}

func (s *Store) SelectBookings(_ context.Context, q store.BookingQuery) ([]core.Booking, error) {
	s.mu.Lock()
	out := make([]core.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if q.Filter.Matches(b) {
			out = append(out, b)
		}
	}
	s.mu.Unlock()

	core.SortByDateDesc(out)
	if q.Order == store.OrderDateAsc {
		slices.Reverse(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) GetBooking(_ context.Context, id int64) (core.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return core.Booking{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) InsertMovement(_ context.Context, m core.Movement) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.movements[m.ID] = m
	return m.ID, nil
}

func (s *Store) UpdateMovement(ctx context.Context, id int64, patch store.MovementPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		slog.WarnContext(ctx, "Movement update matched no row", "id", id)
		return nil
	}
	s.movements[id] = patch.Apply(m)
	return nil
}

func (s *Store) UpdateMovements(_ context.Context, f store.MovementFilter, patch store.MovementPatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.movements {
		if f.Matches(m) {
			s.movements[id] = patch.Apply(m)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[id]; !ok {
		slog.WarnContext(ctx, "Movement delete matched no row", "id", id)
		return nil
	}
	delete(s.movements, id)
	return nil
}

func (s *Store) SelectMovements(_ context.Context, q store.MovementQuery) ([]core.Movement, error) {
	s.mu.Lock()
	out := make([]core.Movement, 0, len(s.movements))
	for _, m := range s.movements {
		if q.Filter.Matches(m) {
			out = append(out, m)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.Movement) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if q.Order == store.OrderDateAsc {
		slices.Reverse(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) GetMovement(_ context.Context, id int64) (core.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movements[id]
	if !ok {
		return core.Movement{}, core.ErrNotFound
	}
	return m, nil
}
