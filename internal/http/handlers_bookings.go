package http

import (
	"net/http"

	"pelotero/internal/services"
)

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := s.app.Bookings.List(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toBookings(bs)).Write(w)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.app.Bookings.Get(r.Context(), PathID(r))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toBooking(b)).Write(w)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	b, err := s.app.Bookings.Create(r.Context(), services.NewBooking{
		ClientName:   p.Get("client_name"),
		Date:         p.Get("date"),
		TimeSlot:     p.Get("time_slot"),
		Deposit:      p.Get("deposit"),
		Total:        p.Get("total"),
		Observations: p.Get("observations"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/bookings/"+itoa(b.ID)).
		TriggerBookingsChanged().
		JSON(toBooking(b)).
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	if err := s.app.Bookings.UpdateBudget(r.Context(), PathID(r), p.Get("total"), p.Get("deposit")); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerBookingsChanged().Write(w)
}

func (s *Server) handleUpdateObservations(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	if err := s.app.Bookings.UpdateObservations(r.Context(), PathID(r), p.Get("observations")); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Trigger(EventBookingsChanged, nil).Write(w)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Bookings.Cancel(r.Context(), PathID(r)); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerBookingsChanged().Write(w)
}

func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Bookings.Complete(r.Context(), PathID(r)); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerBookingsChanged().Write(w)
}

func (s *Server) handleArchiveRecent(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.Bookings.ArchiveRecent(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().TriggerBookingsChanged().JSON(countDTO{Affected: n}).Write(w)
}

func (s *Server) handleArchiveHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.app.Bookings.ArchiveHistory(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().TriggerBookingsChanged().JSON(countDTO{Affected: n}).Write(w)
}
