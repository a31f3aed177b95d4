package http

import (
	"net/http"

	"pelotero/internal/services"
)

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	f, err := s.app.Stats.FinanceSummary(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toFinance(f)).Write(w)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	m, err := s.app.Movements.Create(r.Context(), services.NewMovement{
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Type:        p.Get("type"),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerMovementsChanged().
		JSON(toMovement(m)).
		Write(w)
}

func (s *Server) handleUpdateMovement(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}
	if err := s.app.Movements.Update(r.Context(), PathID(r), p.Get("amount"), p.Get("description")); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerMovementsChanged().Write(w)
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Movements.Delete(r.Context(), PathID(r)); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).TriggerMovementsChanged().Write(w)
}
