package http

import (
	"errors"
	"net/http"

	"pelotero/internal/auth"
	"pelotero/internal/log"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, fail := ParseBody(r)
	if fail != nil {
		fail.Write(w)
		return
	}

	token, exp, err := s.auth.Login(r.Context(), p.Get("user"), p.Get("password"))
	switch {
	case errors.Is(err, auth.ErrLoginDisabled):
		ErrorResponse(http.StatusForbidden, "login disabled").Write(w)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		ErrorResponse(http.StatusUnauthorized, "invalid credentials").Write(w)
		return
	case err != nil:
		ErrorFor(r, err).Write(w)
		return
	}

	s.loginLimiter.Forgive(s.detector.ExtractClientIP(r))
	http.SetCookie(w, s.auth.SessionCookie(token, exp))
	NewResponse().
		TriggerDashboardRefresh().
		JSON(map[string]any{"expires_at": exp}).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), r); err != nil && !errors.Is(err, auth.ErrNoSession) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Logout failed",
			log.FieldComponent, log.ComponentAuth, log.FieldError, err)
	}
	http.SetCookie(w, s.auth.ClearCookie())
	NewResponse().Status(http.StatusNoContent).Write(w)
}
