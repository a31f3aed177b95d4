package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pelotero/internal/export"
	"pelotero/internal/log"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	recent := ParseCount(r.URL.Query(), "recent", s.recent)
	d, err := s.app.Stats.Dashboard(r.Context(), recent)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toDashboard(d, s.loc)).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	m, err := s.app.Stats.CalendarMarks(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toCalendar(m, s.loc)).Write(w)
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := ParseDay(chi.URLParam(r, "day"), s.loc)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	bs, err := s.app.Stats.BookingsOn(r.Context(), day)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().JSON(toBookings(bs)).Write(w)
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Reset.ExcludeAllFromStats(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewResponse().
		TriggerBookingsChanged().
		TriggerMovementsChanged().
		JSON(res).
		Write(w)
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	bs, sum, err := s.app.Stats.BookingReport(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, s.report(), bs, sum); err != nil {
		ErrorFor(r, fmt.Errorf("export bookings: %w", err)).Write(w)
		return
	}
	s.sendWorkbook(w, r, "reservas", buf.Bytes())
}

func (s *Server) handleExportFinance(w http.ResponseWriter, r *http.Request) {
	f, err := s.app.Stats.FinanceSummary(r.Context())
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteFinance(&buf, s.report(), f); err != nil {
		ErrorFor(r, fmt.Errorf("export finance: %w", err)).Write(w)
		return
	}
	s.sendWorkbook(w, r, "finanzas", buf.Bytes())
}

func (s *Server) report() export.Report {
	return export.Report{Generated: s.now(), Loc: s.loc}
}

// sendWorkbook writes a rendered workbook as an attachment. Rendering goes
// to a buffer first so a failure can still produce a JSON error.
func (s *Server) sendWorkbook(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, s.now().In(s.loc).Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Export write failed",
			log.FieldComponent, log.ComponentExport, log.FieldError, err)
	}
}
