// Package export renders booking and finance reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pelotero/internal/core"
)

const (
	BookingSheet = "Reservas"
	FinanceSheet = "Finanzas"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var statusLabels = map[core.BookingStatus]string{
	core.StatusPending:   "Pendiente",
	core.StatusConfirmed: "Confirmada",
	core.StatusCompleted: "Completada",
	core.StatusCancelled: "Cancelada",
}

var typeLabels = map[core.MovementType]string{
	core.MovementIncome:  "Ingreso",
	core.MovementExpense: "Gasto",
}

// Report carries what every workbook needs besides its rows.
type Report struct {
	Generated time.Time
	Loc       *time.Location
}

func (r Report) loc() *time.Location {
	if r.Loc == nil {
		return time.Local
	}
	return r.Loc
}

// WriteBookings writes the booking report: a summary block followed by
// one row per booking.
func WriteBookings(w io.Writer, r Report, bookings []core.Booking, sum core.BookingReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BookingSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	s := sheet{f: f, name: BookingSheet}
	s.title(st, "Reporte de reservas", r.Generated.In(r.loc()))
	s.kv(st, 3, "Reservas activas", sum.Active)
	s.money(st, 4, "Ingresos", sum.Revenue)
	s.money(st, 5, "Señas", sum.Deposits)

	const headerRow = 7
	s.header(st, headerRow, []any{"ID", "Cliente", "Fecha", "Horario", "Seña", "Total", "Saldo", "Estado", "Observaciones"})
	for i, b := range bookings {
		row := headerRow + 1 + i
		s.row(row, []any{
			b.ID,
			b.ClientName,
			b.Date.In(r.loc()).Format("02/01/2006"),
			b.TimeSlot,
			b.Deposit.Units(),
			b.Total.Units(),
			b.Total.Sub(b.Deposit).Units(),
			statusLabel(b.Status),
			b.Observations,
		})
		s.styleRange(st.amount, "E", "G", row)
	}

	s.widths(map[string]float64{"A": 8, "B": 28, "C": 12, "D": 14, "E": 12, "F": 12, "G": 12, "H": 12, "I": 40})
	if s.err != nil {
		return fmt.Errorf("write %s: %w", BookingSheet, s.err)
	}
	return f.Write(w)
}

// WriteFinance writes the finance report: totals and balance, then one
// row per movement.
func WriteFinance(w io.Writer, r Report, fs core.FinanceSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", FinanceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	s := sheet{f: f, name: FinanceSheet}
	s.title(st, "Reporte financiero", r.Generated.In(r.loc()))
	s.money(st, 3, "Ingresos", fs.Income)
	s.money(st, 4, "Gastos", fs.Expense)
	s.money(st, 5, "Balance", fs.Balance())

	const headerRow = 7
	s.header(st, headerRow, []any{"ID", "Fecha", "Descripción", "Categoría", "Tipo", "Monto"})
	for i, m := range fs.Movements {
		row := headerRow + 1 + i
		s.row(row, []any{
			m.ID,
			m.Date.In(r.loc()).Format("02/01/2006"),
			m.Description,
			m.Category,
			typeLabel(m.Type),
			m.Amount.Units(),
		})
		s.styleRange(st.amount, "F", "F", row)
	}

	s.widths(map[string]float64{"A": 8, "B": 12, "C": 36, "D": 18, "E": 10, "F": 12})
	if s.err != nil {
		return fmt.Errorf("write %s: %w", FinanceSheet, s.err)
	}
	return f.Write(w)
}

func statusLabel(s core.BookingStatus) string {
	if l, ok := statusLabels[s.Normalize()]; ok {
		return l
	}
	return string(s)
}

func typeLabel(t core.MovementType) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

type styles struct {
	title, header, label, amount int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return st, fmt.Errorf("title style: %w", err)
	}
	if st.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, fmt.Errorf("label style: %w", err)
	}
	fmtMoney := "#,##0.00"
	if st.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtMoney}); err != nil {
		return st, fmt.Errorf("amount style: %w", err)
	}
	return st, nil
}

// sheet keeps the first write error so callers check once at the end.
type sheet struct {
	f    *excelize.File
	name string
	err  error
}

func (s *sheet) do(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *sheet) title(st styles, text string, generated time.Time) {
	s.do(s.f.SetCellValue(s.name, "A1", text))
	s.do(s.f.SetCellStyle(s.name, "A1", "A1", st.title))
	s.do(s.f.SetCellValue(s.name, "D1", "Generado: "+generated.Format("02/01/2006 15:04")))
}

func (s *sheet) kv(st styles, row int, label string, value any) {
	s.do(s.f.SetCellValue(s.name, fmt.Sprintf("A%d", row), label))
	s.do(s.f.SetCellStyle(s.name, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.label))
	s.do(s.f.SetCellValue(s.name, fmt.Sprintf("B%d", row), value))
}

func (s *sheet) money(st styles, row int, label string, m core.Money) {
	s.kv(st, row, label, m.Units())
	s.styleRange(st.amount, "B", "B", row)
}

func (s *sheet) header(st styles, row int, cols []any) {
	s.row(row, cols)
	last, err := excelize.CoordinatesToCellName(len(cols), row)
	s.do(err)
	s.do(s.f.SetCellStyle(s.name, fmt.Sprintf("A%d", row), last, st.header))
}

func (s *sheet) row(row int, values []any) {
	s.do(s.f.SetSheetRow(s.name, fmt.Sprintf("A%d", row), &values))
}

func (s *sheet) styleRange(style int, from, to string, row int) {
	s.do(s.f.SetCellStyle(s.name, fmt.Sprintf("%s%d", from, row), fmt.Sprintf("%s%d", to, row), style))
}

func (s *sheet) widths(w map[string]float64) {
	for col, width := range w {
		s.do(s.f.SetColWidth(s.name, col, col, width))
	}
}
