package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"pelotero/internal/config"
	"pelotero/internal/core"
	"pelotero/internal/log"
	ports "pelotero/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	bookingHeader  = []any{"ID", "Cliente", "Fecha", "Horario", "Seña", "Total", "Estado", "Observaciones", "Archivada", "Excluida", "Creada"}
	movementHeader = []any{"ID", "Fecha", "Descripción", "Categoría", "Tipo", "Monto", "Excluido"}
)

// valuesAPI is the subset of the Sheets values service the mirror needs.
type valuesAPI interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, rows [][]any) error
	append(ctx context.Context, rng string, rows [][]any) (string, error)
	clear(ctx context.Context, rng string) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	bookingTab    string
	movementTab   string
	loc           *time.Location
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// NewFromConfig creates a Sheets client from the mirror settings in cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var svc *gsheet.Service
	var err error
	if cfg.SheetsOAuth() {
		var secret []byte
		secret, err = ReadClientSecret(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
		if err == nil {
			svc, err = newOAuthSheetsService(ctx, secret, cfg.GoogleOAuthTokenFile)
		}
	} else {
		svc, err = newSheetsService(ctx, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		values:        &serviceValues{svc: svc, spreadsheetID: spreadsheetID},
		spreadsheetID: spreadsheetID,
		bookingTab:    cfg.SheetsBookingTab,
		movementTab:   cfg.SheetsMovementTab,
		loc:           cfg.Location(),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", log.FieldComponent, log.ComponentSheets)
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", log.FieldComponent, log.ComponentSheets, "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully", log.FieldComponent, log.ComponentSheets)
	return service, nil
}

func (c *Client) UpsertBooking(ctx context.Context, b core.Booking) (string, error) {
	return c.upsert(ctx, c.bookingTab, b.ID, bookingRow(b, c.loc))
}

func (c *Client) ReplaceBookings(ctx context.Context, bs []core.Booking) error {
	rows := make([][]any, 0, len(bs)+1)
	rows = append(rows, bookingHeader)
	for _, b := range bs {
		rows = append(rows, bookingRow(b, c.loc))
	}
	return c.replace(ctx, c.bookingTab, rows)
}

func (c *Client) UpsertMovement(ctx context.Context, m core.Movement) (string, error) {
	return c.upsert(ctx, c.movementTab, m.ID, movementRow(m, c.loc))
}

func (c *Client) RemoveMovement(ctx context.Context, id int64) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}
	ids, err := c.values.get(ctx, a1(c.movementTab, "A:A"))
	if err != nil {
		return fmt.Errorf("read %s ids: %w", c.movementTab, err)
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Movement not in sheet, nothing to remove",
			log.FieldComponent, log.ComponentSheets, log.FieldID, id)
		return nil
	}
	last := columnName(len(movementHeader))
	if err := c.values.clear(ctx, a1(c.movementTab, fmt.Sprintf("A%d:%s%d", row, last, row))); err != nil {
		return fmt.Errorf("clear %s row %d: %w", c.movementTab, row, err)
	}
	return nil
}

func (c *Client) ReplaceMovements(ctx context.Context, ms []core.Movement) error {
	rows := make([][]any, 0, len(ms)+1)
	rows = append(rows, movementHeader)
	for _, m := range ms {
		rows = append(rows, movementRow(m, c.loc))
	}
	return c.replace(ctx, c.movementTab, rows)
}

// upsert rewrites the row whose column A holds id, or appends one.
func (c *Client) upsert(ctx context.Context, tab string, id int64, row []any) (string, error) {
	if c.values == nil {
		return "", errors.New("sheets service not initialized")
	}

	ids, err := c.values.get(ctx, a1(tab, "A:A"))
	if err != nil {
		return "", fmt.Errorf("read %s ids: %w", tab, err)
	}

	if n := findRow(ids, id); n > 0 {
		rng := a1(tab, fmt.Sprintf("A%d:%s%d", n, columnName(len(row)), n))
		if err := c.values.update(ctx, rng, [][]any{row}); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}

	ref, err := c.values.append(ctx, a1(tab, "A1"), [][]any{row})
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", tab, err)
	}
	return ref, nil
}

func (c *Client) replace(ctx context.Context, tab string, rows [][]any) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.values.clear(ctx, a1(tab, "A:Z")); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}
	if err := c.values.update(ctx, a1(tab, "A1"), rows); err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Sheet rewritten", log.FieldComponent, log.ComponentSheets,
		"tab", tab, "rows", len(rows)-1)
	return nil
}

func bookingRow(b core.Booking, loc *time.Location) []any {
	created := ""
	if !b.CreatedAt.IsZero() {
		created = b.CreatedAt.In(loc).Format("2006-01-02 15:04")
	}
	return []any{
		b.ID,
		b.ClientName,
		b.Date.In(loc).Format(time.DateOnly),
		b.TimeSlot,
		b.Deposit.Units(),
		b.Total.Units(),
		string(b.Status.Normalize()),
		b.Observations,
		yesNo(b.Archived),
		yesNo(b.ExcludedFromStats),
		created,
	}
}

func movementRow(m core.Movement, loc *time.Location) []any {
	return []any{
		m.ID,
		m.Date.In(loc).Format(time.DateOnly),
		m.Description,
		m.Category,
		string(m.Type),
		m.Amount.Units(),
		yesNo(m.ExcludedFromStats),
	}
}

func yesNo(v bool) string {
	if v {
		return "sí"
	}
	return "no"
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// Header and blank rows never match.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}

// columnName maps 1 to A, 26 to Z, 27 to AA.
func columnName(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

// a1 builds an A1 range on tab, quoting the tab name.
func a1(tab, rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(tab, "'", "''"), rng)
}

// serviceValues adapts the generated Sheets client to valuesAPI.
type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) append(ctx context.Context, rng string, rows [][]any) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (s *serviceValues) clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
