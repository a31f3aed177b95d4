package log

import (
	"time"

	"pelotero/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldUserAgent    = "user_agent"
	FieldReferer      = "referer"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldID           = "id"
	FieldClientName   = "client_name"
	FieldBookingDate  = "booking_date"
	FieldStatus       = "status"
	FieldFromStatus   = "from_status"
	FieldMovementType = "movement_type"
	FieldAmountCents  = "amount_cents"
	FieldDepositCents = "deposit_cents"
	FieldTotalCents   = "total_cents"
	FieldAffected     = "affected"
	FieldEntity       = "entity"
	FieldAction       = "action"
	FieldSheetsRow    = "sheets_row"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBooking   = "booking"
	ComponentMovement  = "movement"
	ComponentAuth      = "auth"
	ComponentExport    = "export"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpSync    = "sync"
	OpArchive = "archive"
	OpExclude = "exclude"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBooking adds booking-related fields
func (f LogFields) WithBooking(b core.Booking) LogFields {
	f[FieldID] = b.ID
	f[FieldClientName] = b.ClientName
	f[FieldBookingDate] = b.Date.Format(time.DateOnly)
	f[FieldStatus] = string(b.Status)
	f[FieldTotalCents] = b.Total.Cents
	f[FieldDepositCents] = b.Deposit.Cents
	return f
}

// WithMovement adds movement-related fields
func (f LogFields) WithMovement(m core.Movement) LogFields {
	f[FieldID] = m.ID
	f[FieldMovementType] = string(m.Type)
	f[FieldAmountCents] = m.Amount.Cents
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}