package core

import (
	"strings"
	"time"
)

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

const (
	MovementIncome  MovementType = "income"
	MovementExpense MovementType = "expense"
)

type (
	BookingStatus string

	MovementType string

	Money struct {
		Cents int64
	}

	Booking struct {
		ID                int64
		ClientName        string
		Date              time.Time
		TimeSlot          string // free-text label, e.g. "14:00-18:00"
		Deposit           Money
		Total             Money
		Status            BookingStatus
		Observations      string
		Archived          bool
		ExcludedFromStats bool
		CreatedAt         time.Time
	}

	Movement struct {
		ID                int64
		Description       string
		Category          string
		Amount            Money
		Type              MovementType
		ExcludedFromStats bool
		Date              time.Time
	}
)

// Normalize maps an unset status to pending. Stored rows may carry NULL.
func (s BookingStatus) Normalize() BookingStatus {
	if strings.TrimSpace(string(s)) == "" {
		return StatusPending
	}
	return s
}

// IsValid reports whether s is one of the four known statuses.
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseMovementType maps user input to a MovementType. Empty input
// defaults to expense.
func ParseMovementType(s string) (MovementType, error) {
	switch MovementType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return MovementExpense, nil
	case MovementIncome:
		return MovementIncome, nil
	case MovementExpense:
		return MovementExpense, nil
	default:
		return "", Invalid("type", "must be income or expense")
	}
}

func (t MovementType) String() string {
	return string(t)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Validate checks the fields a new booking must carry before insertion.
func (b Booking) Validate() error {
	if b.Date.IsZero() {
		return Invalid("date", "is required")
	}
	if strings.TrimSpace(b.ClientName) == "" {
		return Invalid("clientName", "cannot be empty")
	}
	if len(b.ClientName) > 200 {
		return Invalid("clientName", "too long (max 200 characters)")
	}
	if err := b.Deposit.Validate(); err != nil {
		return Invalid("deposit", err.Error())
	}
	if err := b.Total.Validate(); err != nil {
		return Invalid("total", err.Error())
	}
	return nil
}

// DepositExceedsTotal reports the one money inconsistency the model
// tolerates but callers may want to flag.
func (b Booking) DepositExceedsTotal() bool {
	return b.Deposit.Cents > b.Total.Cents
}

func (m Movement) Validate() error {
	if err := m.Amount.Validate(); err != nil {
		return Invalid("amount", err.Error())
	}
	if len(m.Description) > 200 {
		return Invalid("description", "too long (max 200 characters)")
	}
	switch m.Type {
	case MovementIncome, MovementExpense:
	default:
		return Invalid("type", "must be income or expense")
	}
	return nil
}
