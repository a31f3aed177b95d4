package core

import (
	"errors"
	"testing"
	"time"
)

func TestBookingValidate(t *testing.T) {
	day := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)
	good := Booking{ClientName: "Ana", Date: day, Deposit: Money{Cents: 500}, Total: Money{Cents: 2000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Booking{
		{ClientName: "Ana"},                                     // zero date
		{ClientName: "  ", Date: day},                           // blank client
		{ClientName: "Ana", Date: day, Deposit: Money{Cents: -1}}, // negative deposit
		{ClientName: "Ana", Date: day, Total: Money{Cents: -5}},   // negative total
	}
	for i, b := range bads {
		if err := b.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestDepositAboveTotalIsTolerated(t *testing.T) {
	b := Booking{ClientName: "Ana", Date: time.Now(), Deposit: Money{Cents: 900}, Total: Money{Cents: 100}}
	if err := b.Validate(); err != nil {
		t.Fatalf("deposit above total must not fail validation: %v", err)
	}
	if !b.DepositExceedsTotal() {
		t.Fatal("expected DepositExceedsTotal")
	}
}

func TestParseMovementType(t *testing.T) {
	cases := []struct {
		in   string
		want MovementType
		ok   bool
	}{
		{"", MovementExpense, true},
		{"expense", MovementExpense, true},
		{" Income ", MovementIncome, true},
		{"refund", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMovementType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", tc.in, err)
		}
	}
}

func TestStatusNormalize(t *testing.T) {
	if BookingStatus("").Normalize() != StatusPending {
		t.Fatal("empty status should read as pending")
	}
	if StatusConfirmed.Normalize() != StatusConfirmed {
		t.Fatal("confirmed should stay confirmed")
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPending, StatusCancelled, true},
		{"", StatusCancelled, true},
		{StatusCancelled, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%q -> %q = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestRequireID(t *testing.T) {
	if err := RequireID(0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero id, got %v", err)
	}
	if err := RequireID(7); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
