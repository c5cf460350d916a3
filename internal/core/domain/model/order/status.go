package order

import (
	"fmt"
	"strings"

	"pizzeria/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
//	PENDING ──> ACCEPTED ──> READY ──┬──> ON_THE_WAY ──────┬──> DELIVERED_PAID
//	                                 └──> DELIVERED_UNPAID ─┘
//
// CANCELLED is reachable from PENDING, ACCEPTED, ON_THE_WAY and DELIVERED_UNPAID.
// DELIVERED_PAID and CANCELLED are terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the status of a freshly placed order.
	Pending

	// Accepted means the kitchen is preparing the order.
	Accepted

	// Ready means the order left the kitchen.
	Ready

	// OnTheWay means a courier is delivering the order.
	OnTheWay

	// DeliveredUnpaid means the order was served on site and awaits payment.
	DeliveredUnpaid

	// DeliveredPaid is the terminal success state.
	DeliveredPaid

	// Cancelled is the terminal failure state.
	Cancelled
)

// transitions is the legal-transition table, indexed by the current status.
var transitions = [...][]Status{
	Unknown:         nil,
	Pending:         {Accepted, Cancelled},
	Accepted:        {Ready, Cancelled},
	Ready:           {OnTheWay, DeliveredUnpaid},
	OnTheWay:        {DeliveredPaid, Cancelled},
	DeliveredUnpaid: {DeliveredPaid, Cancelled},
	DeliveredPaid:   nil,
	Cancelled:       nil,
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Pending, Accepted, Ready, OnTheWay, DeliveredUnpaid, DeliveredPaid, Cancelled}
}

// String returns the API name of the status, e.g. "ON_THE_WAY".
func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Accepted:
		return "ACCEPTED"
	case Ready:
		return "READY"
	case OnTheWay:
		return "ON_THE_WAY"
	case DeliveredUnpaid:
		return "DELIVERED_UNPAID"
	case DeliveredPaid:
		return "DELIVERED_PAID"
	case Cancelled:
		return "CANCELLED"
	case Unknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// Code returns the two-letter code stored in the database.
func (s Status) Code() string {
	switch s {
	case Pending:
		return "PE"
	case Accepted:
		return "AP"
	case Ready:
		return "RE"
	case OnTheWay:
		return "OW"
	case DeliveredUnpaid:
		return "DN"
	case DeliveredPaid:
		return "DY"
	case Cancelled:
		return "CA"
	case Unknown:
		return ""
	default:
		return ""
	}
}

// ParseStatus accepts the API name or the stored code, case-insensitively.
func ParseStatus(s string) (Status, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for _, st := range Statuses() {
		if key == st.String() || key == st.Code() {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the seven lifecycle states.
func (s Status) Validate() error {
	if s < Pending || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == DeliveredPaid || s == Cancelled
}

// AllowedTransitions returns the statuses reachable from s in one step.
func (s Status) AllowedTransitions() []Status {
	if s.Validate() != nil {
		return nil
	}
	next := make([]Status, len(transitions[s]))
	copy(next, transitions[s])
	return next
}

// CanTransitionTo reports whether target is a legal next status.
func (s Status) CanTransitionTo(target Status) bool {
	if s.Validate() != nil {
		return false
	}
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
