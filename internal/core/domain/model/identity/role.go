package identity

import (
	"fmt"
	"strings"

	"pizzeria/internal/pkg/errs"
)

// Role is the staff or customer function an actor performs.
// The set is closed; every switch over Role is expected to be exhaustive.
type Role int

const (
	// UnknownRole catches uninitialized values.
	UnknownRole Role = iota
	Admin
	Kitchen
	Delivery
	Waiter
	Client
)

// Roles lists every valid role in declaration order.
func Roles() []Role {
	return []Role{Admin, Kitchen, Delivery, Waiter, Client}
}

// String returns the upper-case role name used by the API and in tokens.
func (r Role) String() string {
	switch r {
	case Admin:
		return "ADMIN"
	case Kitchen:
		return "KITCHEN"
	case Delivery:
		return "DELIVERY"
	case Waiter:
		return "WAITER"
	case Client:
		return "CLIENT"
	case UnknownRole:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// Code returns the one-letter code the user store persists (A, K, D, W, C).
func (r Role) Code() string {
	switch r {
	case Admin:
		return "A"
	case Kitchen:
		return "K"
	case Delivery:
		return "D"
	case Waiter:
		return "W"
	case Client:
		return "C"
	case UnknownRole:
		return ""
	default:
		return ""
	}
}

// Validate rejects UnknownRole and out-of-range values.
func (r Role) Validate() error {
	if r < Admin || r > Client {
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}

// ParseRole accepts a role name ("KITCHEN"), its code ("K") or the
// "ROLE_"-prefixed form of either, case-insensitively.
func ParseRole(s string) (Role, error) {
	key := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_")
	for _, r := range Roles() {
		if key == r.String() || key == r.Code() {
			return r, nil
		}
	}
	return UnknownRole, errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", s))
}
