package identity

import (
	"errors"
	"strings"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
)

// ErrActorIsNotConstructed is returned when an Actor was not built through NewActor.
var ErrActorIsNotConstructed = errors.New("Actor must be created via NewActor constructor")

// Actor is the authenticated principal performing an operation. Core operations take
// it as an explicit parameter; nothing reads the current user from ambient state.
type Actor struct {
	id            kernel.UUID
	email         string
	role          Role
	isConstructed bool
}

// NewActor validates and builds an Actor.
func NewActor(id kernel.UUID, email string, role Role) (Actor, error) {
	a := Actor{isConstructed: true}
	email = strings.TrimSpace(email)

	var emailErr error
	if email == "" {
		emailErr = errs.NewValueIsRequiredError("email")
	}
	if err := errors.Join(id.Validate(), emailErr, role.Validate()); err != nil {
		return Actor{}, err
	}

	a.id = id
	a.email = email
	a.role = role
	return a, nil
}

// Validate ensures the Actor was built through NewActor.
func (a Actor) Validate() error {
	if !a.isConstructed {
		return ErrActorIsNotConstructed
	}
	return nil
}

func (a Actor) ID() kernel.UUID {
	return a.id
}

func (a Actor) Email() string {
	return a.email
}

func (a Actor) Role() Role {
	return a.role
}

// Identity is the audit name recorded in modified-by fields and history entries.
func (a Actor) Identity() string {
	return a.email
}

// IsAdmin reports whether the actor bypasses the transition tables.
func (a Actor) IsAdmin() bool {
	return a.role == Admin
}
