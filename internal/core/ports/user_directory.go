package ports

import (
	"context"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
)

// UserDirectory resolves authenticated principals. User management itself lives elsewhere.
type UserDirectory interface {
	FindByID(ctx context.Context, id kernel.UUID) (identity.Actor, error)
	FindByEmail(ctx context.Context, email string) (identity.Actor, error)
}

// AccountRepository stores the loyalty balance embedded in a user.
type AccountRepository interface {
	// Get returns errs.ObjectNotFoundError when the user does not exist.
	Get(ctx context.Context, userID kernel.UUID) (*loyalty.Account, error)

	// Update writes the balance only when the stored version is account.Version()-1
	// and returns errs.ConflictError otherwise.
	Update(ctx context.Context, account *loyalty.Account) error
}
