package memory

import (
	"context"
	"strings"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
	"pizzeria/internal/pkg/errs"
)

// UserRepository serves both the user directory and the loyalty accounts.
type UserRepository struct {
	uow *UnitOfWork
}

// NewUserDirectory returns a directory reading committed state.
func NewUserDirectory(store *Store) *UserRepository {
	return &UserRepository{uow: &UnitOfWork{store: store}}
}

func (r *UserRepository) FindByID(ctx context.Context, id kernel.UUID) (identity.Actor, error) {
	var actor identity.Actor
	err := r.uow.run(ctx, func(d *data) error {
		rec, ok := d.users[id.String()]
		if !ok {
			return errs.NewObjectNotFoundError("user", id.String())
		}
		actor = rec.actor
		return nil
	})
	return actor, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (identity.Actor, error) {
	var actor identity.Actor
	err := r.uow.run(ctx, func(d *data) error {
		id, ok := d.emails[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			return errs.NewObjectNotFoundError("user", email)
		}
		actor = d.users[id].actor
		return nil
	})
	return actor, err
}

func (r *UserRepository) Get(ctx context.Context, userID kernel.UUID) (*loyalty.Account, error) {
	var account *loyalty.Account
	err := r.uow.run(ctx, func(d *data) error {
		rec, ok := d.users[userID.String()]
		if !ok {
			return errs.NewObjectNotFoundError("user", userID.String())
		}
		var err error
		account, err = loyalty.RestoreAccount(userID, rec.points, rec.modifiedBy, rec.modifiedAt, rec.version)
		return err
	})
	return account, err
}

func (r *UserRepository) Update(ctx context.Context, account *loyalty.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return r.uow.run(ctx, func(d *data) error {
		key := account.UserID().String()
		rec, ok := d.users[key]
		if !ok {
			return errs.NewObjectNotFoundError("user", key)
		}
		if rec.version != account.Version()-1 {
			return errs.NewConflictError("loyalty account", key)
		}
		rec.points = account.Points()
		rec.modifiedBy = account.ModifiedBy()
		rec.modifiedAt = account.ModifiedAt()
		rec.version = account.Version()
		d.users[key] = rec
		return nil
	})
}
