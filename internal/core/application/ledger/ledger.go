// Package ledger applies loyalty balance changes atomically per user.
//
// Every mutation is a read-modify-write executed under a per-user lock and
// committed with a version compare-and-swap; a lost race is retried a bounded
// number of times before surfacing errs.ConflictError. Operations take the
// AccountRepository to use so a redemption can share the transaction of the
// order it discounts.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/keylock"
)

// DefaultRetries is used when New receives a non-positive retry count.
const DefaultRetries = 3

// Ledger is safe for concurrent use.
type Ledger struct {
	locks   *keylock.Locker
	retries int
	now     func() time.Time
	logger  *slog.Logger
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRetries sets how many times a version conflict is retried.
func WithRetries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.retries = n
		}
	}
}

// New returns a Ledger that serializes users through locks.
func New(locks *keylock.Locker, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		locks:   locks,
		retries: DefaultRetries,
		now:     time.Now,
		logger:  logger.With("component", "LoyaltyLedger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LockKey is the keylock key of a user's balance.
func LockKey(userID kernel.UUID) string {
	return "user:" + userID.String()
}

// Award credits floor(total / 10) points and returns the number awarded.
func (l *Ledger) Award(
	ctx context.Context, repo ports.AccountRepository, userID kernel.UUID, total kernel.Money, by string,
) (int, error) {
	var earned int
	err := l.mutate(ctx, repo, userID, func(a *loyalty.Account) (bool, error) {
		var err error
		earned, err = a.Award(total, by, l.now())
		return earned > 0, err
	})
	if err != nil {
		return 0, err
	}
	if earned > 0 {
		l.logger.InfoContext(ctx, "points awarded", "userId", userID.String(), "points", earned)
	}
	return earned, nil
}

// Redeem debits points and returns the discount they buy.
func (l *Ledger) Redeem(
	ctx context.Context, repo ports.AccountRepository, userID kernel.UUID, points int, by string,
) (kernel.Money, error) {
	// Reject below-minimum requests before touching the store.
	if _, err := loyalty.DiscountFor(points); err != nil {
		return kernel.Money{}, err
	}

	var discount kernel.Money
	err := l.mutate(ctx, repo, userID, func(a *loyalty.Account) (bool, error) {
		var err error
		discount, err = a.Redeem(points, by, l.now())
		return err == nil, err
	})
	if err != nil {
		return kernel.Money{}, err
	}
	l.logger.InfoContext(ctx, "points redeemed",
		"userId", userID.String(), "points", points, "discount", discount.String())
	return discount, nil
}

// Balance is read-only.
func (l *Ledger) Balance(ctx context.Context, repo ports.AccountRepository, userID kernel.UUID) (int, error) {
	account, err := repo.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Points(), nil
}

// mutate runs change against a fresh copy of the account and writes it back when
// change reports a modification. Conflicts are retried with a re-read.
func (l *Ledger) mutate(
	ctx context.Context,
	repo ports.AccountRepository,
	userID kernel.UUID,
	change func(*loyalty.Account) (bool, error),
) error {
	unlock, err := l.locks.Lock(ctx, LockKey(userID))
	if err != nil {
		return errs.NewUnavailableErrorWithCause("loyalty balance lock", err)
	}
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < l.retries; attempt++ {
		account, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}

		changed, err := change(account)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		err = repo.Update(ctx, account)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrConflict) {
			return err
		}
		lastErr = err
		l.logger.DebugContext(ctx, "loyalty balance conflict, retrying",
			"userId", userID.String(), "attempt", attempt+1)
	}
	return lastErr
}
