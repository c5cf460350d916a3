package loyalty

import (
	"errors"
	"fmt"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
)

const (
	// MinRedemption is the smallest number of points that may be redeemed at once.
	MinRedemption = 10

	// PointsPerBlock is the redemption block size.
	PointsPerBlock = 10
)

var (
	// SpendPerPoint is the spend that earns one point.
	SpendPerPoint = mustMoney(1000)

	// DiscountPerBlock is the discount granted per redeemed block.
	DiscountPerBlock = mustMoney(500)

	ErrAccountIsNotConstructed = errors.New("Account must be created via NewAccount or RestoreAccount")
)

func mustMoney(cents int64) kernel.Money {
	m, err := kernel.MoneyFromCents(cents)
	if err != nil {
		panic(err)
	}
	return m
}

// EarnedPoints returns floor(total / 10.00).
func EarnedPoints(total kernel.Money) int {
	return total.WholeMultiplesOf(SpendPerPoint)
}

// DiscountFor returns floor(points / 10) × 5.00 or InvalidArgument below MinRedemption.
func DiscountFor(points int) (kernel.Money, error) {
	if points < MinRedemption {
		return kernel.Money{}, errs.NewValueIsOutOfRangeErrorWithCause(
			"points", points, MinRedemption, "balance",
			fmt.Errorf("at least %d points must be redeemed", MinRedemption),
		)
	}
	blocks := points / PointsPerBlock
	return DiscountPerBlock.Times(blocks), nil
}

// Account is the loyalty balance embedded in a user. The balance is never negative.
// version is the optimistic-concurrency token for the compare-and-swap update.
type Account struct {
	userID     kernel.UUID
	points     int
	modifiedBy string
	modifiedAt time.Time
	version    int

	isConstructed bool
}

// NewAccount opens an empty balance for a user.
func NewAccount(userID kernel.UUID) (*Account, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}
	return &Account{userID: userID, version: 1, isConstructed: true}, nil
}

// RestoreAccount rebuilds an account from persistence.
func RestoreAccount(userID kernel.UUID, points int, modifiedBy string, modifiedAt time.Time, version int) (*Account, error) {
	var pointsErr, versionErr error
	if points < 0 {
		pointsErr = errs.NewValueIsOutOfRangeError("points", points, 0, "unbounded")
	}
	if version < 1 {
		versionErr = errs.NewValueIsOutOfRangeError("version", version, 1, "unbounded")
	}
	if err := errors.Join(userID.Validate(), pointsErr, versionErr); err != nil {
		return nil, err
	}
	return &Account{
		userID:        userID,
		points:        points,
		modifiedBy:    modifiedBy,
		modifiedAt:    modifiedAt,
		version:       version,
		isConstructed: true,
	}, nil
}

func (a *Account) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAccountIsNotConstructed
	}
	return nil
}

func (a *Account) UserID() kernel.UUID {
	return a.userID
}

func (a *Account) Points() int {
	return a.points
}

func (a *Account) ModifiedBy() string {
	return a.modifiedBy
}

func (a *Account) ModifiedAt() time.Time {
	return a.modifiedAt
}

func (a *Account) Version() int {
	return a.version
}

// Award credits the points earned on total and returns them. Zero earned points
// leave the account unchanged.
func (a *Account) Award(total kernel.Money, by string, now time.Time) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	earned := EarnedPoints(total)
	if earned == 0 {
		return 0, nil
	}
	a.points += earned
	a.touch(by, now)
	return earned, nil
}

// Redeem debits points and returns the discount they buy. All requested points are
// debited, including a remainder that does not fill a whole block.
func (a *Account) Redeem(points int, by string, now time.Time) (kernel.Money, error) {
	if err := a.Validate(); err != nil {
		return kernel.Money{}, err
	}
	discount, err := DiscountFor(points)
	if err != nil {
		return kernel.Money{}, err
	}
	if points > a.points {
		return kernel.Money{}, errs.NewInsufficientBalanceError(points, a.points)
	}
	a.points -= points
	a.touch(by, now)
	return discount, nil
}

func (a *Account) touch(by string, now time.Time) {
	a.modifiedBy = by
	a.modifiedAt = now.UTC()
	a.version++
}
