package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
)

// MinScheduleLead is how far ahead a scheduled fulfillment time must be.
const MinScheduleLead = time.Hour

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Redemption is the loyalty discount applied to an order at intake.
type Redemption struct {
	Points   int
	Discount kernel.Money
}

// NoRedemption is an order without loyalty discount.
func NoRedemption() Redemption {
	return Redemption{Discount: kernel.ZeroMoney()}
}

// Audit carries the created/modified by/at fields.
type Audit struct {
	CreatedBy  string
	CreatedAt  time.Time
	ModifiedBy string
	ModifiedAt time.Time
}

// Order is the aggregate root of the order lifecycle.
//
// Order follows these invariants:
//   - total = Σ(unit price × quantity) - loyalty discount, floored at zero
//   - the order is custom iff at least one item is built from ingredients
//   - a scheduled time, when present, was at least MinScheduleLead ahead at creation
//   - status only changes through ChangeStatus, which enforces the transition and role tables
//
// version is the optimistic-concurrency token; ChangeStatus increments it and the
// repository only writes when the stored version is the previous one.
type Order struct {
	id          kernel.UUID
	userID      kernel.UUID
	items       []Item
	redemption  Redemption
	total       kernel.Money
	status      Status
	scheduledAt *time.Time
	audit       Audit
	version     int

	isConstructed bool
}

// ValidateSchedule rejects a scheduled time earlier than now + MinScheduleLead.
// A nil schedule means "as soon as possible" and is always valid.
func ValidateSchedule(scheduledAt *time.Time, now time.Time) error {
	if scheduledAt == nil {
		return nil
	}
	earliest := now.Add(MinScheduleLead)
	if scheduledAt.Before(earliest) {
		return errs.NewValueIsInvalidErrorWithCause(
			"scheduledAt",
			fmt.Errorf("scheduled time must be at least 1 hour in the future (earliest %s)", earliest.UTC().Format(time.RFC3339)),
		)
	}
	return nil
}

// NewOrder prices and creates an order in PENDING.
//
//	item, _ := order.NewProductItem(7, 2, price)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, []order.Item{item},
//	    order.NoRedemption(), nil, actor, time.Now())
func NewOrder(
	id, userID kernel.UUID,
	items []Item,
	redemption Redemption,
	scheduledAt *time.Time,
	createdBy identity.Actor,
	now time.Time,
) (*Order, error) {
	if err := errors.Join(
		id.Validate(),
		userID.Validate(),
		createdBy.Validate(),
		validateItems(items),
		validateRedemption(redemption),
		ValidateSchedule(scheduledAt, now),
	); err != nil {
		return nil, err
	}

	now = now.UTC()
	o := &Order{
		id:          id,
		userID:      userID,
		items:       slices.Clone(items),
		redemption:  redemption,
		status:      Pending,
		scheduledAt: utcPtr(scheduledAt),
		audit: Audit{
			CreatedBy:  createdBy.Identity(),
			CreatedAt:  now,
			ModifiedBy: createdBy.Identity(),
			ModifiedAt: now,
		},
		version:       1,
		isConstructed: true,
	}
	o.total = o.computeTotal()
	return o, nil
}

// RestoreOrder rebuilds an order from persistence. The total is recomputed from
// items and redemption rather than trusted.
func RestoreOrder(
	id, userID kernel.UUID,
	items []Item,
	redemption Redemption,
	status Status,
	scheduledAt *time.Time,
	audit Audit,
	version int,
) (*Order, error) {
	var versionErr error
	if version < 1 {
		versionErr = errs.NewValueIsOutOfRangeError("version", version, 1, "unbounded")
	}
	if err := errors.Join(
		id.Validate(),
		userID.Validate(),
		validateItems(items),
		validateRedemption(redemption),
		status.Validate(),
		versionErr,
	); err != nil {
		return nil, err
	}

	o := &Order{
		id:            id,
		userID:        userID,
		items:         slices.Clone(items),
		redemption:    redemption,
		status:        status,
		scheduledAt:   utcPtr(scheduledAt),
		audit:         audit,
		version:       version,
		isConstructed: true,
	}
	o.total = o.computeTotal()
	return o, nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	return nil
}

func validateRedemption(r Redemption) error {
	if r.Points < 0 {
		return errs.NewValueIsInvalidErrorWithCause("redeemedPoints", fmt.Errorf("%d is negative", r.Points))
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (o *Order) computeTotal() kernel.Money {
	raw := kernel.ZeroMoney()
	for _, item := range o.items {
		raw = raw.Add(item.Subtotal())
	}
	return raw.SubFloor(o.redemption.Discount)
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

// UserID returns the customer who owns the order.
func (o *Order) UserID() kernel.UUID {
	return o.userID
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	return slices.Clone(o.items)
}

// RawTotal is the sum of line subtotals before discount.
func (o *Order) RawTotal() kernel.Money {
	raw := kernel.ZeroMoney()
	for _, item := range o.items {
		raw = raw.Add(item.Subtotal())
	}
	return raw
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) Redemption() Redemption {
	return o.redemption
}

func (o *Order) Status() Status {
	return o.status
}

// ScheduledAt returns the requested fulfillment time, nil for "as soon as possible".
func (o *Order) ScheduledAt() *time.Time {
	return utcPtr(o.scheduledAt)
}

// IsCustom reports whether any line is a build-your-own item.
func (o *Order) IsCustom() bool {
	for _, item := range o.items {
		if item.IsCustom() {
			return true
		}
	}
	return false
}

func (o *Order) Audit() Audit {
	return o.audit
}

func (o *Order) Version() int {
	return o.version
}

// CreationEntry returns the initial PENDING history record of a new order.
func (o *Order) CreationEntry(id kernel.UUID) (HistoryEntry, error) {
	return NewHistoryEntry(id, o.id, Pending, o.audit.CreatedBy, o.audit.CreatedAt)
}

// ChangeStatus applies a transition requested by actor and returns the history record
// to append. On error the order is left untouched.
//
// Checks, in order:
//  1. the order is not terminal (InvalidState, Admin included)
//  2. non-admin roles may act on the current status (Forbidden); clients only on their
//     own orders and only to cancel
//  3. the target differs from the current status and, for non-admins, is a legal next
//     status (IllegalTransition)
func (o *Order) ChangeStatus(
	target Status, actor identity.Actor, historyID kernel.UUID, now time.Time,
) (HistoryEntry, error) {
	if err := errors.Join(o.Validate(), actor.Validate(), target.Validate(), historyID.Validate()); err != nil {
		return HistoryEntry{}, err
	}

	if err := o.Authorize(target, actor); err != nil {
		return HistoryEntry{}, err
	}

	entry, err := NewHistoryEntry(historyID, o.id, target, actor.Identity(), now)
	if err != nil {
		return HistoryEntry{}, err
	}

	o.status = target
	o.audit.ModifiedBy = actor.Identity()
	o.audit.ModifiedAt = entry.ChangedAt()
	o.version++
	return entry, nil
}

// Authorize runs the ChangeStatus checks without mutating the order.
//
// Admin skips the role and transition tables but not the same-status check: a
// no-op request would otherwise add a history entry and bump the version.
func (o *Order) Authorize(target Status, actor identity.Actor) error {
	current := o.status
	if current.IsTerminal() {
		return errs.NewInvalidStateError("order already finalized as " + current.String())
	}

	if !actor.IsAdmin() {
		if !RoleMayActOn(actor.Role(), current) {
			return errs.NewForbiddenError(actor.Role().String(), current.String(), "")
		}
		if actor.Role() == identity.Client {
			if !actor.ID().IsEqual(o.userID) {
				return errs.NewForbiddenError(actor.Role().String(), current.String(), "clients may only act on their own orders")
			}
			if !clientMayRequest(target) {
				return errs.NewForbiddenError(actor.Role().String(), current.String(), "clients may only cancel")
			}
		}
	}

	if target == current {
		return errs.NewIllegalTransitionError(current.String(), target.String())
	}
	if !actor.IsAdmin() && !current.CanTransitionTo(target) {
		return errs.NewIllegalTransitionError(current.String(), target.String())
	}
	return nil
}
