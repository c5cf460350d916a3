// Package memory implements the persistence ports in process memory. Transactions
// are serialized: Begin takes the store exclusively and works on a copy that Commit
// publishes and Rollback drops.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"
)

type orderRecord struct {
	id          kernel.UUID
	userID      kernel.UUID
	items       []order.Item
	redemption  order.Redemption
	status      order.Status
	scheduledAt *time.Time
	audit       order.Audit
	version     int
}

func recordOf(o *order.Order) orderRecord {
	return orderRecord{
		id:          o.ID(),
		userID:      o.UserID(),
		items:       o.Items(),
		redemption:  o.Redemption(),
		status:      o.Status(),
		scheduledAt: o.ScheduledAt(),
		audit:       o.Audit(),
		version:     o.Version(),
	}
}

func (r orderRecord) restore() (*order.Order, error) {
	return order.RestoreOrder(r.id, r.userID, r.items, r.redemption, r.status, r.scheduledAt, r.audit, r.version)
}

type userRecord struct {
	actor      identity.Actor
	points     int
	modifiedBy string
	modifiedAt time.Time
	version    int
}

type data struct {
	orders  map[string]orderRecord
	history map[string][]order.HistoryEntry
	users   map[string]userRecord
	emails  map[string]string
}

func newData() *data {
	return &data{
		orders:  make(map[string]orderRecord),
		history: make(map[string][]order.HistoryEntry),
		users:   make(map[string]userRecord),
		emails:  make(map[string]string),
	}
}

func (d *data) clone() *data {
	c := &data{
		orders:  maps.Clone(d.orders),
		history: make(map[string][]order.HistoryEntry, len(d.history)),
		users:   maps.Clone(d.users),
		emails:  maps.Clone(d.emails),
	}
	for k, v := range d.history {
		c.history[k] = slices.Clip(v)
	}
	return c
}

// Store holds committed state.
type Store struct {
	sem  chan struct{}
	data *data
}

func NewStore() *Store {
	return &Store{sem: make(chan struct{}, 1), data: newData()}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errs.NewUnavailableErrorWithCause("memory store", ctx.Err())
	}
}

func (s *Store) release() {
	<-s.sem
}

// AddUser registers a principal with an opening loyalty balance.
func (s *Store) AddUser(ctx context.Context, actor identity.Actor, points int) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	account, err := loyalty.RestoreAccount(actor.ID(), points, "", time.Time{}, 1)
	if err != nil {
		return err
	}
	if err = s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.data.users[actor.ID().String()] = userRecord{actor: actor, points: account.Points(), version: 1}
	s.data.emails[strings.ToLower(actor.Email())] = actor.ID().String()
	return nil
}
