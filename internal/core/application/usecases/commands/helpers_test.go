package commands_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pizzeria/internal/adapters/out/memory"
	"pizzeria/internal/core/application/ledger"
	"pizzeria/internal/core/application/usecases/commands"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/keylock"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type published struct {
	Topic   string
	Payload map[string]any
}

// recordingPublisher captures notifications synchronously.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{Topic: topic, Payload: body})
	return nil
}

func (p *recordingPublisher) Messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.messages...)
}

type intakeFactory struct{ f *memory.UnitOfWorkFactory }

func (i intakeFactory) Create() commands.IntakeUoW { return i.f.Create() }

type lifecycleFactory struct{ f *memory.UnitOfWorkFactory }

func (l lifecycleFactory) Create() commands.LifecycleUoW { return l.f.Create() }

type orderFactory struct{ f *memory.UnitOfWorkFactory }

func (o orderFactory) Create() commands.OrderUoW { return o.f.Create() }

// env wires the handlers on the memory adapters.
type env struct {
	store     *memory.Store
	factory   *memory.UnitOfWorkFactory
	locks     *keylock.Locker
	ledger    *ledger.Ledger
	publisher *recordingPublisher
	intake    commands.CreateOrderCommandHandler
	lifecycle commands.ChangeOrderStatusCommandHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	locks := keylock.New()
	l := ledger.New(locks, discardLogger(), ledger.WithClock(clock))
	pub := &recordingPublisher{}

	return &env{
		store:     store,
		factory:   factory,
		locks:     locks,
		ledger:    l,
		publisher: pub,
		intake:    commands.NewCreateOrderCommandHandler(intakeFactory{factory}, l, locks, pub, time.Second, clock, discardLogger()),
		lifecycle: commands.NewChangeOrderStatusCommandHandler(lifecycleFactory{factory}, locks, pub, time.Second, 3, clock, discardLogger()),
	}
}

func (e *env) user(t *testing.T, role identity.Role, points int) identity.Actor {
	t.Helper()
	id := kernel.NewUUID()
	a, err := identity.NewActor(id, id.String()+"@pizzeria.test", role)
	require.NoError(t, err)
	require.NoError(t, e.store.AddUser(context.Background(), a, points))
	return a
}

func (e *env) balance(t *testing.T, userID kernel.UUID) int {
	t.Helper()
	points, err := e.ledger.Balance(context.Background(), e.factory.Create().AccountRepository(), userID)
	require.NoError(t, err)
	return points
}

func price(t *testing.T, s string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(s)
	require.NoError(t, err)
	return m
}

func productLine(t *testing.T, productID int64, qty int, unit string) commands.ItemLine {
	t.Helper()
	return commands.ItemLine{ProductID: &productID, Quantity: qty, UnitPrice: price(t, unit)}
}
