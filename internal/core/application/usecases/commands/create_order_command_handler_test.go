package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pizzeria/internal/core/application/ledger"
	"pizzeria/internal/core/application/usecases/commands"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
	"pizzeria/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_EndToEnd(t *testing.T) {
	t.Run("should persist a pending order, award points and notify", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 0)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 3, "12.50")}, 0, nil)
		require.NoError(t, err)

		created, err := e.intake.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Pending, created.Status())
		assert.Equal(t, "37.50", created.Total().String())
		assert.Equal(t, 3, e.balance(t, client.ID()))

		history, err := e.factory.Create().HistoryRepository().ListByOrder(t.Context(), created.ID())
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, order.Pending, history[0].Status())

		msgs := e.publisher.Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, order.TopicFor(created.ID()), msgs[0].Topic)
		assert.Equal(t, order.GlobalTopic, msgs[1].Topic)
		assert.Equal(t, "PENDING", msgs[0].Payload["status"])
		assert.Equal(t, created.ID().String(), msgs[0].Payload["orderId"])
	})

	t.Run("should redeem before pricing and award on the discounted total", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 40)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "30.00")}, 25, nil)
		require.NoError(t, err)

		created, err := e.intake.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, "20.00", created.Total().String())
		assert.Equal(t, 25, created.Redemption().Points)
		assert.Equal(t, 40-25+2, e.balance(t, client.ID()))
	})

	t.Run("should reject insufficient balance without side effects", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 12)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "30.00")}, 20, nil)
		require.NoError(t, err)

		_, err = e.intake.Handle(t.Context(), cmd)

		require.Error(t, err)
		assert.Equal(t, errs.KindInsufficientBalance, errs.KindOf(err))
		assert.Equal(t, 12, e.balance(t, client.ID()))
		all, _ := e.factory.Create().OrderRepository().ListAll(t.Context())
		assert.Empty(t, all)
		assert.Empty(t, e.publisher.Messages())
	})

	t.Run("should reject redeeming below the minimum", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 50)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "30.00")}, 5, nil)
		require.NoError(t, err)

		_, err = e.intake.Handle(t.Context(), cmd)

		assert.Equal(t, errs.KindInvalidArgument, errs.KindOf(err))
		assert.Equal(t, 50, e.balance(t, client.ID()))
	})

	t.Run("should reject a schedule too soon before touching the store", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 50)
		soon := now.Add(30 * time.Minute)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "30.00")}, 10, &soon)
		require.NoError(t, err)

		_, err = e.intake.Handle(t.Context(), cmd)

		assert.Equal(t, errs.KindInvalidArgument, errs.KindOf(err))
		assert.Equal(t, 50, e.balance(t, client.ID()))
	})

	t.Run("should keep the order when awarding fails", func(t *testing.T) {
		e := newEnv(t)
		// The actor is unknown to the directory: the order is stored, the award cannot be.
		ghost, err := identity.NewActor(kernel.NewUUID(), "ghost@pizzeria.test", identity.Client)
		require.NoError(t, err)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), ghost,
			[]commands.ItemLine{productLine(t, 1, 1, "30.00")}, 0, nil)
		require.NoError(t, err)

		created, err := e.intake.Handle(t.Context(), cmd)

		require.NoError(t, err)
		stored, err := e.factory.Create().OrderRepository().Get(t.Context(), created.ID())
		require.NoError(t, err)
		assert.True(t, stored.IsEqual(created))
	})
}

type MockOrderRepository struct {
	mock.Mock
	ports.OrderRepository
}

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

type MockHistoryRepository struct{ mock.Mock }

func (m *MockHistoryRepository) Append(ctx context.Context, entry order.HistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockHistoryRepository) ListByOrder(_ context.Context, _ kernel.UUID) ([]order.HistoryEntry, error) {
	return nil, errors.New("not implemented in mock")
}

type MockIntakeUoW struct{ mock.Mock }

func (m *MockIntakeUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockIntakeUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockIntakeUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockIntakeUoW) OrderRepository() ports.OrderRepository {
	return m.Called().Get(0).(ports.OrderRepository)
}

func (m *MockIntakeUoW) HistoryRepository() ports.HistoryRepository {
	return m.Called().Get(0).(ports.HistoryRepository)
}

func (m *MockIntakeUoW) AccountRepository() ports.AccountRepository {
	return m.Called().Get(0).(ports.AccountRepository)
}

func (m *MockIntakeUoW) TrackedEntries() []order.HistoryEntry {
	return m.Called().Get(0).([]order.HistoryEntry)
}

type MockIntakeUoWFactory struct{ mock.Mock }

func (m *MockIntakeUoWFactory) Create() commands.IntakeUoW {
	return m.Called().Get(0).(commands.IntakeUoW)
}

func TestCreateOrderCommandHandler_HistoryFailureRollsBack(t *testing.T) {
	client, err := identity.NewActor(kernel.NewUUID(), "c@pizzeria.test", identity.Client)
	require.NoError(t, err)
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
		[]commands.ItemLine{productLine(t, 1, 1, "8.00")}, 0, nil)
	require.NoError(t, err)

	orders := new(MockOrderRepository)
	history := new(MockHistoryRepository)
	uow := new(MockIntakeUoW)
	mock.InOrder(
		uow.On("Begin", mock.Anything).Return(nil).Once(),
		uow.On("OrderRepository").Return(orders).Once(),
		orders.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("HistoryRepository").Return(history).Once(),
		history.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once(),
		uow.On("Rollback", mock.Anything).Return(nil).Once(),
	)
	factory := new(MockIntakeUoWFactory)
	factory.On("Create").Return(uow).Once()

	pub := &recordingPublisher{}
	h := commands.NewCreateOrderCommandHandler(factory, ledger.New(keylock.New(), discardLogger()), keylock.New(), pub, time.Second, clock, discardLogger())

	_, err = h.Handle(t.Context(), cmd)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, pub.Messages())
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertExpectations(t)
	orders.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestCreateOrderCommandHandler_ValidationError(t *testing.T) {
	h := commands.NewCreateOrderCommandHandler(new(MockIntakeUoWFactory), nil, keylock.New(), &recordingPublisher{}, time.Second, clock, discardLogger())

	_, err := h.Handle(t.Context(), commands.CreateOrderCommand{})

	assert.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
}

func TestCreateOrderCommandHandler_OrderLock(t *testing.T) {
	t.Run("should wait for the order lock before persisting", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 0)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "10.00")}, 0, nil)
		require.NoError(t, err)

		unlock, err := e.locks.Lock(t.Context(), commands.OrderLockKey(cmd.OrderID()))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := e.intake.Handle(context.Background(), cmd)
			done <- err
		}()

		assert.Never(t, func() bool { return len(e.publisher.Messages()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
		unlock()

		require.NoError(t, <-done)
		assert.Len(t, e.publisher.Messages(), 2)
	})

	t.Run("should report Unavailable when the order lock is not released in time", func(t *testing.T) {
		e := newEnv(t)
		client := e.user(t, identity.Client, 0)
		cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), client,
			[]commands.ItemLine{productLine(t, 1, 1, "10.00")}, 0, nil)
		require.NoError(t, err)

		unlock, err := e.locks.Lock(t.Context(), commands.OrderLockKey(cmd.OrderID()))
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		_, err = e.intake.Handle(ctx, cmd)

		require.Error(t, err)
		assert.Equal(t, errs.KindUnavailable, errs.KindOf(err))
		all, _ := e.factory.Create().OrderRepository().ListAll(t.Context())
		assert.Empty(t, all)
		assert.Empty(t, e.publisher.Messages())
	})
}
