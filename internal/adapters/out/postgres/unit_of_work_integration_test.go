package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "pizzeria/internal/adapters/out/postgres"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite exercises transactions spanning orders, history
// and loyalty accounts against a real PostgreSQL.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
	client    identity.Actor
	now       time.Time
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
	suite.now = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	for _, table := range postgres_adapter.Tables() {
		suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE " + table + " CASCADE").Error)
	}

	client, err := identity.NewActor(kernel.NewUUID(), "Ann@Pizzeria.test", identity.Client)
	suite.Require().NoError(err)
	suite.client = client
	suite.Require().NoError(postgres_adapter.NewUserDirectory(suite.db).Add(context.Background(), client, 30))
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) newOrder() *order.Order {
	price, err := kernel.MoneyFromString("11.00")
	suite.Require().NoError(err)
	item, err := order.NewProductItem(1, 1, price)
	suite.Require().NoError(err)
	o, err := order.NewOrder(kernel.NewUUID(), suite.client.ID(), []order.Item{item}, order.NoRedemption(), nil, suite.client, suite.now)
	suite.Require().NoError(err)
	return o
}

func (suite *UnitOfWorkIntegrationTestSuite) TestFactory_CreatesSeparateInstances() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2)
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow1.HistoryRepository())
	suite.NotNil(uow1.AccountRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "nested begin is a no-op")
	suite.Require().NoError(uow.Commit(ctx))
	suite.Require().NoError(uow.Rollback(ctx), "rollback after commit is a no-op")
	suite.Require().Error(uow.Commit(ctx), "commit needs an active transaction")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommit_PersistsOrderHistoryAndBalance() {
	ctx := context.Background()
	o := suite.newOrder()
	entry, err := o.CreationEntry(kernel.NewUUID())
	suite.Require().NoError(err)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))

	account, err := uow.AccountRepository().Get(ctx, suite.client.ID())
	suite.Require().NoError(err)
	_, err = account.Redeem(10, suite.client.Identity(), suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(uow.AccountRepository().Update(ctx, account))

	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.HistoryRepository().Append(ctx, entry))
	suite.Require().NoError(uow.Commit(ctx))

	tracked := uow.TrackedEntries()
	suite.Require().Len(tracked, 1)
	suite.Equal(entry.ID(), tracked[0].ID())

	reader := suite.factory.Create()
	history, err := reader.HistoryRepository().ListByOrder(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(order.Pending, history[0].Status())
	suite.Equal(suite.client.Identity(), history[0].ChangedBy())

	stored, err := reader.AccountRepository().Get(ctx, suite.client.ID())
	suite.Require().NoError(err)
	suite.Equal(20, stored.Points())
	suite.Equal(2, stored.Version())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollback_DiscardsEverything() {
	ctx := context.Background()
	o := suite.newOrder()
	entry, err := o.CreationEntry(kernel.NewUUID())
	suite.Require().NoError(err)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.HistoryRepository().Append(ctx, entry))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Empty(uow.TrackedEntries())

	reader := suite.factory.Create()
	_, err = reader.OrderRepository().Get(ctx, o.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	history, err := reader.HistoryRepository().ListByOrder(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Empty(history)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestAppend_RequiresOrder() {
	o := suite.newOrder()
	entry, err := o.CreationEntry(kernel.NewUUID())
	suite.Require().NoError(err)

	uow := suite.factory.Create()
	err = uow.HistoryRepository().Append(context.Background(), entry)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
	suite.Empty(uow.TrackedEntries())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestAccountUpdate_StaleVersionConflicts() {
	ctx := context.Background()
	repo := suite.factory.Create().AccountRepository()

	first, err := repo.Get(ctx, suite.client.ID())
	suite.Require().NoError(err)
	second, err := repo.Get(ctx, suite.client.ID())
	suite.Require().NoError(err)

	_, err = first.Redeem(20, suite.client.Identity(), suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(repo.Update(ctx, first))

	_, err = second.Redeem(20, suite.client.Identity(), suite.now)
	suite.Require().NoError(err)
	suite.Require().ErrorIs(repo.Update(ctx, second), errs.ErrConflict)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUserDirectory_Lookups() {
	ctx := context.Background()
	directory := postgres_adapter.NewUserDirectory(suite.db)

	byEmail, err := directory.FindByEmail(ctx, "  ANN@pizzeria.TEST ")
	suite.Require().NoError(err)
	suite.Equal(suite.client.ID(), byEmail.ID())
	suite.Equal(identity.Client, byEmail.Role())

	byID, err := directory.FindByID(ctx, suite.client.ID())
	suite.Require().NoError(err)
	suite.Equal("ann@pizzeria.test", byID.Email())

	_, err = directory.FindByID(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestIsolationBetweenUnits() {
	ctx := context.Background()
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	order1 := suite.newOrder()
	order2 := suite.newOrder()

	suite.Require().NoError(uow1.Begin(ctx))
	suite.Require().NoError(uow2.Begin(ctx))
	suite.Require().NoError(uow1.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(ctx, order2))

	_, err := uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "uncommitted rows are invisible to other units")

	suite.Require().NoError(uow1.Commit(ctx))
	suite.Require().NoError(uow2.Rollback(ctx))

	reader := suite.factory.Create()
	_, err = reader.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err)
	_, err = reader.OrderRepository().Get(ctx, order2.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}
