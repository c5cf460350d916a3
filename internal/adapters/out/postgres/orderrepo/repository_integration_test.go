package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"pizzeria/internal/adapters/out/postgres/orderrepo"
	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OrderRepositoryIntegrationTestSuite runs the order repository against a real PostgreSQL.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	client     identity.Actor
	kitchen    identity.Actor
	now        time.Time
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.OrderItemDTO{}))

	suite.client, err = identity.NewActor(kernel.NewUUID(), "ann@pizzeria.test", identity.Client)
	suite.Require().NoError(err)
	suite.kitchen, err = identity.NewActor(kernel.NewUUID(), "chef@pizzeria.test", identity.Kitchen)
	suite.Require().NoError(err)
	suite.now = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE order_items, orders").Error)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(createdAt time.Time, scheduledAt *time.Time) *order.Order {
	margherita, err := kernel.MoneyFromString("12.50")
	suite.Require().NoError(err)
	custom, err := kernel.MoneyFromString("9.00")
	suite.Require().NoError(err)

	product, err := order.NewProductItem(7, 2, margherita)
	suite.Require().NoError(err)
	built, err := order.NewCustomItem([]int64{3, 1, 4}, 1, custom)
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), suite.client.ID(), []order.Item{product, built},
		order.NoRedemption(), scheduledAt, suite.client, createdAt)
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_RoundTripsItemsAndTotals() {
	ctx := context.Background()
	o := suite.newOrder(suite.now, nil)

	suite.Require().NoError(suite.repository.Add(ctx, o))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.True(stored.IsEqual(o))
	suite.Equal(order.Pending, stored.Status())
	suite.True(stored.IsCustom())
	suite.True(stored.Total().Equal(o.Total()))
	suite.Equal(1, stored.Version())

	items := stored.Items()
	suite.Require().Len(items, 2)
	productID, ok := items[0].ProductID()
	suite.True(ok)
	suite.Equal(int64(7), productID)
	suite.Equal([]int64{3, 1, 4}, items[1].Ingredients())

	var code string
	suite.Require().NoError(suite.db.Raw("SELECT status FROM orders WHERE id = ?", o.ID().Bytes()).Scan(&code).Error)
	suite.Equal("PE", code)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicateIsConflict() {
	ctx := context.Background()
	o := suite.newOrder(suite.now, nil)

	suite.Require().NoError(suite.repository.Add(ctx, o))
	err := suite.repository.Add(ctx, o)
	suite.Require().ErrorIs(err, errs.ErrConflict)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_Missing() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_ChecksVersion() {
	ctx := context.Background()
	o := suite.newOrder(suite.now, nil)
	suite.Require().NoError(suite.repository.Add(ctx, o))

	first, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	_, err = first.ChangeStatus(order.Accepted, suite.kitchen, kernel.NewUUID(), suite.now.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, first))

	_, err = second.ChangeStatus(order.Cancelled, suite.client, kernel.NewUUID(), suite.now.Add(time.Minute))
	suite.Require().NoError(err)
	err = suite.repository.Update(ctx, second)
	suite.Require().ErrorIs(err, errs.ErrConflict)

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Accepted, stored.Status())
	suite.Equal(2, stored.Version())
	suite.Equal(suite.kitchen.Identity(), stored.Audit().ModifiedBy)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_Missing() {
	o := suite.newOrder(suite.now, nil)
	_, err := o.ChangeStatus(order.Accepted, suite.kitchen, kernel.NewUUID(), suite.now)
	suite.Require().NoError(err)

	err = suite.repository.Update(context.Background(), o)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListQueries() {
	ctx := context.Background()
	due := suite.now.Add(3 * time.Hour)

	older := suite.newOrder(suite.now.Add(-2*time.Hour), nil)
	newer := suite.newOrder(suite.now.Add(-time.Hour), nil)
	scheduled := suite.newOrder(suite.now, &due)
	for _, o := range []*order.Order{older, newer, scheduled} {
		suite.Require().NoError(suite.repository.Add(ctx, o))
	}

	_, err := newer.ChangeStatus(order.Accepted, suite.kitchen, kernel.NewUUID(), suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, newer))

	all, err := suite.repository.ListAll(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(all, 3)
	suite.True(all[0].IsEqual(scheduled), "newest first")
	suite.True(all[2].IsEqual(older))

	mine, err := suite.repository.ListByUser(ctx, suite.client.ID())
	suite.Require().NoError(err)
	suite.Len(mine, 3)

	pending, err := suite.repository.ListInStatuses(ctx, []order.Status{order.Pending})
	suite.Require().NoError(err)
	suite.Require().Len(pending, 2)
	suite.True(pending[0].IsEqual(older), "oldest first")

	none, err := suite.repository.ListInStatuses(ctx, nil)
	suite.Require().NoError(err)
	suite.Empty(none)

	window, err := suite.repository.ListCreatedBetween(ctx, suite.now.Add(-90*time.Minute), suite.now)
	suite.Require().NoError(err)
	suite.Require().Len(window, 1)
	suite.True(window[0].IsEqual(newer))

	upcoming, err := suite.repository.ListScheduledBetween(ctx, due, due.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Require().Len(upcoming, 1)
	suite.True(upcoming[0].IsEqual(scheduled))

	_, err = scheduled.ChangeStatus(order.Cancelled, suite.client, kernel.NewUUID(), suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, scheduled))

	upcoming, err = suite.repository.ListScheduledBetween(ctx, due, due.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Empty(upcoming, "finalized orders are never due")
}
