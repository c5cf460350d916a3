package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	httpin "pizzeria/internal/adapters/in/http"
	"pizzeria/internal/adapters/out/notify"
	"pizzeria/internal/core/application/ledger"
	"pizzeria/internal/core/application/usecases/commands"
	"pizzeria/internal/core/application/usecases/queries"
	"pizzeria/internal/jobs"
	"pizzeria/internal/pkg/keylock"

	"github.com/labstack/echo/v4"
)

// CompositionRoot owns the long-lived collaborators and builds every handler from them.
type CompositionRoot struct {
	config      Config
	logger      *slog.Logger
	storage     *Storage
	locks       *keylock.Locker
	ledger      *ledger.Ledger
	hub         *notify.Hub
	broadcaster *notify.Broadcaster
	closers     []func() error
	now         func() time.Time
}

// NewCompositionRoot connects the optional RabbitMQ and SQS channels next to the
// in-process hub. A channel that cannot be set up fails startup.
func NewCompositionRoot(ctx context.Context, config Config, storage *Storage, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		config:  config,
		logger:  logger,
		storage: storage,
		locks:   keylock.New(),
		hub:     notify.NewHub(config.SubscriberBuffer, logger),
		now:     time.Now,
	}
	root.ledger = ledger.New(root.locks, logger, ledger.WithRetries(config.TransitionRetries))

	channels := []notify.Channel{{Name: "hub", Publisher: root.hub}}

	if config.AMQPURL != "" {
		publisher, closeAMQP, err := notify.DialAMQP(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			return nil, err
		}
		root.closers = append(root.closers, closeAMQP)
		channels = append(channels, notify.Channel{Name: "amqp", Publisher: publisher})
	}

	if config.SQSQueueURL != "" {
		publisher, err := notify.NewSQSPublisherFromEnv(ctx, config.AWSRegion, config.SQSQueueURL)
		if err != nil {
			return nil, errors.Join(err, root.Close())
		}
		channels = append(channels, notify.Channel{Name: "sqs", Publisher: publisher})
	}

	root.broadcaster = notify.NewBroadcaster(config.PublishTimeout, logger, channels...)
	return root, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() *commands.CreateOrderCommandHandler {
	var f commands.IntakeUoWFactory = FuncIntakeUoWFactory(func() commands.IntakeUoW {
		return c.storage.UnitOfWork.Create()
	})
	h := commands.NewCreateOrderCommandHandler(f, c.ledger, c.locks, c.broadcaster, c.config.OperationTimeout, c.now, c.logger)
	return &h
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() *commands.ChangeOrderStatusCommandHandler {
	var f commands.LifecycleUoWFactory = FuncLifecycleUoWFactory(func() commands.LifecycleUoW {
		return c.storage.UnitOfWork.Create()
	})
	h := commands.NewChangeOrderStatusCommandHandler(
		f, c.locks, c.broadcaster, c.config.OperationTimeout, c.config.TransitionRetries, c.now, c.logger,
	)
	return &h
}

func (c *CompositionRoot) CreateNotifyDueScheduledOrdersCommandHandler() *commands.NotifyDueScheduledOrdersCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.storage.UnitOfWork.Create()
	})
	h := commands.NewNotifyDueScheduledOrdersCommandHandler(f, c.broadcaster, c.logger)
	return &h
}

func (c *CompositionRoot) CreateListOrdersForActorQueryHandler() queries.ListOrdersForActorQueryHandler {
	return queries.NewListOrdersForActorQueryHandler(c.storage.UnitOfWork)
}

func (c *CompositionRoot) CreateGetOrderDetailsQueryHandler() queries.GetOrderDetailsQueryHandler {
	return queries.NewGetOrderDetailsQueryHandler(c.storage.UnitOfWork)
}

func (c *CompositionRoot) CreateGetOrderAnalyticsQueryHandler() queries.GetOrderAnalyticsQueryHandler {
	return queries.NewGetOrderAnalyticsQueryHandler(c.storage.UnitOfWork, c.now)
}

func (c *CompositionRoot) CreateGetLoyaltyBalanceQueryHandler() queries.GetLoyaltyBalanceQueryHandler {
	return queries.NewGetLoyaltyBalanceQueryHandler(c.storage.UnitOfWork, c.ledger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateNotifyDueScheduledOrdersCommandHandler(), c.locks, c.now, c.logger)
}

func (c *CompositionRoot) CreateHTTPServer() (*echo.Echo, error) {
	server := httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateChangeOrderStatusCommandHandler(),
		c.CreateListOrdersForActorQueryHandler(),
		c.CreateGetOrderDetailsQueryHandler(),
		c.CreateGetOrderAnalyticsQueryHandler(),
		c.CreateGetLoyaltyBalanceQueryHandler(),
		c.hub,
	)
	return httpin.NewRouter(server, httpin.Options{
		JWTSecret:        []byte(c.config.JWTSecret),
		Directory:        c.storage.Directory,
		ValidateRequests: c.config.OpenAPIValidation,
		Logger:           c.logger,
	})
}

// Close drains queued notifications, then releases the external channels.
func (c *CompositionRoot) Close() error {
	if c.broadcaster != nil {
		c.broadcaster.Close()
	}
	var err error
	for _, closeFn := range c.closers {
		err = errors.Join(err, closeFn())
	}
	return err
}

type FuncIntakeUoWFactory func() commands.IntakeUoW

func (f FuncIntakeUoWFactory) Create() commands.IntakeUoW {
	return f()
}

type FuncLifecycleUoWFactory func() commands.LifecycleUoW

func (f FuncLifecycleUoWFactory) Create() commands.LifecycleUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
