package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	httpapi "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/kafka"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/auditrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/redislock"
	"fulfillment/internal/adapters/out/simulated"
	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const eventLogLimit = 1000

// CompositionRoot owns the adapters chosen by Config and builds the handlers
// on top of them.
type CompositionRoot struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	repo      ports.OrderRepository
	attempts  ports.AttemptLog
	locker    ports.OrderLocker
	publisher ports.EventPublisher
	invoices  ports.InvoiceIssuer
	labels    ports.LabelGenerator
	validator services.ActionValidator

	closers []io.Closer
}

// NewCompositionRoot connects the configured backends. Postgres, Redis and
// Kafka are used when configured; the in-memory adapters otherwise.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger, m *metrics.Metrics) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		validator: services.NewActionValidator(cfg.CancelPolicy),
	}

	if err := c.openStorage(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	if err := c.openLocker(ctx); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	c.openPublisher()

	invoices, err := simulated.NewInvoiceIssuer(cfg.Invoices)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}
	labels, err := simulated.NewLabelGenerator(cfg.Labels)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}
	c.invoices, c.labels = invoices, labels

	return c, nil
}

func (c *CompositionRoot) openStorage(ctx context.Context) error {
	if !c.cfg.UsePostgres() {
		c.repo = memory.NewOrderRepository()
		c.attempts = memory.NewAttemptLog()
		c.logger.InfoContext(ctx, "Using in-memory order store")
		return nil
	}

	dbs, err := postgres.Open(ctx, c.cfg.DB.DSN())
	if err != nil {
		return err
	}
	c.closers = append(c.closers, dbs)
	if err := dbs.Migrate(ctx); err != nil {
		return err
	}

	c.repo = orderrepo.NewGormOrderRepository(dbs.Gorm)
	c.attempts = auditrepo.NewSQLAttemptLog(dbs.SQL)
	c.logger.InfoContext(ctx, "Using Postgres order store", "host", c.cfg.DB.Host, "database", c.cfg.DB.Name)
	return nil
}

func (c *CompositionRoot) openLocker(ctx context.Context) error {
	if c.cfg.RedisAddr == "" {
		c.locker = memory.NewKeyedLocker()
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
	c.closers = append(c.closers, client)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis %s: %w", c.cfg.RedisAddr, err)
	}

	c.locker = redislock.New(client, redislock.Options{}, c.logger)
	c.logger.InfoContext(ctx, "Using Redis order locks", "addr", c.cfg.RedisAddr)
	return nil
}

func (c *CompositionRoot) openPublisher() {
	if len(c.cfg.KafkaBrokers) == 0 {
		c.publisher = memory.NewEventLog(eventLogLimit, c.logger)
		return
	}

	publisher := kafka.NewPublisher(c.cfg.KafkaBrokers, c.cfg.KafkaTopic, c.cfg.ServiceName)
	c.closers = append(c.closers, publisher)
	c.publisher = publisher
}

// Close releases every backend connection, newest first.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i].Close())
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) Repository() ports.OrderRepository {
	return c.repo
}

func (c *CompositionRoot) CreatePipelineRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.invoices, c.labels, c.attempts, c.cfg.Pipeline, c.logger, c.metrics)
}

func (c *CompositionRoot) CreateClaimOrderCommandHandler() commands.ClaimOrderCommandHandler {
	return commands.NewClaimOrderCommandHandler(c.repo, c.locker, c.validator, c.publisher, nil, c.logger)
}

func (c *CompositionRoot) CreateReadyToShipCommandHandler() commands.ReadyToShipCommandHandler {
	return commands.NewReadyToShipCommandHandler(
		c.repo, c.locker, c.validator, c.CreatePipelineRunner(), c.attempts, c.publisher, nil, c.logger,
	)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.repo, c.locker, c.validator, c.publisher, nil, c.logger)
}

func (c *CompositionRoot) CreateConfirmDeliveryCommandHandler() commands.ConfirmDeliveryCommandHandler {
	return commands.NewConfirmDeliveryCommandHandler(c.repo, c.locker, c.validator, c.publisher, nil, c.logger)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.repo, c.publisher, nil, c.logger)
}

func (c *CompositionRoot) CreateCoordinator() *fulfillment.Coordinator {
	return fulfillment.NewCoordinator(fulfillment.Handlers{
		Claim:           c.CreateClaimOrderCommandHandler(),
		ReadyToShip:     c.CreateReadyToShipCommandHandler(),
		Cancel:          c.CreateCancelOrderCommandHandler(),
		ConfirmDelivery: c.CreateConfirmDeliveryCommandHandler(),
	}, c.metrics)
}

func (c *CompositionRoot) CreateQueries() httpapi.Queries {
	return httpapi.Queries{
		List:     queries.NewListOrdersQueryHandler(c.repo, nil),
		Stats:    queries.NewGetOrderStatsQueryHandler(c.repo),
		Get:      queries.NewGetOrderQueryHandler(c.repo, c.validator),
		Attempts: queries.NewGetFulfillmentAttemptsQueryHandler(c.repo, c.attempts),
	}
}

func (c *CompositionRoot) CreateServer() *httpapi.Server {
	return httpapi.NewServer(
		c.CreateCoordinator(),
		c.CreateCreateOrderCommandHandler(),
		c.CreateQueries(),
		c.metrics,
		c.logger,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		queries.NewGetStaleClaimsQueryHandler(c.repo, nil),
		c.cfg.Jobs,
		c.metrics,
		c.logger,
	)
}
