package main

import (
	"context"
	"errors"
	"os"
	"time"

	"khata/internal/amqp"
	"khata/internal/cli"
	"khata/internal/config"
	"khata/internal/log"
	"khata/internal/services"
	"khata/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting khata-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitStore(context.Background(), logger, cfg)
	// The worker only reads; it never announces changes itself.
	svc := services.NewLedgerService(res.Store, nil)

	exporter, err := cli.NewExporter(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize statement exporter", log.FieldError, err)
		os.Exit(1)
	}
	rw := worker.NewReportWorker(svc, exporter, cfg.ReportAccounts)

	comps, err := buildComponents(cfg, rw)
	if err != nil {
		logger.Error("Failed to initialize worker", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		comps.stop(ctx, logger)
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close record store", log.FieldError, err)
		}
	})
	comps.start(logger, rw.HandleRecordChanged)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// components are the worker's long-running parts. They are all built
// before the shutdown hook is registered and never reassigned after.
type components struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *worker.Scheduler
	client    *amqp.Client
	queue     string
	schedule  string
	accounts  int
}

func buildComponents(cfg *config.Config, rw *worker.ReportWorker) (*components, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &components{
		ctx:      ctx,
		cancel:   cancel,
		queue:    cfg.AMQPQueue,
		schedule: cfg.ReportSchedule,
		accounts: len(cfg.ReportAccounts),
	}
	if cfg.ReportSchedule != "" && len(cfg.ReportAccounts) > 0 {
		s, err := worker.NewScheduler(ctx, cfg.ReportSchedule, rw)
		if err != nil {
			cancel()
			return nil, err
		}
		c.scheduler = s
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cancel()
			return nil, err
		}
		c.client = client
	}
	return c, nil
}

func (c *components) start(logger *log.Logger, handler amqp.Handler) {
	if c.scheduler != nil {
		c.scheduler.Start()
		logger.Info("Scheduled exports enabled", "schedule", c.schedule, log.FieldCount, c.accounts)
	} else {
		logger.Info("Scheduled exports disabled - no REPORT_SCHEDULE or REPORT_ACCOUNTS")
	}

	if c.client != nil {
		go func() {
			if err := c.client.Consume(c.ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
		logger.Info("Consuming record changes", "queue", c.queue)
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}
}

// stop cancels consumption and waits for a running export or ctx.
func (c *components) stop(ctx context.Context, logger *log.Logger) {
	c.cancel()
	if c.scheduler != nil {
		if err := c.scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduled export did not finish", log.FieldError, err)
		}
	}
	if c.client != nil {
		_ = c.client.Close()
	}
}
