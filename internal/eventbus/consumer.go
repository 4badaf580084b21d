package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	kafkago "github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Consumer feeds report-created events from Kafka into the triage handler.
// Offsets are committed only after the handler returns, so a crash mid-run
// redelivers the event.
type Consumer struct {
	reader  messageReader
	handler triage.Handler
	logger  *slog.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

// NewConsumer creates a consumer-group reader on the reports topic.
func NewConsumer(cfg *config.Config, handler triage.Handler, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaReportsTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(r, handler, cfg.TriageTimeout, logger, metrics)
}

func newConsumer(r messageReader, handler triage.Handler, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("report consumer started")
	c.metrics.ConsumerRunning.Set(1)
	defer c.metrics.ConsumerRunning.Set(0)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			c.logger.Info("report consumer stopping", "reason", ctx.Err())
			return nil
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("fetch message failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) {
	c.metrics.EventsConsumed.Inc()

	evt, err := decodeReportCreated(msg)
	if err != nil {
		c.metrics.EventsMalformed.Inc()
		c.logger.Warn("skipping malformed report event",
			"error", err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		c.commit(ctx, msg)
		return
	}

	runCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, c.timeout)
		defer cancel()
	}
	c.handler.Handle(runCtx, evt)
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
