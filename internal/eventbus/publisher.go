package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces report-created events to the reports topic.
type Publisher struct {
	writer  messageWriter
	clock   clockwork.Clock
	logger  *slog.Logger
	timeout time.Duration
}

// NewPublisher creates a Kafka producer for the configured reports topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		// One event per request: flush immediately instead of waiting for a batch.
		BatchSize:    1,
		BatchTimeout: 5 * time.Millisecond,
		MaxAttempts:  3,
		WriteTimeout: cfg.KafkaPublishTimeout,
	}
	return &Publisher{writer: w, clock: clockwork.NewRealClock(), logger: logger, timeout: cfg.KafkaPublishTimeout}
}

// PublishReportCreated writes one event and waits for the brokers to ack it,
// for at most the configured publish timeout.
func (p *Publisher) PublishReportCreated(ctx context.Context, evt triage.ReportCreated) error {
	msg, err := encodeReportCreated(evt, p.clock.Now())
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	p.logger.Debug("report event published", "report_id", evt.ReportID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
