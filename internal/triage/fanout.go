package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// FanoutResult counts the outcome of one fan-out.
type FanoutResult struct {
	Recipients int
	Created    int
	Failed     int
}

// Notifier creates one notification per current administrator.
type Notifier struct {
	admins        AdminDirectory
	notifications NotificationStore
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
	parallelism   int
	writeTimeout  time.Duration
}

// NotifierConfig bounds fan-out concurrency and per-write latency.
type NotifierConfig struct {
	Parallelism  int
	WriteTimeout time.Duration
}

func NewNotifier(admins AdminDirectory, notifications NotificationStore, cfg NotifierConfig, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Notifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Notifier{
		admins:        admins,
		notifications: notifications,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
		parallelism:   cfg.Parallelism,
		writeTimeout:  cfg.WriteTimeout,
	}
}

// Notify resolves the admin roster once and writes a notification for each
// admin independently. A failed write is logged and counted; it never stops
// the other writes. Notify itself does not fail.
func (n *Notifier) Notify(ctx context.Context, reportID uuid.UUID, report *models.Report, analysis *models.CredibilityAnalysis) FanoutResult {
	start := n.clock.Now()
	logger := n.logger.With("report_id", reportID, "stage", "fanout")

	admins, err := n.admins.ListAdmins(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "resolve admin roster failed", "error", err)
		return FanoutResult{}
	}
	if len(admins) == 0 {
		logger.InfoContext(ctx, "no administrators to notify")
		return FanoutResult{}
	}

	title := notificationTitle(report)
	var created, failed atomic.Int64

	// Goroutines never return an error, so the group never cancels siblings.
	var g errgroup.Group
	g.SetLimit(n.parallelism)
	for _, adminID := range admins {
		g.Go(func() error {
			notification := &models.Notification{
				ID:          uuid.New(),
				RecipientID: adminID,
				Type:        models.NotificationHighPriorityReport,
				ReportID:    reportID,
				Title:       title,
				Message:     analysis.Summary,
				Score:       analysis.Score,
				CreatedAt:   n.clock.Now().UTC(),
			}
			if err := n.write(ctx, notification); err != nil {
				failed.Add(1)
				n.metrics.Notifications.WithLabelValues("failed").Inc()
				logger.ErrorContext(ctx, "create notification failed", "recipient_id", adminID, "error", err)
				return nil
			}
			created.Add(1)
			n.metrics.Notifications.WithLabelValues("created").Inc()
			return nil
		})
	}
	_ = g.Wait()

	result := FanoutResult{
		Recipients: len(admins),
		Created:    int(created.Load()),
		Failed:     int(failed.Load()),
	}
	n.metrics.FanoutDuration.Observe(n.clock.Since(start).Seconds())
	logger.InfoContext(ctx, "administrators notified",
		"recipients", result.Recipients,
		"created", result.Created,
		"failed", result.Failed,
	)
	return result
}

func (n *Notifier) write(ctx context.Context, notification *models.Notification) error {
	if n.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.writeTimeout)
		defer cancel()
	}
	return storageErr("create notification", n.notifications.CreateNotification(ctx, notification))
}

func notificationTitle(report *models.Report) string {
	if report == nil {
		return "New high-priority report"
	}
	return fmt.Sprintf("New %s report: %s", report.Severity, report.Title)
}
