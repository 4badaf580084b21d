package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/getsentry/sentry-go"
	"github.com/jonboulle/clockwork"
)

// Outcome describes what one ingestion run did.
type Outcome struct {
	Analysis      *models.CredibilityAnalysis
	StatusApplied bool
	Status        string
	Notified      bool
	Fanout        FanoutResult
}

// stageError tags a failure with the pipeline step it happened in.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Trigger runs the enrichment pipeline for a newly created report.
type Trigger struct {
	reports        ReportStore
	analyses       AnalysisStore
	states         *StateMachine
	notifier       *Notifier
	clock          clockwork.Clock
	logger         *slog.Logger
	metrics        *observability.Metrics
	notifyMinScore float64
}

func NewTrigger(reports ReportStore, analyses AnalysisStore, states *StateMachine, notifier *Notifier, notifyMinScore float64, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Trigger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Trigger{
		reports:        reports,
		analyses:       analyses,
		states:         states,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
		metrics:        metrics,
		notifyMinScore: notifyMinScore,
	}
}

// Handle is the error boundary around Process: failures and panics are
// logged, counted and reported, never returned. Report creation has already
// succeeded by the time this runs.
func (t *Trigger) Handle(ctx context.Context, evt ReportCreated) {
	start := t.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			t.metrics.TriageFailures.WithLabelValues("panic").Inc()
			t.logger.ErrorContext(ctx, "triage panicked", "report_id", evt.ReportID, "stage", "panic", "error", fmt.Sprint(r))
			t.capture(evt, fmt.Errorf("triage panic: %v", r))
		}
		t.metrics.TriageDuration.Observe(t.clock.Since(start).Seconds())
	}()

	if _, err := t.Process(ctx, evt); err != nil {
		stage := "unknown"
		var se *stageError
		if errors.As(err, &se) {
			stage = se.stage
		}
		t.metrics.TriageFailures.WithLabelValues(stage).Inc()
		t.logger.ErrorContext(ctx, "triage failed", "report_id", evt.ReportID, "stage", stage, "error", err)
		t.capture(evt, err)
	}
}

// Process runs the pipeline and returns what happened. It is safe to call
// more than once for the same event: the analysis is replaced and the status
// set unconditionally.
func (t *Trigger) Process(ctx context.Context, evt ReportCreated) (Outcome, error) {
	report := evt.Snapshot
	if report == nil {
		loaded, err := t.reports.GetReport(ctx, evt.ReportID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				err = storageErr("get report", err)
			}
			return Outcome{}, &stageError{stage: "load", err: err}
		}
		report = loaded
	}
	if report.ID != evt.ReportID {
		return Outcome{}, &stageError{stage: "load", err: fmt.Errorf("%w: snapshot id %s does not match event id %s", ErrValidation, report.ID, evt.ReportID)}
	}

	assessment, err := Score(report)
	if err != nil {
		return Outcome{}, &stageError{stage: "score", err: err}
	}

	analysis := newAnalysis(report, assessment, t.clock)
	if err := t.analyses.SaveAnalysis(ctx, analysis); err != nil {
		return Outcome{}, &stageError{stage: "save_analysis", err: storageErr("save analysis", err)}
	}
	t.metrics.ReportsTriaged.WithLabelValues(analysis.Recommendation).Inc()

	out := Outcome{Analysis: analysis, Status: report.Status}

	applied, err := t.states.ApplyRecommendation(ctx, report, analysis.Recommendation)
	if err != nil {
		return out, &stageError{stage: "apply_status", err: err}
	}
	if applied {
		out.StatusApplied = true
		out.Status = report.Status
		t.metrics.StatusChanges.WithLabelValues(report.Status, "automated").Inc()
	}

	t.logger.InfoContext(ctx, "report triaged",
		"report_id", report.ID,
		"score", analysis.Score,
		"recommendation", analysis.Recommendation,
		"flags", []string(analysis.Flags),
		"status", report.Status,
	)

	if t.shouldNotify(report, analysis) {
		out.Notified = true
		out.Fanout = t.notifier.Notify(ctx, report.ID, report, analysis)
	}
	return out, nil
}

func (t *Trigger) shouldNotify(report *models.Report, analysis *models.CredibilityAnalysis) bool {
	if analysis.Score < t.notifyMinScore {
		return false
	}
	return report.Severity == models.SeverityHigh || report.Severity == models.SeverityCritical
}

func (t *Trigger) capture(evt ReportCreated, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "triage")
		scope.SetTag("report_id", evt.ReportID.String())
	})
	hub.CaptureException(err)
}

func newAnalysis(report *models.Report, a Assessment, clock clockwork.Clock) *models.CredibilityAnalysis {
	return &models.CredibilityAnalysis{
		ReportID:       report.ID,
		Score:          a.Score,
		Summary:        a.Summary,
		Flags:          a.Flags,
		Recommendation: a.Recommendation,
		AnalyzedAt:     clock.Now().UTC(),
	}
}
