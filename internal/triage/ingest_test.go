package triage_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage/triagetest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeline struct {
	store   *triagetest.Store
	clock   *clockwork.FakeClock
	metrics *observability.Metrics
	trigger *triage.Trigger
}

func newPipeline(t *testing.T, admins int) *pipeline {
	t.Helper()
	p := &pipeline{
		store:   triagetest.NewStore(),
		clock:   clockwork.NewFakeClockAt(time.Date(2024, time.July, 24, 8, 30, 0, 0, time.UTC)),
		metrics: observability.NewMetricsForTesting(),
	}
	for i := 0; i < admins; i++ {
		p.store.AddAdmins(uuid.New())
	}
	logger := slog.Default()
	states := triage.NewStateMachine(p.store, p.clock, logger)
	notifier := triage.NewNotifier(p.store, p.store, triage.NotifierConfig{Parallelism: 4}, p.clock, logger, p.metrics)
	p.trigger = triage.NewTrigger(p.store, p.store, states, notifier, 0.7, p.clock, logger, p.metrics)
	return p
}

func (p *pipeline) submit(r *models.Report) triage.ReportCreated {
	p.store.AddReport(r)
	snapshot := *r
	return triage.ReportCreated{ReportID: r.ID, Snapshot: &snapshot}
}

func TestProcess_ScenarioA_VerifiesAndNotifies(t *testing.T) {
	p := newPipeline(t, 3)
	evt := p.submit(scenarioA())

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)

	assert.True(t, out.StatusApplied)
	assert.Equal(t, models.StatusVerified, out.Status)
	assert.True(t, out.Notified)
	assert.Equal(t, triage.FanoutResult{Recipients: 3, Created: 3}, out.Fanout)

	stored := p.store.Report(evt.ReportID)
	assert.Equal(t, models.StatusVerified, stored.Status)
	assert.Equal(t, triage.SystemActor, stored.VerifiedBy)
	require.NotNil(t, stored.CredibilityScore)
	assert.InDelta(t, 0.9, *stored.CredibilityScore, 1e-9)

	analysis := p.store.Analysis(evt.ReportID)
	require.NotNil(t, analysis)
	assert.Equal(t, models.RecommendApprove, analysis.Recommendation)
	assert.Nil(t, analysis.TriggeredBy)
	assert.Empty(t, analysis.Operator)
	assert.Equal(t, p.clock.Now(), analysis.AnalyzedAt)
	assert.Len(t, p.store.Notifications(), 3)
}

func TestProcess_ScenarioB_RejectsWithoutNotifying(t *testing.T) {
	p := newPipeline(t, 3)
	evt := p.submit(scenarioB())

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)

	assert.True(t, out.StatusApplied)
	assert.Equal(t, models.StatusFalseReport, out.Status)
	assert.False(t, out.Notified)
	assert.Equal(t, models.StatusFalseReport, p.store.Report(evt.ReportID).Status)
	assert.Empty(t, p.store.Notifications())
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.StatusChanges.WithLabelValues(models.StatusFalseReport, "automated")))
}

func TestProcess_PendingLeavesStatus(t *testing.T) {
	p := newPipeline(t, 1)
	r := scenarioA()
	r.Location = models.Location{}
	evt := p.submit(r)

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)

	assert.False(t, out.StatusApplied)
	assert.Equal(t, models.StatusPending, out.Status)
	assert.Equal(t, models.RecommendPending, out.Analysis.Recommendation)
	assert.Equal(t, models.StatusPending, p.store.Report(evt.ReportID).Status)
	assert.Nil(t, p.store.Report(evt.ReportID).VerifiedAt)
}

func TestProcess_HighScoreLowSeverityDoesNotNotify(t *testing.T) {
	p := newPipeline(t, 2)
	r := scenarioA()
	r.Severity = models.SeverityMedium
	evt := p.submit(r)

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)
	assert.False(t, out.Notified)
	assert.Empty(t, p.store.Notifications())
}

func TestProcess_HighSeverityBelowThresholdDoesNotNotify(t *testing.T) {
	p := newPipeline(t, 2)
	r := scenarioA()
	r.Severity = models.SeverityHigh
	r.Location = models.Location{City: "Batangas City"}
	r.Images = nil
	evt := p.submit(r)

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)
	assert.Less(t, out.Analysis.Score, 0.7)
	assert.False(t, out.Notified)
	assert.Empty(t, p.store.Notifications())
}

func TestProcess_HighSeverityWithoutImageNotifies(t *testing.T) {
	p := newPipeline(t, 2)
	evt := p.submit(highNoImage())

	out, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, out.Analysis.Score, 1e-9)
	assert.False(t, out.StatusApplied)
	assert.Equal(t, models.StatusPending, p.store.Report(evt.ReportID).Status)
	assert.True(t, out.Notified)
	assert.Equal(t, triage.FanoutResult{Recipients: 2, Created: 2}, out.Fanout)
	assert.Len(t, p.store.Notifications(), 2)
}

func TestProcess_DuplicateEventIsIdempotent(t *testing.T) {
	p := newPipeline(t, 1)
	evt := p.submit(scenarioA())

	first, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)
	second, err := p.trigger.Process(context.Background(), evt)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Analysis, second.Analysis); diff != "" {
		t.Errorf("analysis changed on redelivery (-first +second):\n%s", diff)
	}
	assert.Equal(t, models.StatusVerified, p.store.Report(evt.ReportID).Status)
	// Duplicate notifications on redelivery are tolerated.
	assert.Len(t, p.store.Notifications(), 2)
}

func TestProcess_LoadsReportWhenSnapshotMissing(t *testing.T) {
	p := newPipeline(t, 0)
	r := scenarioA()
	p.store.AddReport(r)

	out, err := p.trigger.Process(context.Background(), triage.ReportCreated{ReportID: r.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, out.Status)
}

func TestProcess_UnknownReport(t *testing.T) {
	p := newPipeline(t, 0)

	_, err := p.trigger.Process(context.Background(), triage.ReportCreated{ReportID: uuid.New()})
	assert.ErrorIs(t, err, triage.ErrNotFound)
}

func TestProcess_SnapshotIDMismatch(t *testing.T) {
	p := newPipeline(t, 0)
	evt := p.submit(scenarioA())
	evt.ReportID = uuid.New()

	_, err := p.trigger.Process(context.Background(), evt)
	assert.ErrorIs(t, err, triage.ErrValidation)
}

func TestHandle_SwallowsStorageFailure(t *testing.T) {
	p := newPipeline(t, 1)
	evt := p.submit(scenarioA())
	p.store.ErrSaveAnalysis = errors.New("disk full")

	assert.NotPanics(t, func() { p.trigger.Handle(context.Background(), evt) })

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.TriageFailures.WithLabelValues("save_analysis")))
	assert.Equal(t, models.StatusPending, p.store.Report(evt.ReportID).Status)
	assert.Nil(t, p.store.Analysis(evt.ReportID))
	assert.Empty(t, p.store.Notifications())
}

func TestHandle_StatusFailureKeepsAnalysis(t *testing.T) {
	p := newPipeline(t, 1)
	evt := p.submit(scenarioA())
	p.store.ErrApplyStatus = errors.New("timeout")

	p.trigger.Handle(context.Background(), evt)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.TriageFailures.WithLabelValues("apply_status")))
	assert.NotNil(t, p.store.Analysis(evt.ReportID))
	assert.Equal(t, models.StatusPending, p.store.Report(evt.ReportID).Status)
	assert.Empty(t, p.store.Notifications())
}

func TestHandle_RecoversPanic(t *testing.T) {
	store := triagetest.NewStore()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	states := triage.NewStateMachine(store, clock, slog.Default())
	// A nil notifier panics on the first fan-out.
	trigger := triage.NewTrigger(store, store, states, nil, 0.7, clock, slog.Default(), metrics)

	r := scenarioA()
	store.AddReport(r)

	assert.NotPanics(t, func() { trigger.Handle(context.Background(), triage.ReportCreated{ReportID: r.ID}) })
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TriageFailures.WithLabelValues("panic")))
}
