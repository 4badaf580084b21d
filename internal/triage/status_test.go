package triage_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage/triagetest"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statuses = []string{
	models.StatusPending,
	models.StatusVerified,
	models.StatusInvestigating,
	models.StatusResolved,
	models.StatusFalseReport,
}

func TestCheckTransition_AllNamedTransitionsAllowed(t *testing.T) {
	for _, from := range statuses {
		for _, to := range statuses {
			assert.NoError(t, triage.CheckTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition_UnknownStatus(t *testing.T) {
	assert.ErrorIs(t, triage.CheckTransition(models.StatusPending, "archived"), triage.ErrValidation)
	assert.ErrorIs(t, triage.CheckTransition("archived", models.StatusPending), triage.ErrValidation)
}

func TestRecommendedStatus(t *testing.T) {
	status, ok := triage.RecommendedStatus(models.RecommendApprove)
	assert.True(t, ok)
	assert.Equal(t, models.StatusVerified, status)

	status, ok = triage.RecommendedStatus(models.RecommendReject)
	assert.True(t, ok)
	assert.Equal(t, models.StatusFalseReport, status)

	_, ok = triage.RecommendedStatus(models.RecommendPending)
	assert.False(t, ok)
}

func newStateMachine(store *triagetest.Store, clock clockwork.Clock) *triage.StateMachine {
	return triage.NewStateMachine(store, clock, slog.Default())
}

func TestTransition_VerifyRecordsOperatorAndTime(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.July, 24, 8, 30, 0, 0, time.UTC))
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)

	sm := newStateMachine(store, clock)
	change, err := sm.Transition(context.Background(), report, models.StatusVerified, "op-1", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusVerified, change.Status)
	stored := store.Report(report.ID)
	assert.Equal(t, models.StatusVerified, stored.Status)
	assert.Equal(t, "op-1", stored.VerifiedBy)
	require.NotNil(t, stored.VerifiedAt)
	assert.Equal(t, clock.Now(), *stored.VerifiedAt)
	assert.Nil(t, stored.ResolvedAt)

	assert.Equal(t, models.StatusVerified, report.Status, "in-memory report mirrors the change")
}

func TestTransition_ResolveRecordsNote(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)

	sm := newStateMachine(store, clock)
	_, err := sm.Transition(context.Background(), report, models.StatusResolved, "op-2", "  water receded  ")
	require.NoError(t, err)

	stored := store.Report(report.ID)
	assert.Equal(t, models.StatusResolved, stored.Status)
	assert.Equal(t, "op-2", stored.ResolvedBy)
	assert.Equal(t, "water receded", stored.ResolutionNote)
	require.NotNil(t, stored.ResolvedAt)
}

func TestTransition_ResolvedBackToPendingAllowed(t *testing.T) {
	store := triagetest.NewStore()
	report := scenarioA()
	report.Status = models.StatusResolved
	store.AddReport(report)

	sm := newStateMachine(store, clockwork.NewFakeClock())
	_, err := sm.Transition(context.Background(), report, models.StatusPending, "op-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, store.Report(report.ID).Status)
}

func TestTransition_ReapplyRefreshesTimestamp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)
	sm := newStateMachine(store, clock)

	_, err := sm.Transition(context.Background(), report, models.StatusVerified, "op-1", "")
	require.NoError(t, err)
	first := *store.Report(report.ID).VerifiedAt

	clock.Advance(time.Minute)
	_, err = sm.Transition(context.Background(), report, models.StatusVerified, "op-2", "")
	require.NoError(t, err)

	stored := store.Report(report.ID)
	assert.Equal(t, models.StatusVerified, stored.Status)
	assert.Equal(t, "op-2", stored.VerifiedBy)
	assert.True(t, stored.VerifiedAt.After(first))
}

func TestTransition_StorageFailureLeavesReportUntouched(t *testing.T) {
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)
	store.ErrApplyStatus = errors.New("connection reset")

	sm := newStateMachine(store, clockwork.NewFakeClock())
	_, err := sm.Transition(context.Background(), report, models.StatusVerified, "op-1", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, triage.ErrInternal)
	var storageErr *triage.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Equal(t, models.StatusPending, report.Status)
	assert.Equal(t, models.StatusPending, store.Report(report.ID).Status)
	assert.Nil(t, store.Report(report.ID).VerifiedAt)
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)

	sm := newStateMachine(store, clockwork.NewFakeClock())
	_, err := sm.Transition(context.Background(), report, "archived", "op-1", "")
	assert.ErrorIs(t, err, triage.ErrValidation)
	assert.Zero(t, store.Writes())
}

func TestStatusChange_Columns(t *testing.T) {
	now := time.Now()
	cols := triage.StatusChange{Status: models.StatusResolved, ResolvedBy: "op", ResolvedAt: &now}.Columns()
	assert.Equal(t, map[string]interface{}{
		"status":      models.StatusResolved,
		"resolved_by": "op",
		"resolved_at": now,
	}, cols)

	cols = triage.StatusChange{Status: models.StatusInvestigating}.Columns()
	assert.Equal(t, map[string]interface{}{"status": models.StatusInvestigating}, cols)
}

func TestApplyRecommendation_PendingDoesNotWrite(t *testing.T) {
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)

	sm := newStateMachine(store, clockwork.NewFakeClock())
	applied, err := sm.ApplyRecommendation(context.Background(), report, models.RecommendPending)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Zero(t, store.Writes())
}

func TestApplyRecommendation_UsesSystemActor(t *testing.T) {
	store := triagetest.NewStore()
	report := scenarioA()
	store.AddReport(report)

	sm := newStateMachine(store, clockwork.NewFakeClock())
	applied, err := sm.ApplyRecommendation(context.Background(), report, models.RecommendApprove)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, triage.SystemActor, store.Report(report.ID).VerifiedBy)
}
