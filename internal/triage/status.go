package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/jonboulle/clockwork"
)

// SystemActor identifies transitions made by the automated pipeline.
const SystemActor = "system:triage"

var knownStatuses = map[string]bool{
	models.StatusPending:       true,
	models.StatusVerified:      true,
	models.StatusInvestigating: true,
	models.StatusResolved:      true,
	models.StatusFalseReport:   true,
}

// IsKnownStatus reports whether s is one of the report lifecycle states.
func IsKnownStatus(s string) bool {
	return knownStatuses[s]
}

// CheckTransition is the single place that decides whether a report may move
// from one status to another. Every named status may currently reach every
// other one, including itself.
func CheckTransition(from, to string) error {
	if !IsKnownStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	if from != "" && !IsKnownStatus(from) {
		return fmt.Errorf("%w: unknown current status %q", ErrValidation, from)
	}
	return nil
}

// RecommendedStatus maps a scorer recommendation to the status the pipeline
// should set. ok is false when the status must be left untouched.
func RecommendedStatus(recommendation string) (status string, ok bool) {
	switch recommendation {
	case models.RecommendApprove:
		return models.StatusVerified, true
	case models.RecommendReject:
		return models.StatusFalseReport, true
	default:
		return "", false
	}
}

// StatusChange is the full set of columns written by one transition.
type StatusChange struct {
	Status         string
	VerifiedBy     string
	VerifiedAt     *time.Time
	ResolvedBy     string
	ResolvedAt     *time.Time
	ResolutionNote string
}

// Columns returns the change as a column map for a single UPDATE.
func (c StatusChange) Columns() map[string]interface{} {
	cols := map[string]interface{}{"status": c.Status}
	if c.VerifiedAt != nil {
		cols["verified_by"] = c.VerifiedBy
		cols["verified_at"] = *c.VerifiedAt
	}
	if c.ResolvedAt != nil {
		cols["resolved_by"] = c.ResolvedBy
		cols["resolved_at"] = *c.ResolvedAt
		if c.ResolutionNote != "" {
			cols["resolution_note"] = c.ResolutionNote
		}
	}
	return cols
}

// StateMachine applies status transitions to reports.
type StateMachine struct {
	reports ReportStore
	clock   clockwork.Clock
	logger  *slog.Logger
}

func NewStateMachine(reports ReportStore, clock clockwork.Clock, logger *slog.Logger) *StateMachine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StateMachine{reports: reports, clock: clock, logger: logger}
}

// Plan builds the change for moving report to status on behalf of actor,
// without persisting it.
func (sm *StateMachine) Plan(report *models.Report, to, actor, note string) (StatusChange, error) {
	if report == nil {
		return StatusChange{}, fmt.Errorf("%w: nil report", ErrValidation)
	}
	if err := CheckTransition(report.Status, to); err != nil {
		return StatusChange{}, err
	}

	change := StatusChange{Status: to}
	now := sm.clock.Now().UTC()
	switch to {
	case models.StatusVerified:
		change.VerifiedBy = actor
		change.VerifiedAt = &now
	case models.StatusResolved:
		change.ResolvedBy = actor
		change.ResolvedAt = &now
		change.ResolutionNote = strings.TrimSpace(note)
	}
	return change, nil
}

// Transition persists a status change atomically and mirrors it onto report.
func (sm *StateMachine) Transition(ctx context.Context, report *models.Report, to, actor, note string) (StatusChange, error) {
	change, err := sm.Plan(report, to, actor, note)
	if err != nil {
		return StatusChange{}, err
	}

	if err := sm.reports.ApplyStatus(ctx, report.ID, change); err != nil {
		return StatusChange{}, storageErr("apply status", err)
	}

	from := report.Status
	applyChange(report, change)

	sm.logger.InfoContext(ctx, "report status changed",
		"report_id", report.ID,
		"from", from,
		"to", to,
		"operator_id", actor,
	)
	return change, nil
}

// ApplyRecommendation runs the automated mapping for a scorer recommendation.
// applied is false when the recommendation leaves the status as it is.
func (sm *StateMachine) ApplyRecommendation(ctx context.Context, report *models.Report, recommendation string) (applied bool, err error) {
	to, ok := RecommendedStatus(recommendation)
	if !ok {
		return false, nil
	}
	if _, err := sm.Transition(ctx, report, to, SystemActor, ""); err != nil {
		return false, err
	}
	return true, nil
}

func applyChange(report *models.Report, change StatusChange) {
	report.Status = change.Status
	if change.VerifiedAt != nil {
		report.VerifiedBy = change.VerifiedBy
		report.VerifiedAt = change.VerifiedAt
	}
	if change.ResolvedAt != nil {
		report.ResolvedBy = change.ResolvedBy
		report.ResolvedAt = change.ResolvedAt
		if change.ResolutionNote != "" {
			report.ResolutionNote = change.ResolutionNote
		}
	}
}
