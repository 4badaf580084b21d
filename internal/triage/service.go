package triage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Service is the synchronous, caller-facing side of triage: manual
// re-analysis, reading the current analysis and administrator overrides.
// Unlike Trigger, it surfaces every error to the caller.
type Service struct {
	reports  ReportStore
	analyses AnalysisStore
	admins   AdminDirectory
	states   *StateMachine
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewService(reports ReportStore, analyses AnalysisStore, admins AdminDirectory, states *StateMachine, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		reports:  reports,
		analyses: analyses,
		admins:   admins,
		states:   states,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Reanalyze re-scores an existing report and replaces its analysis, stamping
// the operator. It never changes the report status or notifies anyone.
func (s *Service) Reanalyze(ctx context.Context, reportID uuid.UUID, caller *Caller) (*models.CredibilityAnalysis, error) {
	analysis, err := s.reanalyze(ctx, reportID, caller)
	s.metrics.Reanalyses.WithLabelValues(reanalysisOutcome(err)).Inc()
	return analysis, err
}

func (s *Service) reanalyze(ctx context.Context, reportID uuid.UUID, caller *Caller) (*models.CredibilityAnalysis, error) {
	if err := s.authorizeAdmin(ctx, caller); err != nil {
		return nil, err
	}

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	assessment, err := Score(report)
	if err != nil {
		return nil, err
	}

	analysis := newAnalysis(report, assessment, s.clock)
	operator := caller.Actor()
	analysis.Operator = operator
	if caller.UserID != uuid.Nil {
		userID := caller.UserID
		analysis.TriggeredBy = &userID
	}

	if err := s.analyses.SaveAnalysis(ctx, analysis); err != nil {
		s.logger.ErrorContext(ctx, "save re-analysis failed", "report_id", reportID, "operator_id", operator, "error", err)
		return nil, storageErr("save analysis", err)
	}

	s.logger.InfoContext(ctx, "report re-analyzed",
		"report_id", reportID,
		"operator_id", operator,
		"score", analysis.Score,
		"recommendation", analysis.Recommendation,
	)
	return analysis, nil
}

// GetAnalysis returns the current analysis of a report. found is false when
// the report has not been analyzed (or does not exist); that is not an error.
func (s *Service) GetAnalysis(ctx context.Context, reportID uuid.UUID, caller *Caller) (analysis *models.CredibilityAnalysis, found bool, err error) {
	if caller == nil {
		return nil, false, ErrUnauthenticated
	}

	analysis, err = s.analyses.GetAnalysis(ctx, reportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, storageErr("get analysis", err)
	}
	return analysis, true, nil
}

// SetStatus is the administrator override: it moves a report to any status
// through the state machine on behalf of the caller.
func (s *Service) SetStatus(ctx context.Context, reportID uuid.UUID, caller *Caller, status, note string) (*models.Report, error) {
	if err := s.authorizeAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if err := CheckTransition("", status); err != nil {
		return nil, err
	}

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if _, err := s.states.Transition(ctx, report, status, caller.Actor(), note); err != nil {
		return nil, err
	}
	s.metrics.StatusChanges.WithLabelValues(status, "operator").Inc()
	return report, nil
}

func (s *Service) authorizeAdmin(ctx context.Context, caller *Caller) error {
	if caller == nil || (caller.UserID == uuid.Nil && !caller.Admin) {
		return ErrUnauthenticated
	}
	if caller.Admin {
		return nil
	}

	ok, err := s.admins.IsAdmin(ctx, caller.UserID)
	if err != nil {
		return storageErr("resolve admin", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) loadReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report, err := s.reports.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("get report", err)
	}
	return report, nil
}

func reanalysisOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
