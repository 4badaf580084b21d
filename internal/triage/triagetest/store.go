// Package triagetest provides an in-memory implementation of the triage
// storage ports for tests.
package triagetest

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/google/uuid"
)

// Store keeps reports, analyses, notifications and the admin roster in
// memory. The Err fields inject failures into the matching operation.
type Store struct {
	mu            sync.Mutex
	reports       map[uuid.UUID]*models.Report
	analyses      map[uuid.UUID]*models.CredibilityAnalysis
	notifications []models.Notification
	admins        []uuid.UUID
	writes        int

	ErrGetReport    error
	ErrApplyStatus  error
	ErrSaveAnalysis error
	ErrGetAnalysis  error
	ErrListAdmins   error
	// ErrNotifyFor fails the notification write for specific recipients.
	ErrNotifyFor map[uuid.UUID]error
}

func NewStore() *Store {
	return &Store{
		reports:      make(map[uuid.UUID]*models.Report),
		analyses:     make(map[uuid.UUID]*models.CredibilityAnalysis),
		ErrNotifyFor: make(map[uuid.UUID]error),
	}
}

// AddReport stores a copy of r.
func (s *Store) AddReport(r *models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reports[r.ID] = &cp
}

// AddAdmins appends ids to the administrator roster.
func (s *Store) AddAdmins(ids ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins = append(s.admins, ids...)
}

// Report returns a copy of the stored report, or nil.
func (s *Store) Report(id uuid.UUID) *models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Analysis returns a copy of the stored analysis, or nil.
func (s *Store) Analysis(reportID uuid.UUID) *models.CredibilityAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[reportID]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Notifications returns every notification created so far.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Writes counts successful mutating calls of any kind.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrGetReport != nil {
		return nil, s.ErrGetReport
	}
	r, ok := s.reports[id]
	if !ok {
		return nil, triage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ApplyStatus(_ context.Context, id uuid.UUID, change triage.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrApplyStatus != nil {
		return s.ErrApplyStatus
	}
	r, ok := s.reports[id]
	if !ok {
		return triage.ErrNotFound
	}
	r.Status = change.Status
	if change.VerifiedAt != nil {
		r.VerifiedBy = change.VerifiedBy
		r.VerifiedAt = change.VerifiedAt
	}
	if change.ResolvedAt != nil {
		r.ResolvedBy = change.ResolvedBy
		r.ResolvedAt = change.ResolvedAt
		if change.ResolutionNote != "" {
			r.ResolutionNote = change.ResolutionNote
		}
	}
	s.writes++
	return nil
}

func (s *Store) SaveAnalysis(_ context.Context, analysis *models.CredibilityAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrSaveAnalysis != nil {
		return s.ErrSaveAnalysis
	}
	r, ok := s.reports[analysis.ReportID]
	if !ok {
		return triage.ErrNotFound
	}
	cp := *analysis
	s.analyses[analysis.ReportID] = &cp

	score := analysis.Score
	r.CredibilityScore = &score
	r.Flags = analysis.Flags
	r.AISummary = analysis.Summary
	s.writes++
	return nil
}

func (s *Store) GetAnalysis(_ context.Context, reportID uuid.UUID) (*models.CredibilityAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrGetAnalysis != nil {
		return nil, s.ErrGetAnalysis
	}
	a, ok := s.analyses[reportID]
	if !ok {
		return nil, triage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ErrNotifyFor[n.RecipientID]; err != nil {
		return err
	}
	s.notifications = append(s.notifications, *n)
	s.writes++
	return nil
}

func (s *Store) ListAdmins(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrListAdmins != nil {
		return nil, s.ErrListAdmins
	}
	out := make([]uuid.UUID, len(s.admins))
	copy(out, s.admins)
	return out, nil
}

func (s *Store) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrListAdmins != nil {
		return false, s.ErrListAdmins
	}
	for _, id := range s.admins {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
