package triage

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/google/uuid"
)

// ReportStore reads reports and writes their status fields.
type ReportStore interface {
	// GetReport returns ErrNotFound when the id does not resolve.
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	// ApplyStatus must write every field of the change in one statement.
	ApplyStatus(ctx context.Context, id uuid.UUID, change StatusChange) error
}

// AnalysisStore persists the current analysis of a report.
type AnalysisStore interface {
	// SaveAnalysis replaces any prior analysis for the report and overwrites
	// the report's score, flags and summary.
	SaveAnalysis(ctx context.Context, analysis *models.CredibilityAnalysis) error
	// GetAnalysis returns ErrNotFound when the report has no analysis.
	GetAnalysis(ctx context.Context, reportID uuid.UUID) (*models.CredibilityAnalysis, error)
}

// NotificationStore persists one notification.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// AdminDirectory resolves who currently holds the administrator capability.
// Reads are snapshots; nothing is locked.
type AdminDirectory interface {
	ListAdmins(ctx context.Context) ([]uuid.UUID, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ReportCreated is the inbound "report created" event. Snapshot may be nil,
// in which case the report is loaded by id.
type ReportCreated struct {
	ReportID uuid.UUID      `json:"report_id"`
	Snapshot *models.Report `json:"report,omitempty"`
}

// Caller is the authenticated identity behind an inbound call.
type Caller struct {
	UserID uuid.UUID
	// Admin is set when the transport already verified the capability
	// (for example the admin token header). Otherwise the directory decides.
	Admin bool
}

// Actor is the operator id recorded on status changes made for this caller.
func (c *Caller) Actor() string {
	if c.UserID == uuid.Nil {
		return "admin-token"
	}
	return c.UserID.String()
}
