package dto

import (
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/google/uuid"
)

type CreateReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	Barangay    string   `json:"barangay"`
	City        string   `json:"city"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Images      []string `json:"images"`
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	ResolutionNote string `json:"resolution_note"`
}

// ReportFilter narrows a report listing. Empty fields match everything.
type ReportFilter struct {
	Status      string
	Severity    string
	Category    string
	SubmitterID uuid.UUID
	Limit       int
	Offset      int
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type AnalysisResponse struct {
	Found    bool                        `json:"found"`
	Analysis *models.CredibilityAnalysis `json:"analysis,omitempty"`
}

type DashboardStats struct {
	TotalReports        int64            `json:"total_reports"`
	ByStatus            map[string]int64 `json:"by_status"`
	BySeverity          map[string]int64 `json:"by_severity"`
	AverageScore        *float64         `json:"average_score"`
	AnalyzedReports     int64            `json:"analyzed_reports"`
	PendingHighPriority int64            `json:"pending_high_priority"`
}
