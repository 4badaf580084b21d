package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Report statuses. Only the triage state machine writes Status.
const (
	StatusPending       = "pending"
	StatusVerified      = "verified"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusFalseReport   = "false_report"
)

// Report severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Categories lists the accepted hazard categories.
var Categories = []string{
	"flood", "fire", "earthquake", "typhoon", "landslide",
	"storm_surge", "road_hazard", "power_outage", "other",
}

// Severities lists the accepted severities in ascending order.
var Severities = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Location is where the hazard was observed. Barangay is the locality.
type Location struct {
	Barangay  string  `gorm:"size:120" json:"barangay,omitempty"`
	City      string  `gorm:"size:120;index" json:"city,omitempty"`
	Latitude  float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
}

// Report is a community-submitted hazard/weather observation.
type Report struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmitterID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"submitter_id"`
	Title       string                      `gorm:"not null;size:200" json:"title"`
	Description string                      `gorm:"not null;type:text" json:"description"`
	Category    string                      `gorm:"not null;size:50;index" json:"category"`
	Severity    string                      `gorm:"not null;size:20;index" json:"severity"`
	Location    Location                    `gorm:"embedded" json:"location"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Status      string                      `gorm:"not null;default:'pending';size:50;index" json:"status"`

	// Written only by the triage pipeline; replaced in full on every analysis.
	CredibilityScore *float64                    `json:"credibility_score,omitempty"`
	Flags            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"flags"`
	AISummary        string                      `gorm:"type:text" json:"ai_summary,omitempty"`

	VerifiedBy     string     `gorm:"size:64" json:"verified_by,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	ResolvedBy     string     `gorm:"size:64" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `gorm:"size:1000" json:"resolution_note,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
