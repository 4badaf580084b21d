package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Scorer recommendations.
const (
	RecommendApprove = "approve"
	RecommendReject  = "reject"
	RecommendPending = "pending"
)

// CredibilityAnalysis is the current scorer output for one report. It is
// upserted on report_id, never appended.
type CredibilityAnalysis struct {
	ReportID       uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"report_id"`
	Score          float64                     `gorm:"not null;check:score >= 0 AND score <= 1" json:"score"`
	Summary        string                      `gorm:"type:text" json:"summary"`
	Flags          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"flags"`
	Recommendation string                      `gorm:"not null;size:20;index" json:"recommendation"`
	AnalyzedAt     time.Time                   `gorm:"not null" json:"analyzed_at"`
	TriggeredBy    *uuid.UUID                  `gorm:"type:uuid" json:"triggered_by,omitempty"`
	// Operator is the actor that asked for a manual re-analysis: a user id or
	// "admin-token". Empty for automated runs.
	Operator string `gorm:"size:64" json:"operator,omitempty"`
}

func (CredibilityAnalysis) TableName() string {
	return "credibility_analyses"
}
