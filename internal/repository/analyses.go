package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Analyses implements triage.AnalysisStore on PostgreSQL.
type Analyses struct {
	db *gorm.DB
}

func NewAnalyses(db *gorm.DB) *Analyses {
	return &Analyses{db: db}
}

// SaveAnalysis upserts the analysis on report_id and overwrites the report's
// derived columns in the same transaction.
func (a *Analyses) SaveAnalysis(ctx context.Context, analysis *models.CredibilityAnalysis) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_id"}},
			UpdateAll: true,
		}).Create(analysis).Error
		if err != nil {
			return err
		}

		score := analysis.Score
		result := tx.Model(&models.Report{}).
			Where("id = ?", analysis.ReportID).
			Updates(map[string]interface{}{
				"credibility_score": &score,
				"flags":             analysis.Flags,
				"ai_summary":        analysis.Summary,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return triage.ErrNotFound
		}
		return nil
	})
}

func (a *Analyses) GetAnalysis(ctx context.Context, reportID uuid.UUID) (*models.CredibilityAnalysis, error) {
	var analysis models.CredibilityAnalysis
	if err := a.db.WithContext(ctx).First(&analysis, "report_id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, triage.ErrNotFound
		}
		return nil, err
	}
	return &analysis, nil
}
