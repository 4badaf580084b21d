package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reports implements triage.ReportStore on PostgreSQL and backs the
// submission and dashboard queries.
type Reports struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) *Reports {
	return &Reports{db: db}
}

func (r *Reports) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, triage.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// ApplyStatus writes the status and its audit columns in a single UPDATE so
// a transition is never half-recorded.
func (r *Reports) ApplyStatus(ctx context.Context, id uuid.UUID, change triage.StatusChange) error {
	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", id).
		Updates(change.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return triage.ErrNotFound
	}
	return nil
}

func (r *Reports) CreateReport(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *Reports) ListReports(ctx context.Context, filter dto.ReportFilter) ([]models.Report, int64, error) {
	var reports []models.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SubmitterID != uuid.Nil {
		query = query.Where("submitter_id = ?", filter.SubmitterID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

type groupCount struct {
	Key   string
	Count int64
}

// Stats aggregates report counts for the admin dashboard.
func (r *Reports) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	stats := &dto.DashboardStats{
		ByStatus:   make(map[string]int64),
		BySeverity: make(map[string]int64),
	}

	if err := db.Model(&models.Report{}).Count(&stats.TotalReports).Error; err != nil {
		return nil, err
	}

	for column, into := range map[string]map[string]int64{
		"status":   stats.ByStatus,
		"severity": stats.BySeverity,
	} {
		var rows []groupCount
		err := db.Model(&models.Report{}).
			Select(column + " AS key, COUNT(*) AS count").
			Group(column).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			into[row.Key] = row.Count
		}
	}

	if err := db.Model(&models.Report{}).
		Where("credibility_score IS NOT NULL").
		Count(&stats.AnalyzedReports).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Report{}).
		Select("AVG(credibility_score)").
		Where("credibility_score IS NOT NULL").
		Scan(&stats.AverageScore).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Report{}).
		Where("status = ? AND severity IN ?", models.StatusPending, []string{models.SeverityHigh, models.SeverityCritical}).
		Count(&stats.PendingHighPriority).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
