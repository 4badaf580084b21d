package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/google/uuid"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxImages            = 10
	defaultListLimit     = 20
	maxListLimit         = 100
)

// EventPublisher hands a report-created event to the triage pipeline. Both
// the in-process triage.Queue and the Kafka publisher implement it.
type EventPublisher interface {
	PublishReportCreated(ctx context.Context, evt triage.ReportCreated) error
}

// ReportRepository is the persistence the report service needs.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, filter dto.ReportFilter) ([]models.Report, int64, error)
	Stats(ctx context.Context) (*dto.DashboardStats, error)
}

// ReportService handles submission and read-side queries. It holds no
// triage logic: scoring and status changes happen behind the publisher.
type ReportService struct {
	repo      ReportRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewReportService(repo ReportRepository, publisher EventPublisher, logger *slog.Logger) *ReportService {
	return &ReportService{repo: repo, publisher: publisher, logger: logger}
}

// CreateReport validates and stores a report, then announces it. A failed
// announcement is logged; the report is still created.
func (s *ReportService) CreateReport(ctx context.Context, submitterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	report := models.Report{
		ID:          uuid.New(),
		SubmitterID: submitterID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Severity:    req.Severity,
		Location: models.Location{
			Barangay:  strings.TrimSpace(req.Barangay),
			City:      strings.TrimSpace(req.City),
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
		Images: images,
		Status: models.StatusPending,
	}

	if err := s.repo.CreateReport(ctx, &report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	snapshot := report
	if err := s.publisher.PublishReportCreated(ctx, triage.ReportCreated{ReportID: report.ID, Snapshot: &snapshot}); err != nil {
		level := slog.LevelError
		if errors.Is(err, triage.ErrQueueFull) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "report event not published", "report_id", report.ID, "stage", "publish", "error", err)
	}
	return &report, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, triage.ErrNotFound) {
			return nil, triage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// ListReports normalizes paging and rejects unknown filter values.
func (s *ReportService) ListReports(ctx context.Context, filter dto.ReportFilter) ([]models.Report, int64, dto.ReportFilter, error) {
	if filter.Status != "" && !triage.IsKnownStatus(filter.Status) {
		return nil, 0, filter, fmt.Errorf("%w: unknown status %q", triage.ErrValidation, filter.Status)
	}
	if filter.Severity != "" && !slices.Contains(models.Severities, filter.Severity) {
		return nil, 0, filter, fmt.Errorf("%w: unknown severity %q", triage.ErrValidation, filter.Severity)
	}
	if filter.Category != "" && !slices.Contains(models.Categories, filter.Category) {
		return nil, 0, filter, fmt.Errorf("%w: unknown category %q", triage.ErrValidation, filter.Category)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	reports, total, err := s.repo.ListReports(ctx, filter)
	if err != nil {
		return nil, 0, filter, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, filter, nil
}

func (s *ReportService) DashboardStats(ctx context.Context) (*dto.DashboardStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return stats, nil
}

func validateCreate(req *dto.CreateReportRequest) error {
	if req == nil {
		return fmt.Errorf("%w: missing body", triage.ErrValidation)
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", triage.ErrValidation)
	case utf8.RuneCountInString(title) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", triage.ErrValidation, maxTitleLength)
	case description == "":
		return fmt.Errorf("%w: description is required", triage.ErrValidation)
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		return fmt.Errorf("%w: description must be at most %d characters", triage.ErrValidation, maxDescriptionLength)
	case !slices.Contains(models.Categories, req.Category):
		return fmt.Errorf("%w: invalid category: must be one of %s", triage.ErrValidation, strings.Join(models.Categories, ", "))
	case !slices.Contains(models.Severities, req.Severity):
		return fmt.Errorf("%w: invalid severity: must be one of %s", triage.ErrValidation, strings.Join(models.Severities, ", "))
	case len(req.Images) > maxImages:
		return fmt.Errorf("%w: at most %d images are allowed", triage.ErrValidation, maxImages)
	case req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180:
		return fmt.Errorf("%w: coordinates out of range", triage.ErrValidation)
	}
	return nil
}
