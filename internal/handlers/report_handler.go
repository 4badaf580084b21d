package handlers

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/services"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reportService *services.ReportService
	triageService *triage.Service
}

func NewReportHandler(reportService *services.ReportService, triageService *triage.Service) *ReportHandler {
	return &ReportHandler{reportService: reportService, triageService: triageService}
}

func (h *ReportHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, triage.ErrUnauthenticated)
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reportService.CreateReport(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	filter := dto.ReportFilter{
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if c.QueryBool("mine") {
		userID, err := middleware.GetUserID(c)
		if err != nil {
			return respondError(c, triage.ErrUnauthenticated)
		}
		filter.SubmitterID = userID
	}

	reports, total, applied, err := h.reportService.ListReports(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReportListResponse{
		Reports: reports,
		Total:   total,
		Limit:   applied.Limit,
		Offset:  applied.Offset,
	})
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	report, err := h.reportService.GetReport(c.UserContext(), reportID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// UpdateStatus is the administrator override of a report's status.
func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.triageService.SetStatus(c.UserContext(), reportID, middleware.Caller(c), req.Status, req.ResolutionNote)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.reportService.DashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
