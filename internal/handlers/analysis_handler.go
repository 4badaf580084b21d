package handlers

import (
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AnalysisHandler struct {
	triageService *triage.Service
}

func NewAnalysisHandler(triageService *triage.Service) *AnalysisHandler {
	return &AnalysisHandler{triageService: triageService}
}

// GetAnalysis returns the current analysis, or 404 with found=false when the
// report has not been analyzed yet.
func (h *AnalysisHandler) GetAnalysis(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	analysis, found, err := h.triageService.GetAnalysis(c.UserContext(), reportID, middleware.Caller(c))
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(dto.AnalysisResponse{Found: false})
	}
	return c.JSON(dto.AnalysisResponse{Found: true, Analysis: analysis})
}

func (h *AnalysisHandler) Reanalyze(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	analysis, err := h.triageService.Reanalyze(c.UserContext(), reportID, middleware.Caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AnalysisResponse{Found: true, Analysis: analysis})
}
