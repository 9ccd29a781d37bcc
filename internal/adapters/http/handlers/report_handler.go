package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/response"
)

// ReportHandler handles dashboard and reporting endpoints
type ReportHandler struct {
	reportService   *services.ReportService
	activityService *services.ActivityService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService, activityService *services.ActivityService) *ReportHandler {
	return &ReportHandler{
		reportService:   reportService,
		activityService: activityService,
	}
}

// Dashboard handles dashboard statistics for the caller's scope
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)

	stats, err := h.reportService.Dashboard(c.Context(), p)
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", stats)
}

// RecentActivity handles the recent activity feed
func (h *ReportHandler) RecentActivity(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	p := middleware.GetPrincipal(c)
	logs, err := h.activityService.Recent(c.Context(), p, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list activity")
	}

	return response.Success(c, "Activity retrieved successfully", logs)
}
