package handlers

import (
	"grana/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Overview returns income/expense totals plus category and monthly
// breakdowns for the trailing window (?months=12).
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	months := c.QueryInt("months", 12)
	resp, err := h.dashboardService.Overview(c.Context(), userID, months)
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}

	return c.JSON(resp)
}
