package handler

import (
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7, at most 90)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", service.DefaultMovementDays)

	data, err := h.service.GetStockMovement(c.UserContext(), actorOf(c), days)
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(fiber.Map{
		"period": len(data),
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.UserContext(), actorOf(c))
	if err != nil {
		return middleware.Fail(c, err)
	}

	return c.JSON(stats)
}

func (h *DashboardHandler) GetRecentTransactions(c *fiber.Ctx) error {
	rows, err := h.service.GetRecentTransactions(c.UserContext(), actorOf(c))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(rows)
}
