package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradebench/gradebench-api/internal/service"
	"github.com/gradebench/gradebench-api/internal/utils"
)

// DashboardHandler serves the student progress dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/me/dashboard", h.dashboard)
}

func (h *DashboardHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.GetStudentDashboard(c.UserContext(), userIDFromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
