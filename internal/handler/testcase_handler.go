package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/middleware"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/service"
	"github.com/gradebench/gradebench-api/internal/utils"
)

// TestCaseHandler manages test case endpoints.
type TestCaseHandler struct {
	service service.TestCaseService
	logger  zerolog.Logger
}

// NewTestCaseHandler builds a test case handler instance.
func NewTestCaseHandler(service service.TestCaseService, logger zerolog.Logger) *TestCaseHandler {
	return &TestCaseHandler{
		service: service,
		logger:  logger.With().Str("component", "testcase_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches the assignment-scoped routes.
func (h *TestCaseHandler) RegisterAssignmentRoutes(router fiber.Router) {
	manage := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)
	router.Get("/:id/test-cases", h.list)
	router.Post("/:id/test-cases", manage, h.create)
}

// RegisterTestCaseRoutes attaches the test-case-scoped routes.
func (h *TestCaseHandler) RegisterTestCaseRoutes(router fiber.Router) {
	manage := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)
	router.Patch("/:id", manage, h.update)
	router.Delete("/:id", manage, h.delete)
}

func (h *TestCaseHandler) list(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	testCases, err := h.service.ListForUser(c.UserContext(), assignmentID, userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test cases retrieved", testCases)
}

func (h *TestCaseHandler) create(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var payload dto.TestCaseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	testCase, err := h.service.Create(c.UserContext(), userIDFromContext(c), assignmentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "test case created", testCase)
}

func (h *TestCaseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test case id")
	}

	var payload dto.TestCaseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	testCase, err := h.service.Update(c.UserContext(), userIDFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test case updated", testCase)
}

func (h *TestCaseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid test case id")
	}

	if err := h.service.Delete(c.UserContext(), userIDFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "test case deleted", nil)
}

func (h *TestCaseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTestCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "test case not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the course owner")
	case errors.Is(err, models.ErrTestCaseName), errors.Is(err, models.ErrTestCasePoints):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
