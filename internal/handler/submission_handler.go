package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradebench/gradebench-api/internal/dto"
	"github.com/gradebench/gradebench-api/internal/middleware"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
	"github.com/gradebench/gradebench-api/internal/service"
	"github.com/gradebench/gradebench-api/internal/utils"
)

// SubmissionHandler manages submission lifecycle endpoints.
type SubmissionHandler struct {
	submissions service.SubmissionService
	scoring     service.ScoringService
	testCases   service.TestCaseService
	hints       service.HintService
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, scoring service.ScoringService, testCases service.TestCaseService, hints service.HintService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		scoring:     scoring,
		testCases:   testCases,
		hints:       hints,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireRole(models.RoleStudent), h.submit)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/results", h.results)
	router.Post("/:id/enqueue", h.enqueue)
	router.Post("/:id/regrade", middleware.RequireRole(models.RoleInstructor, models.RoleAdmin), h.regrade)
	router.Post("/:id/hint", middleware.RequireRole(models.RoleStudent), h.generateHint)
	router.Get("/:id/hints", middleware.RequireRole(models.RoleStudent), h.listHints)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Submit(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "submission created", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	if assignmentID, err := parseQueryUint(c, "assignment_id"); err == nil && assignmentID != nil {
		filter.AssignmentID = assignmentID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	// Students can only ever list their own submissions.
	if userRoleFromContext(c) == models.RoleStudent {
		studentID := userIDFromContext(c)
		filter.StudentID = &studentID
	} else if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}

	submissions, err := h.submissions.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.submissions.Get(c.UserContext(), id, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

// results returns the per-test-case outcomes. For students, output captured
// on hidden test cases is blanked so expected behavior cannot be reverse
// engineered from their own probe submissions.
func (h *SubmissionHandler) results(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	role := userRoleFromContext(c)
	submission, err := h.submissions.Get(c.UserContext(), id, userIDFromContext(c), role)
	if err != nil {
		return h.handleError(c, err)
	}

	results, err := h.scoring.ListResults(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if role == models.RoleStudent {
		visible, err := h.testCases.ListForUser(c.UserContext(), submission.AssignmentID, role)
		if err != nil {
			return h.handleError(c, err)
		}
		visibleIDs := make(map[uint]struct{}, len(visible))
		for _, tc := range visible {
			visibleIDs[tc.ID] = struct{}{}
		}
		for i := range results {
			if _, ok := visibleIDs[results[i].TestCaseID]; !ok {
				results[i].Stdout = ""
				results[i].Stderr = ""
			}
		}
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *SubmissionHandler) enqueue(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	// Students may only enqueue their own submissions.
	role := userRoleFromContext(c)
	if _, err := h.submissions.Get(c.UserContext(), id, userIDFromContext(c), role); err != nil {
		return h.handleError(c, err)
	}

	submission, err := h.submissions.EnqueueForGrading(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission queued for grading", submission)
}

func (h *SubmissionHandler) regrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.submissions.Regrade(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission queued for re-grading", submission)
}

func (h *SubmissionHandler) generateHint(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	hint, err := h.hints.GenerateHint(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendCreated(c, "hint generated", hint)
}

func (h *SubmissionHandler) listHints(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	hints, err := h.hints.ListHints(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "hints retrieved", hints)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in this course")
	case errors.Is(err, service.ErrSubmissionForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the course owner")
	case errors.Is(err, service.ErrSourceNotText):
		return utils.SendError(c, fiber.StatusBadRequest, "submission source must be plain text")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, "submission is not in a state that allows this action")
	case errors.Is(err, repository.ErrVersionConflict):
		return utils.SendError(c, fiber.StatusConflict, "could not assign a submission version, retry")
	case errors.Is(err, service.ErrHintUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "hints are not available")
	case errors.Is(err, service.ErrHintNotApplicable):
		return utils.SendError(c, fiber.StatusBadRequest, "submission has no failing results")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
