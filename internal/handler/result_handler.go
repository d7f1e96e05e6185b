package handler

import (
	"fmt"
	"strconv"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/middleware"
	"examroom/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ResultHandler serves attempt reviews, listings and exports.
type ResultHandler struct {
	resultService service.ResultService
}

func NewResultHandler(resultService service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// ListMyAttempts lists the authenticated student's own attempts.
// @Summary List my attempts
// @Tags results
// @Produce json
// @Success 200 {array} dto.AttemptSummaryResponse
// @Security BearerAuth
// @Router /me/attempts [get]
func (h *ResultHandler) ListMyAttempts(c *fiber.Ctx) error {
	attempts, err := h.resultService.ListMyAttempts(c.Context(), middleware.RequesterID(c))
	if err != nil {
		return err
	}
	return c.JSON(attempts)
}

// GetReview returns a completed attempt joined with questions and answers.
// @Summary Review a completed attempt
// @Tags results
// @Produce json
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} dto.ReviewResponse
// @Failure 403 {object} middleware.ErrorResponse "Attempt belongs to another account"
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /attempts/{attemptID}/review [get]
func (h *ResultHandler) GetReview(c *fiber.Ctx) error {
	review, err := h.resultService.GetReview(c.Context(), middleware.RequesterID(c), middleware.IsAdmin(c), c.Params("attemptID"))
	if err != nil {
		return err
	}
	return c.JSON(review)
}

// ListAttempts lists attempts across students with filters and paging.
// @Summary List attempts (admin)
// @Tags admin
// @Produce json
// @Param exam_id query string false "Filter by exam"
// @Param start_date query string false "Completed on or after (YYYY-MM-DD)"
// @Param end_date query string false "Completed on or before (YYYY-MM-DD)"
// @Param sort_by query string false "completed_at or percentage"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number, 1-based"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.AttemptListResponse
// @Security BearerAuth
// @Router /admin/attempts [get]
func (h *ResultHandler) ListAttempts(c *fiber.Ctx) error {
	filters := attemptFiltersFromQuery(c)
	pagination := paginationFromQuery(c)

	list, err := h.resultService.ListAttempts(c.Context(), filters, pagination)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GrantRetake soft-deletes a completed attempt so the student may retake.
// @Summary Grant a retake (admin)
// @Tags admin
// @Param attemptID path string true "Attempt ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/attempts/{attemptID} [delete]
func (h *ResultHandler) GrantRetake(c *fiber.Ctx) error {
	if err := h.resultService.GrantRetake(c.Context(), c.Params("attemptID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportResults downloads the filtered attempt listing as CSV.
// @Summary Export results as CSV (admin)
// @Tags admin
// @Produce text/csv
// @Param exam_id query string false "Filter by exam"
// @Success 200 {string} string "CSV payload"
// @Security BearerAuth
// @Router /admin/attempts/export [get]
func (h *ResultHandler) ExportResults(c *fiber.Ctx) error {
	out, err := h.resultService.ExportResultsCSV(c.Context(), attemptFiltersFromQuery(c))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", service.ExportFilename("exam-results")))
	return c.Send(out)
}

func attemptFiltersFromQuery(c *fiber.Ctx) domain.AttemptFilters {
	return domain.AttemptFilters{
		ExamID:    c.Query("exam_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
}

func paginationFromQuery(c *fiber.Ctx) dto.Pagination {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return dto.Pagination{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Page:   page,
	}
}
