package handler

import (
	"fmt"

	"examroom/internal/dto"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const maxImportUploadBytes = 1 << 20 // 1 MiB of CSV is thousands of rows

// StudentHandler covers admin-side student account management and the bulk
// CSV import surface.
type StudentHandler struct {
	accountService service.AccountService
	importService  service.ImportService
	validator      *validation.Validator
}

func NewStudentHandler(accountService service.AccountService, importService service.ImportService, validator *validation.Validator) *StudentHandler {
	return &StudentHandler{
		accountService: accountService,
		importService:  importService,
		validator:      validator,
	}
}

// CreateStudent creates one student account.
// @Summary Create student (admin)
// @Description Allocates a login code and returns it for hand-out.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} dto.CreateStudentResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/students [post]
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	var req dto.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.accountService.CreateStudent(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListStudents lists student accounts, optionally by class.
// @Summary List students (admin)
// @Tags admin
// @Produce json
// @Param class query string false "Filter by class name"
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /admin/students [get]
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	students, err := h.accountService.ListStudents(c.Context(), c.Query("class"))
	if err != nil {
		return err
	}
	return c.JSON(students)
}

// GetStudent returns one student account.
// @Summary Get student (admin)
// @Tags admin
// @Produce json
// @Param studentID path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/students/{studentID} [get]
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	student, err := h.accountService.GetStudent(c.Context(), c.Params("studentID"))
	if err != nil {
		return err
	}
	return c.JSON(student)
}

// UpdateStudent edits one student account.
// @Summary Update student (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param studentID path string true "Account ID"
// @Param request body dto.UpdateStudentRequest true "Student payload"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/students/{studentID} [put]
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.accountService.UpdateStudent(c.Context(), c.Params("studentID"), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteStudent removes a student account and releases its device binding.
// @Summary Delete student (admin)
// @Tags admin
// @Param studentID path string true "Account ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/students/{studentID} [delete]
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	if err := h.accountService.DeleteStudent(c.Context(), c.Params("studentID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResetDevice releases a student's device binding.
// @Summary Reset device binding (admin)
// @Description Lets the student log in from a new device.
// @Tags admin
// @Param studentID path string true "Account ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/students/{studentID}/device [delete]
func (h *StudentHandler) ResetDevice(c *fiber.Ctx) error {
	if err := h.accountService.ResetDevice(c.Context(), c.Params("studentID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ImportStudents bulk-imports students from an uploaded CSV file.
// @Summary Import students from CSV (admin)
// @Description Best-effort batch; every row gets its own outcome.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param default_class formData string false "Class applied when the CSV has no class column"
// @Success 200 {object} dto.ImportResultResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Security BearerAuth
// @Router /admin/students/import [post]
func (h *StudentHandler) ImportStudents(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}
	if errs := h.validator.ValidateCSVUpload(fileHeader.Filename, fileHeader.Size, maxImportUploadBytes); len(errs) > 0 {
		return errs
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read upload")
	}
	defer file.Close()

	result, err := h.importService.ImportStudents(c.Context(), file, c.FormValue("default_class"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ImportTemplate downloads the CSV import template.
// @Summary Download import template (admin)
// @Tags admin
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Security BearerAuth
// @Router /admin/students/import/template [get]
func (h *StudentHandler) ImportTemplate(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="import-template.csv"`)
	return c.Send(h.importService.TemplateCSV())
}

// ExportImportResults renders an import report as CSV.
// @Summary Export import results as CSV (admin)
// @Tags admin
// @Accept json
// @Produce text/csv
// @Param request body dto.ImportResultResponse true "Import report"
// @Success 200 {string} string "CSV payload"
// @Security BearerAuth
// @Router /admin/students/import/export [post]
func (h *StudentHandler) ExportImportResults(c *fiber.Ctx) error {
	var report dto.ImportResultResponse
	if err := c.BodyParser(&report); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	out, err := h.importService.ResultsCSV(&report)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", service.ExportFilename("import-results")))
	return c.Send(out)
}
