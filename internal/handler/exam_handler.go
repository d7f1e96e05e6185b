package handler

import (
	"examroom/internal/dto"
	"examroom/internal/middleware"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ExamHandler serves the exam catalogue to students and the full authoring
// surface to administrators.
type ExamHandler struct {
	examService service.ExamService
	validator   *validation.Validator
}

func NewExamHandler(examService service.ExamService, validator *validation.Validator) *ExamHandler {
	return &ExamHandler{examService: examService, validator: validator}
}

// ListPublishedExams lists exams a student may take.
// @Summary List published exams
// @Tags exams
// @Produce json
// @Success 200 {array} dto.ExamResponse
// @Security BearerAuth
// @Router /exams [get]
func (h *ExamHandler) ListPublishedExams(c *fiber.Ctx) error {
	exams, err := h.examService.ListExams(c.Context(), true)
	if err != nil {
		return err
	}
	return c.JSON(exams)
}

// ListAllExams lists every exam, published or not.
// @Summary List all exams (admin)
// @Tags admin
// @Produce json
// @Success 200 {array} dto.ExamResponse
// @Security BearerAuth
// @Router /admin/exams [get]
func (h *ExamHandler) ListAllExams(c *fiber.Ctx) error {
	exams, err := h.examService.ListExams(c.Context(), false)
	if err != nil {
		return err
	}
	return c.JSON(exams)
}

// GetExam returns one exam with its question count.
// @Summary Get exam (admin)
// @Tags admin
// @Produce json
// @Param examID path string true "Exam ID"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/exams/{examID} [get]
func (h *ExamHandler) GetExam(c *fiber.Ctx) error {
	exam, err := h.examService.GetExam(c.Context(), c.Params("examID"))
	if err != nil {
		return err
	}
	return c.JSON(exam)
}

// CreateExam creates an exam.
// @Summary Create exam (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.ExamRequest true "Exam payload"
// @Success 201 {object} dto.ExamResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Security BearerAuth
// @Router /admin/exams [post]
func (h *ExamHandler) CreateExam(c *fiber.Ctx) error {
	var req dto.ExamRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateExamRequest(req); len(errs) > 0 {
		return errs
	}

	exam, err := h.examService.CreateExam(c.Context(), middleware.RequesterID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(exam)
}

// UpdateExam updates an exam, including its published flag.
// @Summary Update exam (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param examID path string true "Exam ID"
// @Param request body dto.ExamRequest true "Exam payload"
// @Success 200 {object} dto.ExamResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/exams/{examID} [put]
func (h *ExamHandler) UpdateExam(c *fiber.Ctx) error {
	var req dto.ExamRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateExamRequest(req); len(errs) > 0 {
		return errs
	}

	exam, err := h.examService.UpdateExam(c.Context(), c.Params("examID"), req)
	if err != nil {
		return err
	}
	return c.JSON(exam)
}

// DeleteExam deletes an exam and everything hanging off it.
// @Summary Delete exam (admin)
// @Description Cascades to questions, passages, attempts and answers.
// @Tags admin
// @Param examID path string true "Exam ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/exams/{examID} [delete]
func (h *ExamHandler) DeleteExam(c *fiber.Ctx) error {
	if err := h.examService.DeleteExam(c.Context(), c.Params("examID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListQuestions lists an exam's questions with correct answers.
// @Summary List questions (admin)
// @Tags admin
// @Produce json
// @Param examID path string true "Exam ID"
// @Success 200 {array} dto.QuestionResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/questions [get]
func (h *ExamHandler) ListQuestions(c *fiber.Ctx) error {
	questions, err := h.examService.ListQuestions(c.Context(), c.Params("examID"))
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// CreateQuestion adds a question to an exam.
// @Summary Create question (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param examID path string true "Exam ID"
// @Param request body dto.QuestionRequest true "Question payload"
// @Success 201 {object} dto.QuestionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/questions [post]
func (h *ExamHandler) CreateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateQuestionRequest(req); len(errs) > 0 {
		return errs
	}

	question, err := h.examService.CreateQuestion(c.Context(), c.Params("examID"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// UpdateQuestion updates a question.
// @Summary Update question (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param examID path string true "Exam ID"
// @Param questionID path string true "Question ID"
// @Param request body dto.QuestionRequest true "Question payload"
// @Success 200 {object} dto.QuestionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/questions/{questionID} [put]
func (h *ExamHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateQuestionRequest(req); len(errs) > 0 {
		return errs
	}

	question, err := h.examService.UpdateQuestion(c.Context(), c.Params("examID"), c.Params("questionID"), req)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// DeleteQuestion removes a question.
// @Summary Delete question (admin)
// @Tags admin
// @Param examID path string true "Exam ID"
// @Param questionID path string true "Question ID"
// @Success 204 {string} string "No Content"
// @Security BearerAuth
// @Router /admin/exams/{examID}/questions/{questionID} [delete]
func (h *ExamHandler) DeleteQuestion(c *fiber.Ctx) error {
	if err := h.examService.DeleteQuestion(c.Context(), c.Params("examID"), c.Params("questionID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPassages lists an exam's passages.
// @Summary List passages (admin)
// @Tags admin
// @Produce json
// @Param examID path string true "Exam ID"
// @Success 200 {array} dto.PassageResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/passages [get]
func (h *ExamHandler) ListPassages(c *fiber.Ctx) error {
	passages, err := h.examService.ListPassages(c.Context(), c.Params("examID"))
	if err != nil {
		return err
	}
	return c.JSON(passages)
}

// CreatePassage adds a passage to an exam.
// @Summary Create passage (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param examID path string true "Exam ID"
// @Param request body dto.PassageRequest true "Passage payload"
// @Success 201 {object} dto.PassageResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/passages [post]
func (h *ExamHandler) CreatePassage(c *fiber.Ctx) error {
	var req dto.PassageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	passage, err := h.examService.CreatePassage(c.Context(), c.Params("examID"), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(passage)
}

// UpdatePassage updates a passage.
// @Summary Update passage (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param examID path string true "Exam ID"
// @Param passageID path string true "Passage ID"
// @Param request body dto.PassageRequest true "Passage payload"
// @Success 200 {object} dto.PassageResponse
// @Security BearerAuth
// @Router /admin/exams/{examID}/passages/{passageID} [put]
func (h *ExamHandler) UpdatePassage(c *fiber.Ctx) error {
	var req dto.PassageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	passage, err := h.examService.UpdatePassage(c.Context(), c.Params("examID"), c.Params("passageID"), req)
	if err != nil {
		return err
	}
	return c.JSON(passage)
}

// DeletePassage removes a passage; its questions become standalone.
// @Summary Delete passage (admin)
// @Tags admin
// @Param examID path string true "Exam ID"
// @Param passageID path string true "Passage ID"
// @Success 204 {string} string "No Content"
// @Security BearerAuth
// @Router /admin/exams/{examID}/passages/{passageID} [delete]
func (h *ExamHandler) DeletePassage(c *fiber.Ctx) error {
	if err := h.examService.DeletePassage(c.Context(), c.Params("examID"), c.Params("passageID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
