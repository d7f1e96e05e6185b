package handler

import (
	"examroom/internal/dto"
	"examroom/internal/middleware"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler exposes the exam session lifecycle over HTTP.
type SessionHandler struct {
	sessionService service.SessionService
	validator      *validation.Validator
}

func NewSessionHandler(sessionService service.SessionService, validator *validation.Validator) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, validator: validator}
}

// StartSession opens a timed attempt on an exam.
// @Summary Start an exam session
// @Description Opens an attempt and returns the exam content without correct answers.
// @Tags sessions
// @Produce json
// @Param examID path string true "Exam ID"
// @Success 200 {object} dto.StartSessionResponse
// @Failure 404 {object} middleware.ErrorResponse "Exam not found or unpublished"
// @Failure 409 {object} middleware.ErrorResponse "Exam already completed"
// @Security BearerAuth
// @Router /exams/{examID}/sessions [post]
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	resp, err := h.sessionService.StartSession(c.Context(), middleware.RequesterID(c), c.Params("examID"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SelectAnswer records or overwrites one question's selection.
// @Summary Select an answer
// @Description Stores the selection in the server-side session; nothing is persisted until submit.
// @Tags sessions
// @Accept json
// @Param attemptID path string true "Attempt ID"
// @Param questionID path string true "Question ID"
// @Param request body dto.SelectAnswerRequest true "Selection; empty clears"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not active"
// @Security BearerAuth
// @Router /sessions/{attemptID}/answers/{questionID} [put]
func (h *SessionHandler) SelectAnswer(c *fiber.Ctx) error {
	var req dto.SelectAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	attemptID := c.Params("attemptID")
	questionID := c.Params("questionID")
	if errs := h.validator.ValidateSelectAnswerRequest(attemptID, questionID, req); len(errs) > 0 {
		return errs
	}

	err := h.sessionService.SelectAnswer(c.Context(), middleware.RequesterID(c), attemptID, questionID, req.Selected)
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetState returns the current session state for a reloaded client.
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} dto.SessionStateResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not active"
// @Security BearerAuth
// @Router /sessions/{attemptID} [get]
func (h *SessionHandler) GetState(c *fiber.Ctx) error {
	resp, err := h.sessionService.GetState(c.Context(), middleware.RequesterID(c), c.Params("attemptID"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Submit scores and persists the attempt.
// @Summary Submit an attempt
// @Description Scores whatever is selected and persists the result exactly once.
// @Tags sessions
// @Produce json
// @Param attemptID path string true "Attempt ID"
// @Success 200 {object} dto.SubmitResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not active"
// @Failure 409 {object} middleware.ErrorResponse "Submission already in progress"
// @Security BearerAuth
// @Router /sessions/{attemptID}/submit [post]
func (h *SessionHandler) Submit(c *fiber.Ctx) error {
	resp, err := h.sessionService.Submit(c.Context(), middleware.RequesterID(c), c.Params("attemptID"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
