package handler

import (
	"examroom/internal/dto"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ContactHandler serves the public contact form and the admin inbox.
type ContactHandler struct {
	contactService service.ContactService
	validator      *validation.Validator
}

func NewContactHandler(contactService service.ContactService, validator *validation.Validator) *ContactHandler {
	return &ContactHandler{contactService: contactService, validator: validator}
}

// SubmitMessage accepts a public contact-form message.
// @Summary Submit contact message
// @Tags contact
// @Accept json
// @Produce json
// @Param request body dto.ContactMessageRequest true "Message payload"
// @Success 201 {object} dto.ContactMessageResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /contact [post]
func (h *ContactHandler) SubmitMessage(c *fiber.Ctx) error {
	var req dto.ContactMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateContactMessageRequest(req); len(errs) > 0 {
		return errs
	}

	resp, err := h.contactService.SubmitMessage(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListMessages lists contact messages for the admin inbox.
// @Summary List contact messages (admin)
// @Tags admin
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Success 200 {array} dto.ContactMessageResponse
// @Security BearerAuth
// @Router /admin/contact [get]
func (h *ContactHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.contactService.ListMessages(c.Context(), c.QueryBool("unread"))
	if err != nil {
		return err
	}
	return c.JSON(messages)
}

// MarkRead marks one message as read.
// @Summary Mark contact message read (admin)
// @Tags admin
// @Param messageID path string true "Message ID"
// @Success 204 {string} string "No Content"
// @Security BearerAuth
// @Router /admin/contact/{messageID}/read [post]
func (h *ContactHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.contactService.MarkRead(c.Context(), c.Params("messageID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteMessage removes a message from the inbox.
// @Summary Delete contact message (admin)
// @Tags admin
// @Param messageID path string true "Message ID"
// @Success 204 {string} string "No Content"
// @Security BearerAuth
// @Router /admin/contact/{messageID} [delete]
func (h *ContactHandler) DeleteMessage(c *fiber.Ctx) error {
	if err := h.contactService.DeleteMessage(c.Context(), c.Params("messageID")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
