package service

import (
	"context"
	"strings"
	"time"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/util"

	"go.uber.org/zap"
)

// ContactService handles visitor enquiries from the public contact form.
type ContactService interface {
	SubmitMessage(ctx context.Context, req dto.ContactMessageRequest) (*dto.ContactMessageResponse, error)
	ListMessages(ctx context.Context, unreadOnly bool) ([]dto.ContactMessageResponse, error)
	MarkRead(ctx context.Context, id string) error
	DeleteMessage(ctx context.Context, id string) error
}

type contactServiceImpl struct {
	contactRepo domain.ContactRepository
}

// NewContactService creates a new instance of ContactService.
func NewContactService(contactRepo domain.ContactRepository) ContactService {
	return &contactServiceImpl{contactRepo: contactRepo}
}

func (s *contactServiceImpl) SubmitMessage(ctx context.Context, req dto.ContactMessageRequest) (*dto.ContactMessageResponse, error) {
	msg := &domain.ContactMessage{
		ID:         util.NewULID(),
		SenderName: strings.TrimSpace(req.SenderName),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Body:       strings.TrimSpace(req.Body),
		CreatedAt:  time.Now(),
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, domain.NewInternalError("failed to store contact message", err)
	}
	logger.Get().Info("Contact message received", zap.String("messageID", msg.ID))
	resp := toContactResponse(msg)
	return &resp, nil
}

func (s *contactServiceImpl) ListMessages(ctx context.Context, unreadOnly bool) ([]dto.ContactMessageResponse, error) {
	messages, err := s.contactRepo.List(ctx, unreadOnly)
	if err != nil {
		return nil, domain.NewInternalError("failed to list contact messages", err)
	}
	responses := make([]dto.ContactMessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, toContactResponse(&messages[i]))
	}
	return responses, nil
}

func (s *contactServiceImpl) MarkRead(ctx context.Context, id string) error {
	return s.contactRepo.MarkRead(ctx, id)
}

func (s *contactServiceImpl) DeleteMessage(ctx context.Context, id string) error {
	return s.contactRepo.Delete(ctx, id)
}

func toContactResponse(m *domain.ContactMessage) dto.ContactMessageResponse {
	return dto.ContactMessageResponse{
		ID:         m.ID,
		SenderName: m.SenderName,
		Email:      m.Email,
		Phone:      m.Phone,
		Body:       m.Body,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}
