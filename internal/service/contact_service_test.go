package service

import (
	"context"
	"testing"

	"examroom/internal/domain"
	"examroom/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSubmitMessage_Success(t *testing.T) {
	contactRepo := new(MockContactRepository)
	contactRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.ContactMessage) bool {
		return m.SenderName == "Jane Visitor" && m.ID != ""
	})).Return(nil)

	svc := NewContactService(contactRepo)

	resp, err := svc.SubmitMessage(context.Background(), dto.ContactMessageRequest{
		SenderName: "  Jane Visitor ",
		Email:      "jane@example.com",
		Body:       "Hello there",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Jane Visitor", resp.SenderName)
	contactRepo.AssertExpectations(t)
}

func TestSubmitMessage_RejectsEmptyBody(t *testing.T) {
	svc := NewContactService(new(MockContactRepository))
	_, err := svc.SubmitMessage(context.Background(), dto.ContactMessageRequest{
		SenderName: "Jane Visitor",
		Email:      "jane@example.com",
	})
	assert.Error(t, err)
}

func TestListMessages_UnreadOnly(t *testing.T) {
	contactRepo := new(MockContactRepository)
	contactRepo.On("List", mock.Anything, true).Return([]domain.ContactMessage{
		{ID: "msg1", SenderName: "Jane Visitor", Email: "jane@example.com", Body: "Hi"},
	}, nil)

	svc := NewContactService(contactRepo)
	messages, err := svc.ListMessages(context.Background(), true)
	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.False(t, messages[0].Read)
}
