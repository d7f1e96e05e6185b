package domain

import (
	"context"
	"time"
)

// ContactMessage is a simple inbox entity for visitor enquiries.
type ContactMessage struct {
	ID         string
	SenderName string
	Email      string
	Phone      string
	Body       string
	Read       bool
	CreatedAt  time.Time
}

// Validate validates the contact message
func (m *ContactMessage) Validate() error {
	if m.SenderName == "" {
		return NewInvalidInputError("sender name is required")
	}
	if m.Email == "" {
		return NewInvalidInputError("email is required")
	}
	if m.Body == "" {
		return NewInvalidInputError("message body is required")
	}
	return nil
}

// ContactRepository defines the interface for contact message persistence.
type ContactRepository interface {
	Create(ctx context.Context, msg *ContactMessage) error
	List(ctx context.Context, unreadOnly bool) ([]ContactMessage, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
