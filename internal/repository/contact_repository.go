package repository

import (
	"context"
	"fmt"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"
	"examroom/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxContactRepository implements domain.ContactRepository using sqlx.
type sqlxContactRepository struct {
	db *sqlx.DB
}

// NewSQLXContactRepository creates a new instance of sqlxContactRepository.
func NewSQLXContactRepository(db *sqlx.DB) domain.ContactRepository {
	return &sqlxContactRepository{db: db}
}

// Create inserts a new contact message.
func (r *sqlxContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `INSERT INTO contact_messages (ID, SENDER_NAME, EMAIL, PHONE, BODY, IS_READ, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, 0, :6)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		msg.ID,
		msg.SenderName,
		msg.Email,
		util.StringToNullString(msg.Phone),
		msg.Body,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

// List returns contact messages, newest first.
func (r *sqlxContactRepository) List(ctx context.Context, unreadOnly bool) ([]domain.ContactMessage, error) {
	query := `SELECT ID, SENDER_NAME, EMAIL, PHONE, BODY, IS_READ, CREATED_AT FROM contact_messages`
	if unreadOnly {
		query += " WHERE IS_READ = 0"
	}
	query += " ORDER BY CREATED_AT DESC"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(
			&m.ID,
			&m.SenderName,
			&m.Email,
			&m.Phone,
			&m.Body,
			&m.IsRead,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		messages = append(messages, domain.ContactMessage{
			ID:         m.ID,
			SenderName: m.SenderName,
			Email:      m.Email,
			Phone:      m.Phone.String,
			Body:       m.Body,
			Read:       m.IsRead == 1,
			CreatedAt:  m.CreatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a message as read.
func (r *sqlxContactRepository) MarkRead(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `UPDATE contact_messages SET IS_READ = 1 WHERE ID = :1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark contact message read: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("contact message not found: %s", id))
	}
	return nil
}

// Delete removes a message.
func (r *sqlxContactRepository) Delete(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `DELETE FROM contact_messages WHERE ID = :1`, id); err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	return nil
}
