package models

import (
	"database/sql"
	"time"
)

// Attempt mirrors the ATTEMPTS table.
type Attempt struct {
	ID             string          `db:"ID"`
	AccountID      string          `db:"ACCOUNT_ID"`
	ExamID         string          `db:"EXAM_ID"`
	StartedAt      time.Time       `db:"STARTED_AT"`
	CompletedAt    sql.NullTime    `db:"COMPLETED_AT"`
	TotalQuestions int             `db:"TOTAL_QUESTIONS"`
	CorrectCount   sql.NullInt64   `db:"CORRECT_COUNT"`
	Percentage     sql.NullFloat64 `db:"PERCENTAGE"`
	ElapsedSeconds sql.NullInt64   `db:"ELAPSED_SECONDS"`
	CreatedAt      time.Time       `db:"CREATED_AT"`
	UpdatedAt      time.Time       `db:"UPDATED_AT"`
	DeletedAt      sql.NullTime    `db:"DELETED_AT"`
}

// Answer mirrors the ANSWERS table.
type Answer struct {
	ID         string         `db:"ID"`
	AttemptID  string         `db:"ATTEMPT_ID"`
	QuestionID string         `db:"QUESTION_ID"`
	Selected   sql.NullString `db:"SELECTED"`
	IsCorrect  sql.NullInt64  `db:"IS_CORRECT"`
	CreatedAt  time.Time      `db:"CREATED_AT"`
}

// ContactMessage mirrors the CONTACT_MESSAGES table.
type ContactMessage struct {
	ID         string         `db:"ID"`
	SenderName string         `db:"SENDER_NAME"`
	Email      string         `db:"EMAIL"`
	Phone      sql.NullString `db:"PHONE"`
	Body       string         `db:"BODY"`
	IsRead     int            `db:"IS_READ"`
	CreatedAt  time.Time      `db:"CREATED_AT"`
}
