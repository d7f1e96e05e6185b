package models

import (
	"database/sql"
	"time"
)

// Exam mirrors the EXAMS table.
type Exam struct {
	ID              string       `db:"ID"`
	Title           string       `db:"TITLE"`
	Description     sql.NullString `db:"DESCRIPTION"`
	DurationMinutes int          `db:"DURATION_MINUTES"`
	PassingScore    int          `db:"PASSING_SCORE"`
	Published       int          `db:"PUBLISHED"`
	OwnerID         string       `db:"OWNER_ID"`
	CreatedAt       time.Time    `db:"CREATED_AT"`
	UpdatedAt       time.Time    `db:"UPDATED_AT"`
	DeletedAt       sql.NullTime `db:"DELETED_AT"`
}

// Passage mirrors the PASSAGES table.
type Passage struct {
	ID         string         `db:"ID"`
	ExamID     string         `db:"EXAM_ID"`
	Title      sql.NullString `db:"TITLE"`
	Body       string         `db:"BODY"`
	ImageURL   sql.NullString `db:"IMAGE_URL"`
	OrderIndex int            `db:"ORDER_INDEX"`
	CreatedAt  time.Time      `db:"CREATED_AT"`
	UpdatedAt  time.Time      `db:"UPDATED_AT"`
}

// Question mirrors the QUESTIONS table.
type Question struct {
	ID            string         `db:"ID"`
	ExamID        string         `db:"EXAM_ID"`
	PassageID     sql.NullString `db:"PASSAGE_ID"`
	Text          string         `db:"TEXT"`
	ImageURL      sql.NullString `db:"IMAGE_URL"`
	OptionA       sql.NullString `db:"OPTION_A"`
	OptionB       sql.NullString `db:"OPTION_B"`
	OptionC       sql.NullString `db:"OPTION_C"`
	OptionD       sql.NullString `db:"OPTION_D"`
	CorrectAnswer string         `db:"CORRECT_ANSWER"`
	OrderIndex    int            `db:"ORDER_INDEX"`
	CreatedAt     time.Time      `db:"CREATED_AT"`
	UpdatedAt     time.Time      `db:"UPDATED_AT"`
}
