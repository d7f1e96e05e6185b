package domain

import (
	"context"
	"time"
)

// AnswerLetter identifies one of up to four options on a question.
type AnswerLetter = string

const (
	LetterA AnswerLetter = "A"
	LetterB AnswerLetter = "B"
	LetterC AnswerLetter = "C"
	LetterD AnswerLetter = "D"
)

// Exam is the authoring aggregate root. Questions and passages hang off it.
type Exam struct {
	ID              string
	Title           string
	Description     string
	DurationMinutes int
	PassingScore    int // percentage, 0-100
	Published       bool
	OwnerID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// NewExam creates a new Exam instance
func NewExam(title, description string, durationMinutes, passingScore int, ownerID string) *Exam {
	now := time.Now()
	return &Exam{
		Title:           title,
		Description:     description,
		DurationMinutes: durationMinutes,
		PassingScore:    passingScore,
		OwnerID:         ownerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate validates the exam
func (e *Exam) Validate() error {
	if e.Title == "" {
		return NewInvalidInputError("title is required")
	}
	if e.DurationMinutes <= 0 {
		return NewInvalidInputError("duration must be a positive number of minutes")
	}
	if e.PassingScore < 0 || e.PassingScore > 100 {
		return NewInvalidInputError("passing score must be between 0 and 100")
	}
	return nil
}

// Passage is a shared reading text that zero or more questions reference.
type Passage struct {
	ID         string
	ExamID     string
	Title      string
	Body       string
	ImageURL   string
	OrderIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate validates the passage
func (p *Passage) Validate() error {
	if p.ExamID == "" {
		return NewInvalidInputError("exam ID is required")
	}
	if p.Body == "" {
		return NewInvalidInputError("passage body is required")
	}
	return nil
}

// Question is a multiple-choice question. Two, three or four options are
// populated depending on the question type; unused options stay empty.
type Question struct {
	ID            string
	ExamID        string
	PassageID     string // empty for a standalone question
	Text          string
	ImageURL      string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectAnswer AnswerLetter
	OrderIndex    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Options returns the populated option texts keyed by letter.
func (q *Question) Options() map[AnswerLetter]string {
	opts := make(map[AnswerLetter]string, 4)
	for letter, text := range map[AnswerLetter]string{
		LetterA: q.OptionA,
		LetterB: q.OptionB,
		LetterC: q.OptionC,
		LetterD: q.OptionD,
	} {
		if text != "" {
			opts[letter] = text
		}
	}
	return opts
}

// HasOption reports whether the given letter references a populated option.
func (q *Question) HasOption(letter AnswerLetter) bool {
	_, ok := q.Options()[letter]
	return ok
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.ExamID == "" {
		return NewInvalidInputError("exam ID is required")
	}
	if q.Text == "" {
		return NewInvalidInputError("question text is required")
	}
	opts := q.Options()
	if len(opts) < 2 {
		return NewInvalidInputError("at least two options are required")
	}
	if !q.HasOption(q.CorrectAnswer) {
		return NewInvalidInputError("correct answer must reference a populated option")
	}
	return nil
}

// ExamRepository defines the interface for exam aggregate persistence.
type ExamRepository interface {
	CreateExam(ctx context.Context, exam *Exam) error
	GetExamByID(ctx context.Context, id string) (*Exam, error)
	ListExams(ctx context.Context, publishedOnly bool) ([]Exam, error)
	UpdateExam(ctx context.Context, exam *Exam) error
	// DeleteExam removes the exam and cascades to its questions, passages,
	// attempts and answers. Callers run it inside a transaction.
	DeleteExam(ctx context.Context, id string) error

	CreateQuestion(ctx context.Context, question *Question) error
	GetQuestionsByExamID(ctx context.Context, examID string) ([]Question, error)
	UpdateQuestion(ctx context.Context, question *Question) error
	DeleteQuestion(ctx context.Context, id string) error

	CreatePassage(ctx context.Context, passage *Passage) error
	GetPassagesByExamID(ctx context.Context, examID string) ([]Passage, error)
	UpdatePassage(ctx context.Context, passage *Passage) error
	DeletePassage(ctx context.Context, id string) error
}
