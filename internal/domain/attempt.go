package domain

import (
	"context"
	"time"
)

// Attempt is one student's timed pass at one exam. A null CompletedAt means
// the attempt is still in progress; a completed attempt is immutable.
type Attempt struct {
	ID             string
	AccountID      string
	ExamID         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	TotalQuestions int
	CorrectCount   *int
	Percentage     *float64
	ElapsedSeconds *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// NewAttempt creates an in-progress attempt with a question-count snapshot.
func NewAttempt(accountID, examID string, totalQuestions int) *Attempt {
	now := time.Now()
	return &Attempt{
		AccountID:      accountID,
		ExamID:         examID,
		StartedAt:      now,
		TotalQuestions: totalQuestions,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsCompleted reports whether the attempt has been scored and persisted.
func (a *Attempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// Answer is one question's recorded selection within an attempt. Answers are
// written in a single batch at submission time and never updated.
type Answer struct {
	ID         string
	AttemptID  string
	QuestionID string
	Selected   string // empty when unanswered
	IsCorrect  *bool
	CreatedAt  time.Time
}

// AttemptFilters narrows admin attempt listings. Pass/fail is derived from
// the exam's passing score at render time, so it is not a stored filter.
type AttemptFilters struct {
	ExamID    string
	StartDate string
	EndDate   string
	SortBy    string
	SortOrder string
}

// AttemptRepository defines the interface for attempt and answer persistence.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *Attempt) error
	GetAttemptByID(ctx context.Context, id string) (*Attempt, error)
	// GetCompletedAttempt returns the completed attempt for (account, exam),
	// or nil when none exists. Retake-granted (deleted) attempts are ignored.
	GetCompletedAttempt(ctx context.Context, accountID, examID string) (*Attempt, error)
	GetAttemptsByAccountID(ctx context.Context, accountID string) ([]Attempt, error)
	ListAttempts(ctx context.Context, filters AttemptFilters, limit, offset int) ([]Attempt, int, error)
	// CompleteAttempt sets the completion columns. It must only be called on
	// an in-progress attempt and is expected to run inside a transaction
	// together with CreateAnswers.
	CompleteAttempt(ctx context.Context, attempt *Attempt) error
	// DeleteAttempt soft-deletes a completed attempt (retake grant).
	DeleteAttempt(ctx context.Context, id string) error
	DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int, error)

	CreateAnswers(ctx context.Context, answers []Answer) error
	GetAnswersByAttemptID(ctx context.Context, attemptID string) ([]Answer, error)
}

// TransactionManager runs a function inside a database transaction. The
// repositories pick the transaction up from the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
