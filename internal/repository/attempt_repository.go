package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"
	"examroom/internal/util"

	"github.com/jmoiron/sqlx"
)

const attemptColumns = "ID, ACCOUNT_ID, EXAM_ID, STARTED_AT, COMPLETED_AT, TOTAL_QUESTIONS, CORRECT_COUNT, PERCENTAGE, ELAPSED_SECONDS, CREATED_AT, UPDATED_AT, DELETED_AT"

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.Attempt) *domain.Attempt {
	if m == nil {
		return nil
	}
	a := &domain.Attempt{
		ID:             m.ID,
		AccountID:      m.AccountID,
		ExamID:         m.ExamID,
		StartedAt:      m.StartedAt,
		TotalQuestions: m.TotalQuestions,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.CompletedAt.Valid {
		a.CompletedAt = &m.CompletedAt.Time
	}
	if m.CorrectCount.Valid {
		v := int(m.CorrectCount.Int64)
		a.CorrectCount = &v
	}
	if m.Percentage.Valid {
		v := m.Percentage.Float64
		a.Percentage = &v
	}
	if m.ElapsedSeconds.Valid {
		v := int(m.ElapsedSeconds.Int64)
		a.ElapsedSeconds = &v
	}
	if m.DeletedAt.Valid {
		a.DeletedAt = &m.DeletedAt.Time
	}
	return a
}

func scanAttempt(scan func(dest ...interface{}) error) (*models.Attempt, error) {
	var m models.Attempt
	err := scan(
		&m.ID,
		&m.AccountID,
		&m.ExamID,
		&m.StartedAt,
		&m.CompletedAt,
		&m.TotalQuestions,
		&m.CorrectCount,
		&m.Percentage,
		&m.ElapsedSeconds,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateAttempt inserts a new in-progress attempt.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.Attempt) error {
	now := time.Now()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = now
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = now
	}
	attempt.UpdatedAt = now

	query := `INSERT INTO attempts (` + attemptColumns + `)
	          VALUES (:1, :2, :3, :4, NULL, :5, NULL, NULL, NULL, :6, :7, NULL)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		attempt.ID,
		attempt.AccountID,
		attempt.ExamID,
		attempt.StartedAt,
		attempt.TotalQuestions,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetAttemptByID retrieves an attempt by ID, retake-granted ones excluded.
func (r *sqlxAttemptRepository) GetAttemptByID(ctx context.Context, id string) (*domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE ID = :1 AND DELETED_AT IS NULL`

	executor := GetExecutor(ctx, r.db)
	m, err := scanAttempt(executor.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return toDomainAttempt(m), nil
}

// GetCompletedAttempt returns the completed attempt for (account, exam), or
// nil when none exists. This is the re-entry block check.
func (r *sqlxAttemptRepository) GetCompletedAttempt(ctx context.Context, accountID, examID string) (*domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts
	          WHERE ACCOUNT_ID = :1 AND EXAM_ID = :2 AND COMPLETED_AT IS NOT NULL AND DELETED_AT IS NULL
	          ORDER BY COMPLETED_AT DESC FETCH FIRST 1 ROWS ONLY`

	executor := GetExecutor(ctx, r.db)
	m, err := scanAttempt(executor.QueryRowContext(ctx, query, accountID, examID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get completed attempt: %w", err)
	}
	return toDomainAttempt(m), nil
}

// GetAttemptsByAccountID returns a student's completed attempts, newest first.
func (r *sqlxAttemptRepository) GetAttemptsByAccountID(ctx context.Context, accountID string) ([]domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts
	          WHERE ACCOUNT_ID = :1 AND COMPLETED_AT IS NOT NULL AND DELETED_AT IS NULL
	          ORDER BY COMPLETED_AT DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		m, err := scanAttempt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, *toDomainAttempt(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}
	return attempts, nil
}

// buildAttemptsQuery constructs the SELECT and COUNT queries for admin
// attempt listings. Oracle compatibility: ROW_NUMBER with positional binds.
func buildAttemptsQuery(filters domain.AttemptFilters, limit, offset int) (string, string, []interface{}) {
	var args []interface{}
	whereClauses := []string{"a.deleted_at IS NULL", "a.completed_at IS NOT NULL"}
	argIndex := 1

	if filters.ExamID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.exam_id = :%d", argIndex))
		args = append(args, filters.ExamID)
		argIndex++
	}
	if filters.StartDate != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("a.completed_at >= :%d", argIndex))
		args = append(args, filters.StartDate)
		argIndex++
	}
	if filters.EndDate != "" {
		if parsedEndDate, err := time.Parse("2006-01-02", filters.EndDate); err == nil {
			whereClauses = append(whereClauses, fmt.Sprintf("a.completed_at <= :%d", argIndex))
			args = append(args, parsedEndDate.Add(24*time.Hour-time.Nanosecond))
		} else {
			whereClauses = append(whereClauses, fmt.Sprintf("a.completed_at <= :%d", argIndex))
			args = append(args, filters.EndDate)
		}
		argIndex++
	}

	queryWhere := "WHERE " + strings.Join(whereClauses, " AND ")

	orderBy := "a.completed_at DESC"
	if filters.SortBy != "" {
		allowedSortFields := map[string]string{"completed_at": "a.completed_at", "percentage": "a.percentage"}
		if dbSortField, ok := allowedSortFields[filters.SortBy]; ok {
			orderBy = dbSortField
			if strings.EqualFold(filters.SortOrder, "ASC") {
				orderBy += " ASC"
			} else {
				orderBy += " DESC"
			}
		}
	}

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	innerQuery := fmt.Sprintf("SELECT a.*, ROW_NUMBER() OVER (ORDER BY %s) as rn FROM attempts a %s", orderBy, queryWhere)
	resultsQuery := fmt.Sprintf("SELECT * FROM (%s) WHERE rn > %d AND rn <= %d", innerQuery, offset, offset+limit)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attempts a %s", queryWhere)

	return resultsQuery, countQuery, args
}

// ListAttempts retrieves a paginated list of completed attempts with filters.
func (r *sqlxAttemptRepository) ListAttempts(ctx context.Context, filters domain.AttemptFilters, limit, offset int) ([]domain.Attempt, int, error) {
	resultsQuery, countQuery, args := buildAttemptsQuery(filters, limit, offset)

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, resultsQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query for ListAttempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var m models.Attempt
		var rn int // ROW_NUMBER() column
		if err := rows.Scan(
			&m.ID,
			&m.AccountID,
			&m.ExamID,
			&m.StartedAt,
			&m.CompletedAt,
			&m.TotalQuestions,
			&m.CorrectCount,
			&m.Percentage,
			&m.ElapsedSeconds,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.DeletedAt,
			&rn,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, *toDomainAttempt(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attempts: %w", err)
	}

	var total int
	if err := executor.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	return attempts, total, nil
}

// CompleteAttempt writes the completion columns for an in-progress attempt.
// The DELETED_AT and COMPLETED_AT guards make a double completion a no-op at
// the row level; the caller treats 0 affected rows as a conflict.
func (r *sqlxAttemptRepository) CompleteAttempt(ctx context.Context, attempt *domain.Attempt) error {
	attempt.UpdatedAt = time.Now()

	query := `UPDATE attempts
	          SET COMPLETED_AT = :1, CORRECT_COUNT = :2, PERCENTAGE = :3, ELAPSED_SECONDS = :4, UPDATED_AT = :5
	          WHERE ID = :6 AND COMPLETED_AT IS NULL AND DELETED_AT IS NULL`

	var completedAt sql.NullTime
	if attempt.CompletedAt != nil {
		completedAt = util.TimeToNullTime(*attempt.CompletedAt)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		completedAt,
		util.IntPtrToNullInt64(attempt.CorrectCount),
		util.Float64PtrToNullFloat64(attempt.Percentage),
		util.IntPtrToNullInt64(attempt.ElapsedSeconds),
		attempt.UpdatedAt,
		attempt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete attempt: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewError(domain.CodeSubmitInProgress,
			fmt.Sprintf("attempt %s is not in progress", attempt.ID), nil)
	}
	return nil
}

// DeleteAttempt soft-deletes a completed attempt (retake grant).
func (r *sqlxAttemptRepository) DeleteAttempt(ctx context.Context, id string) error {
	query := `UPDATE attempts SET DELETED_AT = :1 WHERE ID = :2 AND DELETED_AT IS NULL`
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewAttemptNotFoundError(id)
	}
	return nil
}

// DeleteAbandonedBefore soft-deletes in-progress attempts started before the
// cutoff. Used by the session janitor.
func (r *sqlxAttemptRepository) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `UPDATE attempts SET DELETED_AT = :1
	          WHERE COMPLETED_AT IS NULL AND DELETED_AT IS NULL AND STARTED_AT < :2`
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, time.Now(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete abandoned attempts: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

// CreateAnswers inserts the attempt's answers in one batch.
func (r *sqlxAttemptRepository) CreateAnswers(ctx context.Context, answers []domain.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	query := `INSERT INTO answers (ID, ATTEMPT_ID, QUESTION_ID, SELECTED, IS_CORRECT, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6)`

	executor := GetExecutor(ctx, r.db)
	now := time.Now()
	for _, answer := range answers {
		createdAt := answer.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		var isCorrect sql.NullInt64
		if answer.IsCorrect != nil {
			isCorrect = sql.NullInt64{Int64: int64(boolToInt(*answer.IsCorrect)), Valid: true}
		}
		if _, err := executor.ExecContext(ctx, query,
			answer.ID,
			answer.AttemptID,
			answer.QuestionID,
			util.StringToNullString(answer.Selected),
			isCorrect,
			createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert answer for question %s: %w", answer.QuestionID, err)
		}
	}
	return nil
}

// GetAnswersByAttemptID returns the attempt's answers.
func (r *sqlxAttemptRepository) GetAnswersByAttemptID(ctx context.Context, attemptID string) ([]domain.Answer, error) {
	query := `SELECT ID, ATTEMPT_ID, QUESTION_ID, SELECTED, IS_CORRECT, CREATED_AT
	          FROM answers WHERE ATTEMPT_ID = :1`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var m models.Answer
		if err := rows.Scan(
			&m.ID,
			&m.AttemptID,
			&m.QuestionID,
			&m.Selected,
			&m.IsCorrect,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answer := domain.Answer{
			ID:         m.ID,
			AttemptID:  m.AttemptID,
			QuestionID: m.QuestionID,
			Selected:   m.Selected.String,
			CreatedAt:  m.CreatedAt,
		}
		if m.IsCorrect.Valid {
			v := m.IsCorrect.Int64 == 1
			answer.IsCorrect = &v
		}
		answers = append(answers, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answers: %w", err)
	}
	return answers, nil
}
