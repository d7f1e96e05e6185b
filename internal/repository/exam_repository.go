package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"
	"examroom/internal/util"

	"github.com/jmoiron/sqlx"
)

const examColumns = "ID, TITLE, DESCRIPTION, DURATION_MINUTES, PASSING_SCORE, PUBLISHED, OWNER_ID, CREATED_AT, UPDATED_AT, DELETED_AT"
const questionColumns = "ID, EXAM_ID, PASSAGE_ID, TEXT, IMAGE_URL, OPTION_A, OPTION_B, OPTION_C, OPTION_D, CORRECT_ANSWER, ORDER_INDEX, CREATED_AT, UPDATED_AT"
const passageColumns = "ID, EXAM_ID, TITLE, BODY, IMAGE_URL, ORDER_INDEX, CREATED_AT, UPDATED_AT"

// sqlxExamRepository implements domain.ExamRepository using sqlx.
type sqlxExamRepository struct {
	db *sqlx.DB
}

// NewSQLXExamRepository creates a new instance of sqlxExamRepository.
func NewSQLXExamRepository(db *sqlx.DB) domain.ExamRepository {
	return &sqlxExamRepository{db: db}
}

func toDomainExam(m *models.Exam) *domain.Exam {
	if m == nil {
		return nil
	}
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		deletedAt = &m.DeletedAt.Time
	}
	return &domain.Exam{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description.String,
		DurationMinutes: m.DurationMinutes,
		PassingScore:    m.PassingScore,
		Published:       m.Published == 1,
		OwnerID:         m.OwnerID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		DeletedAt:       deletedAt,
	}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	return &domain.Question{
		ID:            m.ID,
		ExamID:        m.ExamID,
		PassageID:     m.PassageID.String,
		Text:          m.Text,
		ImageURL:      m.ImageURL.String,
		OptionA:       m.OptionA.String,
		OptionB:       m.OptionB.String,
		OptionC:       m.OptionC.String,
		OptionD:       m.OptionD.String,
		CorrectAnswer: m.CorrectAnswer,
		OrderIndex:    m.OrderIndex,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainPassage(m *models.Passage) *domain.Passage {
	if m == nil {
		return nil
	}
	return &domain.Passage{
		ID:         m.ID,
		ExamID:     m.ExamID,
		Title:      m.Title.String,
		Body:       m.Body,
		ImageURL:   m.ImageURL.String,
		OrderIndex: m.OrderIndex,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateExam inserts a new exam.
func (r *sqlxExamRepository) CreateExam(ctx context.Context, exam *domain.Exam) error {
	now := time.Now()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	query := `INSERT INTO exams (` + examColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, NULL)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		exam.ID,
		exam.Title,
		util.StringToNullString(exam.Description),
		exam.DurationMinutes,
		exam.PassingScore,
		boolToInt(exam.Published),
		exam.OwnerID,
		exam.CreatedAt,
		exam.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

// GetExamByID retrieves an exam by ID, deleted exams excluded.
func (r *sqlxExamRepository) GetExamByID(ctx context.Context, id string) (*domain.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE ID = :1 AND DELETED_AT IS NULL`

	executor := GetExecutor(ctx, r.db)
	var m models.Exam
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.DurationMinutes,
		&m.PassingScore,
		&m.Published,
		&m.OwnerID,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return toDomainExam(&m), nil
}

// ListExams returns all exams, optionally only published ones.
func (r *sqlxExamRepository) ListExams(ctx context.Context, publishedOnly bool) ([]domain.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE DELETED_AT IS NULL`
	if publishedOnly {
		query += " AND PUBLISHED = 1"
	}
	query += " ORDER BY CREATED_AT DESC"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var m models.Exam
		if err := rows.Scan(
			&m.ID,
			&m.Title,
			&m.Description,
			&m.DurationMinutes,
			&m.PassingScore,
			&m.Published,
			&m.OwnerID,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, *toDomainExam(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exams: %w", err)
	}
	return exams, nil
}

// UpdateExam updates the mutable exam fields.
func (r *sqlxExamRepository) UpdateExam(ctx context.Context, exam *domain.Exam) error {
	exam.UpdatedAt = time.Now()

	query := `UPDATE exams
	          SET TITLE = :1, DESCRIPTION = :2, DURATION_MINUTES = :3, PASSING_SCORE = :4, PUBLISHED = :5, UPDATED_AT = :6
	          WHERE ID = :7 AND DELETED_AT IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		exam.Title,
		util.StringToNullString(exam.Description),
		exam.DurationMinutes,
		exam.PassingScore,
		boolToInt(exam.Published),
		exam.UpdatedAt,
		exam.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewExamNotFoundError(exam.ID)
	}
	return nil
}

// DeleteExam soft-deletes the exam and hard-deletes its questions, passages
// and answers; attempts are soft-deleted. Run inside a transaction.
func (r *sqlxExamRepository) DeleteExam(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	now := time.Now()

	statements := []struct {
		query string
		args  []interface{}
	}{
		{`DELETE FROM answers WHERE ATTEMPT_ID IN (SELECT ID FROM attempts WHERE EXAM_ID = :1)`, []interface{}{id}},
		{`UPDATE attempts SET DELETED_AT = :1 WHERE EXAM_ID = :2 AND DELETED_AT IS NULL`, []interface{}{now, id}},
		{`DELETE FROM questions WHERE EXAM_ID = :1`, []interface{}{id}},
		{`DELETE FROM passages WHERE EXAM_ID = :1`, []interface{}{id}},
		{`UPDATE exams SET DELETED_AT = :1, UPDATED_AT = :1 WHERE ID = :2 AND DELETED_AT IS NULL`, []interface{}{now, id}},
	}
	for _, stmt := range statements {
		if _, err := executor.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("failed to delete exam %s: %w", id, err)
		}
	}
	return nil
}

// CreateQuestion inserts a new question.
func (r *sqlxExamRepository) CreateQuestion(ctx context.Context, question *domain.Question) error {
	now := time.Now()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	query := `INSERT INTO questions (` + questionColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		question.ID,
		question.ExamID,
		util.StringToNullString(question.PassageID),
		question.Text,
		util.StringToNullString(question.ImageURL),
		util.StringToNullString(question.OptionA),
		util.StringToNullString(question.OptionB),
		util.StringToNullString(question.OptionC),
		util.StringToNullString(question.OptionD),
		question.CorrectAnswer,
		question.OrderIndex,
		question.CreatedAt,
		question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetQuestionsByExamID returns the exam's questions in display order.
func (r *sqlxExamRepository) GetQuestionsByExamID(ctx context.Context, examID string) ([]domain.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE EXAM_ID = :1 ORDER BY ORDER_INDEX, CREATED_AT`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var m models.Question
		if err := rows.Scan(
			&m.ID,
			&m.ExamID,
			&m.PassageID,
			&m.Text,
			&m.ImageURL,
			&m.OptionA,
			&m.OptionB,
			&m.OptionC,
			&m.OptionD,
			&m.CorrectAnswer,
			&m.OrderIndex,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *toDomainQuestion(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// UpdateQuestion updates a question.
func (r *sqlxExamRepository) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	question.UpdatedAt = time.Now()

	query := `UPDATE questions
	          SET PASSAGE_ID = :1, TEXT = :2, IMAGE_URL = :3, OPTION_A = :4, OPTION_B = :5,
	              OPTION_C = :6, OPTION_D = :7, CORRECT_ANSWER = :8, ORDER_INDEX = :9, UPDATED_AT = :10
	          WHERE ID = :11`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		util.StringToNullString(question.PassageID),
		question.Text,
		util.StringToNullString(question.ImageURL),
		util.StringToNullString(question.OptionA),
		util.StringToNullString(question.OptionB),
		util.StringToNullString(question.OptionC),
		util.StringToNullString(question.OptionD),
		question.CorrectAnswer,
		question.OrderIndex,
		question.UpdatedAt,
		question.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("question not found: %s", question.ID))
	}
	return nil
}

// DeleteQuestion removes a question and the recorded answers that reference
// it. Run inside a transaction.
func (r *sqlxExamRepository) DeleteQuestion(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `DELETE FROM answers WHERE QUESTION_ID = :1`, id); err != nil {
		return fmt.Errorf("failed to delete answers for question %s: %w", id, err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM questions WHERE ID = :1`, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// CreatePassage inserts a new passage.
func (r *sqlxExamRepository) CreatePassage(ctx context.Context, passage *domain.Passage) error {
	now := time.Now()
	if passage.CreatedAt.IsZero() {
		passage.CreatedAt = now
	}
	passage.UpdatedAt = now

	query := `INSERT INTO passages (` + passageColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		passage.ID,
		passage.ExamID,
		util.StringToNullString(passage.Title),
		passage.Body,
		util.StringToNullString(passage.ImageURL),
		passage.OrderIndex,
		passage.CreatedAt,
		passage.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create passage: %w", err)
	}
	return nil
}

// GetPassagesByExamID returns the exam's passages in display order.
func (r *sqlxExamRepository) GetPassagesByExamID(ctx context.Context, examID string) ([]domain.Passage, error) {
	query := `SELECT ` + passageColumns + ` FROM passages WHERE EXAM_ID = :1 ORDER BY ORDER_INDEX, CREATED_AT`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get passages: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage
	for rows.Next() {
		var m models.Passage
		if err := rows.Scan(
			&m.ID,
			&m.ExamID,
			&m.Title,
			&m.Body,
			&m.ImageURL,
			&m.OrderIndex,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, *toDomainPassage(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passages: %w", err)
	}
	return passages, nil
}

// UpdatePassage updates a passage.
func (r *sqlxExamRepository) UpdatePassage(ctx context.Context, passage *domain.Passage) error {
	passage.UpdatedAt = time.Now()

	query := `UPDATE passages
	          SET TITLE = :1, BODY = :2, IMAGE_URL = :3, ORDER_INDEX = :4, UPDATED_AT = :5
	          WHERE ID = :6`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		util.StringToNullString(passage.Title),
		passage.Body,
		util.StringToNullString(passage.ImageURL),
		passage.OrderIndex,
		passage.UpdatedAt,
		passage.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update passage: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("passage not found: %s", passage.ID))
	}
	return nil
}

// DeletePassage removes a passage. Questions that referenced it become
// standalone questions.
func (r *sqlxExamRepository) DeletePassage(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, `UPDATE questions SET PASSAGE_ID = NULL WHERE PASSAGE_ID = :1`, id); err != nil {
		return fmt.Errorf("failed to detach questions from passage: %w", err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM passages WHERE ID = :1`, id); err != nil {
		return fmt.Errorf("failed to delete passage: %w", err)
	}
	return nil
}
