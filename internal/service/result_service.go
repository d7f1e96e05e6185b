package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"examroom/internal/cache"
	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"

	"go.uber.org/zap"
)

const reviewCacheTTL = 10 * time.Minute

// ResultService is the read side of completed attempts: the student's own
// review, the admin result listings and exports, and retake grants.
type ResultService interface {
	// GetReview recombines a completed attempt with its answers, the original
	// questions and the passages. Students may only review their own attempts.
	GetReview(ctx context.Context, requesterID string, isAdmin bool, attemptID string) (*dto.ReviewResponse, error)
	ListMyAttempts(ctx context.Context, accountID string) ([]dto.AttemptSummaryResponse, error)
	ListAttempts(ctx context.Context, filters domain.AttemptFilters, pagination dto.Pagination) (*dto.AttemptListResponse, error)
	// GrantRetake soft-deletes a completed attempt so its owner may start a
	// new one. The review cache entry is dropped alongside.
	GrantRetake(ctx context.Context, attemptID string) error
	// ExportResultsCSV renders the filtered attempt listing for download.
	ExportResultsCSV(ctx context.Context, filters domain.AttemptFilters) ([]byte, error)
}

type resultServiceImpl struct {
	attemptRepo domain.AttemptRepository
	examRepo    domain.ExamRepository
	accountRepo domain.AccountRepository
	cache       domain.Cache
}

// NewResultService creates a new instance of ResultService.
func NewResultService(attemptRepo domain.AttemptRepository, examRepo domain.ExamRepository, accountRepo domain.AccountRepository, cacheClient domain.Cache) ResultService {
	return &resultServiceImpl{
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		accountRepo: accountRepo,
		cache:       cacheClient,
	}
}

func (s *resultServiceImpl) GetReview(ctx context.Context, requesterID string, isAdmin bool, attemptID string) (*dto.ReviewResponse, error) {
	appLogger := logger.Get()

	cacheKey := cache.GenerateCacheKey("result", "review", attemptID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var review dto.ReviewResponse
		if err := json.Unmarshal([]byte(cached), &review); err == nil {
			if !isAdmin && review.Attempt.AccountID != requesterID {
				return nil, domain.NewForbiddenError("attempt belongs to another account")
			}
			return &review, nil
		}
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		appLogger.Warn("Review cache read failed", zap.String("attemptID", attemptID), zap.Error(err))
	}

	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get attempt", err)
	}
	if attempt == nil {
		return nil, domain.NewAttemptNotFoundError(attemptID)
	}
	if !isAdmin && attempt.AccountID != requesterID {
		return nil, domain.NewForbiddenError("attempt belongs to another account")
	}
	if !attempt.IsCompleted() {
		return nil, domain.NewInvalidInputError("attempt is still in progress")
	}

	exam, err := s.examRepo.GetExamByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get exam", err)
	}
	questions, err := s.examRepo.GetQuestionsByExamID(ctx, attempt.ExamID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get questions", err)
	}
	passages, err := s.examRepo.GetPassagesByExamID(ctx, attempt.ExamID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get passages", err)
	}
	answers, err := s.attemptRepo.GetAnswersByAttemptID(ctx, attemptID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get answers", err)
	}

	selectedByQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		selectedByQuestion[a.QuestionID] = a
	}

	sort.Slice(questions, func(i, j int) bool { return questions[i].OrderIndex < questions[j].OrderIndex })
	reviewAnswers := make([]dto.ReviewAnswerResponse, 0, len(questions))
	for _, q := range questions {
		answer := selectedByQuestion[q.ID]
		isCorrect := answer.IsCorrect != nil && *answer.IsCorrect
		reviewAnswers = append(reviewAnswers, dto.ReviewAnswerResponse{
			QuestionID:    q.ID,
			PassageID:     q.PassageID,
			Text:          q.Text,
			Options:       q.Options(),
			Selected:      answer.Selected,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Order:         q.OrderIndex,
		})
	}

	sort.Slice(passages, func(i, j int) bool { return passages[i].OrderIndex < passages[j].OrderIndex })
	reviewPassages := make([]dto.SessionPassage, 0, len(passages))
	for _, p := range passages {
		reviewPassages = append(reviewPassages, dto.SessionPassage{
			ID:       p.ID,
			Title:    p.Title,
			Body:     p.Body,
			ImageURL: p.ImageURL,
			Order:    p.OrderIndex,
		})
	}

	summary := toAttemptSummary(attempt)
	if exam != nil {
		summary.ExamTitle = exam.Title
		if attempt.Percentage != nil {
			passed := domain.Passed(*attempt.Percentage, exam.PassingScore)
			summary.Passed = &passed
		}
	}

	review := &dto.ReviewResponse{
		Attempt:  summary,
		Answers:  reviewAnswers,
		Passages: reviewPassages,
	}

	if encoded, err := json.Marshal(review); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(encoded), reviewCacheTTL); err != nil {
			appLogger.Warn("Review cache write failed", zap.String("attemptID", attemptID), zap.Error(err))
		}
	}
	return review, nil
}

func (s *resultServiceImpl) ListMyAttempts(ctx context.Context, accountID string) ([]dto.AttemptSummaryResponse, error) {
	attempts, err := s.attemptRepo.GetAttemptsByAccountID(ctx, accountID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list attempts", err)
	}
	return s.decorateSummaries(ctx, attempts), nil
}

func (s *resultServiceImpl) ListAttempts(ctx context.Context, filters domain.AttemptFilters, pagination dto.Pagination) (*dto.AttemptListResponse, error) {
	attempts, total, err := s.attemptRepo.ListAttempts(ctx, filters, pagination.Limit, pagination.Offset)
	if err != nil {
		return nil, domain.NewInternalError("failed to list attempts", err)
	}
	return &dto.AttemptListResponse{
		Attempts: s.decorateSummaries(ctx, attempts),
		Total:    total,
		Page:     pagination.Page,
		Limit:    pagination.Limit,
	}, nil
}

// decorateSummaries attaches exam titles and derived pass/fail to raw
// attempt rows. Exams are fetched once per distinct ID.
func (s *resultServiceImpl) decorateSummaries(ctx context.Context, attempts []domain.Attempt) []dto.AttemptSummaryResponse {
	exams := make(map[string]*domain.Exam)
	summaries := make([]dto.AttemptSummaryResponse, 0, len(attempts))
	for i := range attempts {
		attempt := &attempts[i]
		summary := toAttemptSummary(attempt)

		exam, ok := exams[attempt.ExamID]
		if !ok {
			var err error
			exam, err = s.examRepo.GetExamByID(ctx, attempt.ExamID)
			if err != nil {
				logger.Get().Warn("Failed to decorate attempt with exam", zap.String("examID", attempt.ExamID), zap.Error(err))
			}
			exams[attempt.ExamID] = exam
		}
		if exam != nil {
			summary.ExamTitle = exam.Title
			if attempt.Percentage != nil {
				passed := domain.Passed(*attempt.Percentage, exam.PassingScore)
				summary.Passed = &passed
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *resultServiceImpl) GrantRetake(ctx context.Context, attemptID string) error {
	attempt, err := s.attemptRepo.GetAttemptByID(ctx, attemptID)
	if err != nil {
		return domain.NewInternalError("failed to get attempt", err)
	}
	if attempt == nil {
		return domain.NewAttemptNotFoundError(attemptID)
	}
	if !attempt.IsCompleted() {
		return domain.NewInvalidInputError("only completed attempts can be granted a retake")
	}

	if err := s.attemptRepo.DeleteAttempt(ctx, attemptID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cache.GenerateCacheKey("result", "review", attemptID)); err != nil {
		logger.Get().Warn("Failed to drop review cache entry", zap.String("attemptID", attemptID), zap.Error(err))
	}

	logger.Get().Info("Retake granted",
		zap.String("attemptID", attemptID),
		zap.String("accountID", attempt.AccountID),
		zap.String("examID", attempt.ExamID),
	)
	return nil
}

func (s *resultServiceImpl) ExportResultsCSV(ctx context.Context, filters domain.AttemptFilters) ([]byte, error) {
	const exportPageSize = 500

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"student", "class", "exam", "completed_at", "correct", "total", "percentage", "passed"}); err != nil {
		return nil, err
	}

	accounts := make(map[string]*domain.Account)
	offset := 0
	for {
		attempts, total, err := s.attemptRepo.ListAttempts(ctx, filters, exportPageSize, offset)
		if err != nil {
			return nil, domain.NewInternalError("failed to list attempts for export", err)
		}
		summaries := s.decorateSummaries(ctx, attempts)
		for i, summary := range summaries {
			account, ok := accounts[attempts[i].AccountID]
			if !ok {
				account, err = s.accountRepo.GetAccountByID(ctx, attempts[i].AccountID)
				if err != nil {
					return nil, domain.NewInternalError("failed to look up account for export", err)
				}
				accounts[attempts[i].AccountID] = account
			}

			var studentName, className string
			if account != nil {
				studentName = account.FullName
				className = account.ClassName
			}
			record := []string{
				studentName,
				className,
				summary.ExamTitle,
				summary.CompletedAt,
				formatIntPtr(summary.CorrectCount),
				strconv.Itoa(summary.TotalQuestions),
				formatFloatPtr(summary.Percentage),
				formatBoolPtr(summary.Passed),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		offset += len(attempts)
		if offset >= total || len(attempts) == 0 {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toAttemptSummary(a *domain.Attempt) dto.AttemptSummaryResponse {
	summary := dto.AttemptSummaryResponse{
		ID:             a.ID,
		AccountID:      a.AccountID,
		ExamID:         a.ExamID,
		StartedAt:      a.StartedAt.Format(time.RFC3339),
		TotalQuestions: a.TotalQuestions,
		CorrectCount:   a.CorrectCount,
		Percentage:     a.Percentage,
		ElapsedSeconds: a.ElapsedSeconds,
	}
	if a.CompletedAt != nil {
		summary.CompletedAt = a.CompletedAt.Format(time.RFC3339)
	}
	return summary
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatBoolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "pass"
	}
	return "fail"
}
