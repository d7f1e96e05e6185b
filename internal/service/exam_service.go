package service

import (
	"context"
	"strings"
	"time"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/util"

	"go.uber.org/zap"
)

// ExamService is the admin authoring surface: exams, their questions and
// their passages.
type ExamService interface {
	CreateExam(ctx context.Context, ownerID string, req dto.ExamRequest) (*dto.ExamResponse, error)
	GetExam(ctx context.Context, id string) (*dto.ExamResponse, error)
	ListExams(ctx context.Context, publishedOnly bool) ([]dto.ExamResponse, error)
	UpdateExam(ctx context.Context, id string, req dto.ExamRequest) (*dto.ExamResponse, error)
	// DeleteExam removes the exam and cascades to questions, passages,
	// attempts and answers inside one transaction.
	DeleteExam(ctx context.Context, id string) error

	CreateQuestion(ctx context.Context, examID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	ListQuestions(ctx context.Context, examID string) ([]dto.QuestionResponse, error)
	UpdateQuestion(ctx context.Context, examID, questionID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
	DeleteQuestion(ctx context.Context, examID, questionID string) error

	CreatePassage(ctx context.Context, examID string, req dto.PassageRequest) (*dto.PassageResponse, error)
	ListPassages(ctx context.Context, examID string) ([]dto.PassageResponse, error)
	UpdatePassage(ctx context.Context, examID, passageID string, req dto.PassageRequest) (*dto.PassageResponse, error)
	DeletePassage(ctx context.Context, examID, passageID string) error
}

type examServiceImpl struct {
	examRepo  domain.ExamRepository
	txManager domain.TransactionManager
}

// NewExamService creates a new instance of ExamService.
func NewExamService(examRepo domain.ExamRepository, txManager domain.TransactionManager) ExamService {
	return &examServiceImpl{examRepo: examRepo, txManager: txManager}
}

func (s *examServiceImpl) CreateExam(ctx context.Context, ownerID string, req dto.ExamRequest) (*dto.ExamResponse, error) {
	exam := domain.NewExam(strings.TrimSpace(req.Title), req.Description, req.DurationMinutes, req.PassingScore, ownerID)
	exam.ID = util.NewULID()
	exam.Published = req.Published
	if err := exam.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.CreateExam(ctx, exam); err != nil {
		return nil, domain.NewInternalError("failed to create exam", err)
	}
	logger.Get().Info("Exam created", zap.String("examID", exam.ID), zap.String("ownerID", ownerID))
	resp := toExamResponse(exam, 0)
	return &resp, nil
}

func (s *examServiceImpl) GetExam(ctx context.Context, id string) (*dto.ExamResponse, error) {
	exam, err := s.examRepo.GetExamByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to get exam", err)
	}
	if exam == nil {
		return nil, domain.NewExamNotFoundError(id)
	}
	questions, err := s.examRepo.GetQuestionsByExamID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to count questions", err)
	}
	resp := toExamResponse(exam, len(questions))
	return &resp, nil
}

func (s *examServiceImpl) ListExams(ctx context.Context, publishedOnly bool) ([]dto.ExamResponse, error) {
	exams, err := s.examRepo.ListExams(ctx, publishedOnly)
	if err != nil {
		return nil, domain.NewInternalError("failed to list exams", err)
	}
	responses := make([]dto.ExamResponse, 0, len(exams))
	for i := range exams {
		responses = append(responses, toExamResponse(&exams[i], 0))
	}
	return responses, nil
}

func (s *examServiceImpl) UpdateExam(ctx context.Context, id string, req dto.ExamRequest) (*dto.ExamResponse, error) {
	exam, err := s.examRepo.GetExamByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to get exam", err)
	}
	if exam == nil {
		return nil, domain.NewExamNotFoundError(id)
	}

	exam.Title = strings.TrimSpace(req.Title)
	exam.Description = req.Description
	exam.DurationMinutes = req.DurationMinutes
	exam.PassingScore = req.PassingScore
	exam.Published = req.Published
	exam.UpdatedAt = time.Now()
	if err := exam.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.UpdateExam(ctx, exam); err != nil {
		return nil, err
	}
	resp := toExamResponse(exam, 0)
	return &resp, nil
}

func (s *examServiceImpl) DeleteExam(ctx context.Context, id string) error {
	exam, err := s.examRepo.GetExamByID(ctx, id)
	if err != nil {
		return domain.NewInternalError("failed to get exam", err)
	}
	if exam == nil {
		return domain.NewExamNotFoundError(id)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.examRepo.DeleteExam(txCtx, id)
	})
	if err != nil {
		return domain.NewInternalError("failed to delete exam", err)
	}
	logger.Get().Info("Exam deleted with cascade", zap.String("examID", id))
	return nil
}

func (s *examServiceImpl) CreateQuestion(ctx context.Context, examID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	if err := s.requireExam(ctx, examID); err != nil {
		return nil, err
	}

	now := time.Now()
	question := &domain.Question{
		ID:            util.NewULID(),
		ExamID:        examID,
		PassageID:     req.PassageID,
		Text:          strings.TrimSpace(req.Text),
		ImageURL:      req.ImageURL,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(req.CorrectAnswer)),
		OrderIndex:    req.OrderIndex,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := question.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.CreateQuestion(ctx, question); err != nil {
		return nil, domain.NewInternalError("failed to create question", err)
	}
	resp := toQuestionResponse(question)
	return &resp, nil
}

func (s *examServiceImpl) ListQuestions(ctx context.Context, examID string) ([]dto.QuestionResponse, error) {
	if err := s.requireExam(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := s.examRepo.GetQuestionsByExamID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list questions", err)
	}
	responses := make([]dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		responses = append(responses, toQuestionResponse(&questions[i]))
	}
	return responses, nil
}

func (s *examServiceImpl) UpdateQuestion(ctx context.Context, examID, questionID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	question, err := s.findQuestion(ctx, examID, questionID)
	if err != nil {
		return nil, err
	}

	question.PassageID = req.PassageID
	question.Text = strings.TrimSpace(req.Text)
	question.ImageURL = req.ImageURL
	question.OptionA = req.OptionA
	question.OptionB = req.OptionB
	question.OptionC = req.OptionC
	question.OptionD = req.OptionD
	question.CorrectAnswer = strings.ToUpper(strings.TrimSpace(req.CorrectAnswer))
	question.OrderIndex = req.OrderIndex
	question.UpdatedAt = time.Now()
	if err := question.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}
	resp := toQuestionResponse(question)
	return &resp, nil
}

func (s *examServiceImpl) DeleteQuestion(ctx context.Context, examID, questionID string) error {
	if _, err := s.findQuestion(ctx, examID, questionID); err != nil {
		return err
	}
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.examRepo.DeleteQuestion(txCtx, questionID)
	})
}

func (s *examServiceImpl) CreatePassage(ctx context.Context, examID string, req dto.PassageRequest) (*dto.PassageResponse, error) {
	if err := s.requireExam(ctx, examID); err != nil {
		return nil, err
	}

	now := time.Now()
	passage := &domain.Passage{
		ID:         util.NewULID(),
		ExamID:     examID,
		Title:      strings.TrimSpace(req.Title),
		Body:       req.Body,
		ImageURL:   req.ImageURL,
		OrderIndex: req.OrderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := passage.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.CreatePassage(ctx, passage); err != nil {
		return nil, domain.NewInternalError("failed to create passage", err)
	}
	resp := toPassageResponse(passage)
	return &resp, nil
}

func (s *examServiceImpl) ListPassages(ctx context.Context, examID string) ([]dto.PassageResponse, error) {
	if err := s.requireExam(ctx, examID); err != nil {
		return nil, err
	}
	passages, err := s.examRepo.GetPassagesByExamID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list passages", err)
	}
	responses := make([]dto.PassageResponse, 0, len(passages))
	for i := range passages {
		responses = append(responses, toPassageResponse(&passages[i]))
	}
	return responses, nil
}

func (s *examServiceImpl) UpdatePassage(ctx context.Context, examID, passageID string, req dto.PassageRequest) (*dto.PassageResponse, error) {
	passage, err := s.findPassage(ctx, examID, passageID)
	if err != nil {
		return nil, err
	}

	passage.Title = strings.TrimSpace(req.Title)
	passage.Body = req.Body
	passage.ImageURL = req.ImageURL
	passage.OrderIndex = req.OrderIndex
	passage.UpdatedAt = time.Now()
	if err := passage.Validate(); err != nil {
		return nil, err
	}
	if err := s.examRepo.UpdatePassage(ctx, passage); err != nil {
		return nil, err
	}
	resp := toPassageResponse(passage)
	return &resp, nil
}

func (s *examServiceImpl) DeletePassage(ctx context.Context, examID, passageID string) error {
	if _, err := s.findPassage(ctx, examID, passageID); err != nil {
		return err
	}
	// Questions referencing the passage survive as standalone questions.
	return s.examRepo.DeletePassage(ctx, passageID)
}

func (s *examServiceImpl) requireExam(ctx context.Context, examID string) error {
	exam, err := s.examRepo.GetExamByID(ctx, examID)
	if err != nil {
		return domain.NewInternalError("failed to get exam", err)
	}
	if exam == nil {
		return domain.NewExamNotFoundError(examID)
	}
	return nil
}

func (s *examServiceImpl) findQuestion(ctx context.Context, examID, questionID string) (*domain.Question, error) {
	questions, err := s.examRepo.GetQuestionsByExamID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list questions", err)
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, domain.NewNotFoundError("question not found on this exam")
}

func (s *examServiceImpl) findPassage(ctx context.Context, examID, passageID string) (*domain.Passage, error) {
	passages, err := s.examRepo.GetPassagesByExamID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list passages", err)
	}
	for i := range passages {
		if passages[i].ID == passageID {
			return &passages[i], nil
		}
	}
	return nil, domain.NewNotFoundError("passage not found on this exam")
}

func toExamResponse(e *domain.Exam, questionCount int) dto.ExamResponse {
	return dto.ExamResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		PassingScore:    e.PassingScore,
		Published:       e.Published,
		QuestionCount:   questionCount,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
}

func toQuestionResponse(q *domain.Question) dto.QuestionResponse {
	return dto.QuestionResponse{
		ID:            q.ID,
		ExamID:        q.ExamID,
		PassageID:     q.PassageID,
		Text:          q.Text,
		ImageURL:      q.ImageURL,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		CorrectAnswer: q.CorrectAnswer,
		OrderIndex:    q.OrderIndex,
	}
}

func toPassageResponse(p *domain.Passage) dto.PassageResponse {
	return dto.PassageResponse{
		ID:         p.ID,
		ExamID:     p.ExamID,
		Title:      p.Title,
		Body:       p.Body,
		ImageURL:   p.ImageURL,
		OrderIndex: p.OrderIndex,
	}
}
