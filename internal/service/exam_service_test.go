package service

import (
	"context"
	"testing"

	"examroom/internal/domain"
	"examroom/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateExam_Validates(t *testing.T) {
	svc := NewExamService(new(MockExamRepository), passthroughTxManager{})

	_, err := svc.CreateExam(context.Background(), "admin1", dto.ExamRequest{
		Title:           "",
		DurationMinutes: 30,
		PassingScore:    70,
	})
	assert.Error(t, err)

	_, err = svc.CreateExam(context.Background(), "admin1", dto.ExamRequest{
		Title:           "Midterm",
		DurationMinutes: 0,
		PassingScore:    70,
	})
	assert.Error(t, err)
}

func TestCreateExam_Success(t *testing.T) {
	examRepo := new(MockExamRepository)
	examRepo.On("CreateExam", mock.Anything, mock.MatchedBy(func(e *domain.Exam) bool {
		return e.Title == "Midterm" && e.OwnerID == "admin1" && e.ID != ""
	})).Return(nil)

	svc := NewExamService(examRepo, passthroughTxManager{})

	resp, err := svc.CreateExam(context.Background(), "admin1", dto.ExamRequest{
		Title:           "Midterm",
		DurationMinutes: 30,
		PassingScore:    70,
		Published:       true,
	})
	assert.NoError(t, err)
	assert.True(t, resp.Published)
	examRepo.AssertExpectations(t)
}

func TestDeleteExam_CascadesInsideTransaction(t *testing.T) {
	exam, _ := twoQuestionExam()
	examRepo := new(MockExamRepository)
	examRepo.On("GetExamByID", mock.Anything, "exam1").Return(exam, nil)
	examRepo.On("DeleteExam", mock.Anything, "exam1").Return(nil)

	svc := NewExamService(examRepo, passthroughTxManager{})
	assert.NoError(t, svc.DeleteExam(context.Background(), "exam1"))
	examRepo.AssertExpectations(t)
}

func TestDeleteExam_NotFound(t *testing.T) {
	examRepo := new(MockExamRepository)
	examRepo.On("GetExamByID", mock.Anything, "ghost").Return(nil, nil)

	svc := NewExamService(examRepo, passthroughTxManager{})
	err := svc.DeleteExam(context.Background(), "ghost")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeExamNotFound, domainErr.Code)
	examRepo.AssertNotCalled(t, "DeleteExam", mock.Anything, mock.Anything)
}

func TestCreateQuestion_NormalizesCorrectAnswer(t *testing.T) {
	exam, _ := twoQuestionExam()
	examRepo := new(MockExamRepository)
	examRepo.On("GetExamByID", mock.Anything, "exam1").Return(exam, nil)
	examRepo.On("CreateQuestion", mock.Anything, mock.MatchedBy(func(q *domain.Question) bool {
		return q.CorrectAnswer == "B"
	})).Return(nil)

	svc := NewExamService(examRepo, passthroughTxManager{})

	resp, err := svc.CreateQuestion(context.Background(), "exam1", dto.QuestionRequest{
		Text:          "True or false?",
		OptionA:       "true",
		OptionB:       "false",
		CorrectAnswer: " b ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "B", resp.CorrectAnswer)
}

func TestCreateQuestion_RejectsDanglingCorrectAnswer(t *testing.T) {
	exam, _ := twoQuestionExam()
	examRepo := new(MockExamRepository)
	examRepo.On("GetExamByID", mock.Anything, "exam1").Return(exam, nil)

	svc := NewExamService(examRepo, passthroughTxManager{})

	// D points at an unpopulated option.
	_, err := svc.CreateQuestion(context.Background(), "exam1", dto.QuestionRequest{
		Text:          "Pick one",
		OptionA:       "first",
		OptionB:       "second",
		CorrectAnswer: "D",
	})
	assert.Error(t, err)
	examRepo.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
}

func TestUpdateQuestion_UnknownQuestion(t *testing.T) {
	_, questions := twoQuestionExam()
	examRepo := new(MockExamRepository)
	examRepo.On("GetQuestionsByExamID", mock.Anything, "exam1").Return(questions, nil)

	svc := NewExamService(examRepo, passthroughTxManager{})

	_, err := svc.UpdateQuestion(context.Background(), "exam1", "ghost", dto.QuestionRequest{
		Text: "?", OptionA: "a", OptionB: "b", CorrectAnswer: "A",
	})
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotFound, domainErr.Code)
}

func TestCreatePassage_RequiresExam(t *testing.T) {
	examRepo := new(MockExamRepository)
	examRepo.On("GetExamByID", mock.Anything, "ghost").Return(nil, nil)

	svc := NewExamService(examRepo, passthroughTxManager{})

	_, err := svc.CreatePassage(context.Background(), "ghost", dto.PassageRequest{Body: "text"})
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeExamNotFound, domainErr.Code)
}
