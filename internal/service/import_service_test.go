package service

import (
	"context"
	"strings"
	"testing"

	"examroom/internal/config"
	"examroom/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock type for the account-creation collaborator.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*dto.CreateStudentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateStudentResponse), args.Error(1)
}

func (m *MockAccountService) ListStudents(ctx context.Context, className string) ([]dto.AccountResponse, error) {
	args := m.Called(ctx, className)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.AccountResponse), args.Error(1)
}

func (m *MockAccountService) GetStudent(ctx context.Context, id string) (*dto.AccountResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountResponse), args.Error(1)
}

func (m *MockAccountService) UpdateStudent(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.AccountResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountResponse), args.Error(1)
}

func (m *MockAccountService) DeleteStudent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountService) ResetDevice(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func importTestConfig() config.ImportConfig {
	return config.ImportConfig{MaxRows: 100, DefaultClass: ""}
}

func TestImportStudents_PartialSuccess(t *testing.T) {
	accountService := new(MockAccountService)
	accountService.On("CreateStudent", mock.Anything, mock.MatchedBy(func(req dto.CreateStudentRequest) bool {
		return req.FullName == "John Middle Last" && req.ClassName == "3prp"
	})).Return(&dto.CreateStudentResponse{LoginID: "ABCD2345"}, nil)

	svc := NewImportService(accountService, importTestConfig())

	csv := "full_name,phone,class\n" +
		"John Middle Last,11999990000,3prp\n" +
		"X,,3prp\n" +
		",,\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "")
	assert.NoError(t, err)

	// The blank-name row is dropped silently, not reported.
	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	assert.True(t, result.Outcomes[0].Success)
	assert.Equal(t, "John Middle Last", result.Outcomes[0].InputName)
	assert.Equal(t, "ABCD2345", result.Outcomes[0].LoginID)

	assert.False(t, result.Outcomes[1].Success)
	assert.Contains(t, result.Outcomes[1].ErrorMessage, "InvalidName")
	accountService.AssertNumberOfCalls(t, "CreateStudent", 1)
}

func TestImportStudents_HeaderSubstringMatching(t *testing.T) {
	accountService := new(MockAccountService)
	accountService.On("CreateStudent", mock.Anything, mock.MatchedBy(func(req dto.CreateStudentRequest) bool {
		return req.FullName == "Maria Fernanda Silva" && req.Phone == "11988887777" && req.ClassName == "7th"
	})).Return(&dto.CreateStudentResponse{LoginID: "EFGH6789"}, nil)

	svc := NewImportService(accountService, importTestConfig())

	// Headers only need to contain the keywords, case-insensitively.
	csv := "Student Name,Cell Phone,Grade\n" +
		"Maria Fernanda Silva,'11988887777',7th\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	accountService.AssertExpectations(t)
}

func TestImportStudents_DefaultClassFallback(t *testing.T) {
	accountService := new(MockAccountService)
	accountService.On("CreateStudent", mock.Anything, mock.MatchedBy(func(req dto.CreateStudentRequest) bool {
		return req.ClassName == "fallback"
	})).Return(&dto.CreateStudentResponse{LoginID: "JKLM2345"}, nil)

	svc := NewImportService(accountService, importTestConfig())

	// No class-like column at all.
	csv := "full_name,phone\nAna Beatriz Costa,\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "fallback")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
}

func TestImportStudents_MissingClassOutcome(t *testing.T) {
	accountService := new(MockAccountService)
	svc := NewImportService(accountService, importTestConfig())

	csv := "full_name,class\nAna Beatriz Costa,\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Outcomes[0].ErrorMessage, "MissingClass")
	accountService.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
}

func TestImportStudents_CollaboratorErrorRecordedVerbatim(t *testing.T) {
	accountService := new(MockAccountService)
	accountService.On("CreateStudent", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	svc := NewImportService(accountService, importTestConfig())

	csv := "full_name,class\nJohn Middle Last,3prp\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, assert.AnError.Error(), result.Outcomes[0].ErrorMessage)
}

func TestImportStudents_NoNameColumn(t *testing.T) {
	svc := NewImportService(new(MockAccountService), importTestConfig())

	_, err := svc.ImportStudents(context.Background(), strings.NewReader("phone,class\n123,3prp\n"), "")
	assert.Error(t, err)
}

func TestImportStudents_RowLimit(t *testing.T) {
	accountService := new(MockAccountService)
	accountService.On("CreateStudent", mock.Anything, mock.Anything).
		Return(&dto.CreateStudentResponse{LoginID: "QRST2345"}, nil)

	svc := NewImportService(accountService, config.ImportConfig{MaxRows: 2})

	csv := "full_name,class\n" +
		"One Two Three,3prp\n" +
		"Four Five Six,3prp\n" +
		"Seven Eight Nine,3prp\n"
	_, err := svc.ImportStudents(context.Background(), strings.NewReader(csv), "")
	assert.Error(t, err)
}

func TestTemplateCSV(t *testing.T) {
	svc := NewImportService(new(MockAccountService), importTestConfig())
	template := string(svc.TemplateCSV())
	assert.True(t, strings.HasPrefix(template, "full_name,phone,class\n"))
	// Two example rows follow the header.
	assert.Equal(t, 3, strings.Count(template, "\n"))
}

func TestResultsCSV(t *testing.T) {
	svc := NewImportService(new(MockAccountService), importTestConfig())
	out, err := svc.ResultsCSV(&dto.ImportResultResponse{
		Outcomes: []dto.ImportRowOutcome{
			{InputName: "John Middle Last", LoginID: "ABCD2345", Success: true},
			{InputName: "X", ErrorMessage: "InvalidName: full name must have at least 3 parts"},
		},
	})
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "failed")
}
