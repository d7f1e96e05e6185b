package validation

import (
	"testing"

	"examroom/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestValidateLoginRequest(t *testing.T) {
	v := NewValidator()

	errs := v.ValidateLoginRequest(dto.LoginRequest{
		LoginID:     "ABCD2345",
		Password:    "secret",
		Fingerprint: "fp1",
	})
	assert.Empty(t, errs)

	// Lowercase input normalizes before the format check.
	errs = v.ValidateLoginRequest(dto.LoginRequest{
		LoginID:     "abcd2345",
		Password:    "secret",
		Fingerprint: "fp1",
	})
	assert.Empty(t, errs)

	errs = v.ValidateLoginRequest(dto.LoginRequest{})
	assert.Len(t, errs, 3)

	// Ambiguous characters are not part of the login alphabet.
	errs = v.ValidateLoginRequest(dto.LoginRequest{
		LoginID:     "ABCD0145",
		Password:    "secret",
		Fingerprint: "fp1",
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, "login_id", errs[0].Field)
}

func TestValidateSelectAnswerRequest(t *testing.T) {
	v := NewValidator()
	attemptID := "01HVXYZABCDEFGHJKMNPQRSTVW"
	questionID := "01HVXYZABCDEFGHJKMNPQRSTVX"

	assert.Empty(t, v.ValidateSelectAnswerRequest(attemptID, questionID, dto.SelectAnswerRequest{Selected: "a"}))
	assert.Empty(t, v.ValidateSelectAnswerRequest(attemptID, questionID, dto.SelectAnswerRequest{Selected: ""}))

	errs := v.ValidateSelectAnswerRequest(attemptID, questionID, dto.SelectAnswerRequest{Selected: "E"})
	assert.Len(t, errs, 1)

	errs = v.ValidateSelectAnswerRequest("bogus", questionID, dto.SelectAnswerRequest{Selected: "A"})
	assert.Len(t, errs, 1)
	assert.Equal(t, "attempt_id", errs[0].Field)
}

func TestValidateExamRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateExamRequest(dto.ExamRequest{Title: "Midterm", DurationMinutes: 45, PassingScore: 70}))

	errs := v.ValidateExamRequest(dto.ExamRequest{Title: "", DurationMinutes: 0, PassingScore: 101})
	assert.Len(t, errs, 3)
}

func TestValidateQuestionRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateQuestionRequest(dto.QuestionRequest{
		Text: "True or false?", OptionA: "true", OptionB: "false", CorrectAnswer: "A",
	}))

	// One option is not enough for a multiple-choice question.
	errs := v.ValidateQuestionRequest(dto.QuestionRequest{
		Text: "Pick", OptionA: "only", CorrectAnswer: "A",
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, "options", errs[0].Field)

	errs = v.ValidateQuestionRequest(dto.QuestionRequest{
		Text: "Pick", OptionA: "x", OptionB: "y", CorrectAnswer: "Z",
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, "correct_answer", errs[0].Field)
}

func TestValidateCSVUpload(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateCSVUpload("students.CSV", 1024, 1<<20))

	errs := v.ValidateCSVUpload("students.xlsx", 1024, 1<<20)
	assert.Len(t, errs, 1)

	errs = v.ValidateCSVUpload("students.csv", 0, 1<<20)
	assert.Len(t, errs, 1)
}

func TestValidateContactMessageRequest(t *testing.T) {
	v := NewValidator()

	assert.Empty(t, v.ValidateContactMessageRequest(dto.ContactMessageRequest{
		SenderName: "Jane Visitor",
		Email:      "jane@example.com",
		Body:       "Hello",
	}))

	errs := v.ValidateContactMessageRequest(dto.ContactMessageRequest{
		SenderName: "Jane Visitor",
		Email:      "not-an-email",
		Body:       "Hello",
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].Field)
}
