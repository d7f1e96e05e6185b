package validation

import (
	"regexp"
	"strings"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/util"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLoginRequest validates the student login request
func (v *Validator) ValidateLoginRequest(req dto.LoginRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	loginID := strings.TrimSpace(req.LoginID)
	if loginID == "" {
		errors = append(errors, domain.NewMissingFieldError("login_id"))
	} else if !util.IsValidLoginCode(strings.ToUpper(loginID)) {
		errors = append(errors, domain.NewInvalidFormatError("login_id", loginID))
	}

	if req.Password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	}

	if strings.TrimSpace(req.Fingerprint) == "" {
		errors = append(errors, domain.NewMissingFieldError("fingerprint"))
	} else if len(req.Fingerprint) > 128 {
		errors = append(errors, domain.NewOutOfRangeError("fingerprint", len(req.Fingerprint), 1, 128))
	}

	return errors
}

// ValidateSelectAnswerRequest validates a per-question selection
func (v *Validator) ValidateSelectAnswerRequest(attemptID, questionID string, req dto.SelectAnswerRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if !isValidULID(attemptID) {
		errors = append(errors, domain.NewInvalidFormatError("attempt_id", attemptID))
	}
	if !isValidULID(questionID) {
		errors = append(errors, domain.NewInvalidFormatError("question_id", questionID))
	}

	// Empty clears the selection; anything else must be a single letter A-D.
	selected := strings.ToUpper(strings.TrimSpace(req.Selected))
	if selected != "" && !isAnswerLetter(selected) {
		errors = append(errors, domain.NewInvalidFormatError("selected", req.Selected))
	}

	return errors
}

// ValidateExamRequest validates the exam authoring payload
func (v *Validator) ValidateExamRequest(req dto.ExamRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > 600 {
		errors = append(errors, domain.NewOutOfRangeError("duration_minutes", req.DurationMinutes, 1, 600))
	}
	if req.PassingScore < 0 || req.PassingScore > 100 {
		errors = append(errors, domain.NewOutOfRangeError("passing_score", req.PassingScore, 0, 100))
	}

	return errors
}

// ValidateQuestionRequest validates the question authoring payload
func (v *Validator) ValidateQuestionRequest(req dto.QuestionRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Text) == "" {
		errors = append(errors, domain.NewMissingFieldError("text"))
	}

	populated := 0
	for _, opt := range []string{req.OptionA, req.OptionB, req.OptionC, req.OptionD} {
		if strings.TrimSpace(opt) != "" {
			populated++
		}
	}
	if populated < 2 {
		errors = append(errors, domain.NewOutOfRangeError("options", populated, 2, 4))
	}

	correct := strings.ToUpper(strings.TrimSpace(req.CorrectAnswer))
	if correct == "" {
		errors = append(errors, domain.NewMissingFieldError("correct_answer"))
	} else if !isAnswerLetter(correct) {
		errors = append(errors, domain.NewInvalidFormatError("correct_answer", req.CorrectAnswer))
	}

	return errors
}

// ValidateCSVUpload validates a bulk-import upload by name and size
func (v *Validator) ValidateCSVUpload(filename string, size int64, maxSize int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		errors = append(errors, domain.NewInvalidFormatError("file", filename))
	}
	if size <= 0 {
		errors = append(errors, domain.NewMissingFieldError("file"))
	} else if maxSize > 0 && size > maxSize {
		errors = append(errors, domain.NewOutOfRangeError("file_size", int(size), 1, int(maxSize)))
	}

	return errors
}

// ValidateContactMessageRequest validates the public contact form payload
func (v *Validator) ValidateContactMessageRequest(req dto.ContactMessageRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.SenderName) == "" {
		errors = append(errors, domain.NewMissingFieldError("sender_name"))
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		errors = append(errors, domain.NewMissingFieldError("email"))
	} else if !isValidEmail(email) {
		errors = append(errors, domain.NewInvalidFormatError("email", email))
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		errors = append(errors, domain.NewMissingFieldError("body"))
	} else if len(body) > 4000 {
		errors = append(errors, domain.NewOutOfRangeError("body", len(body), 1, 4000))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

func isAnswerLetter(s string) bool {
	return s == "A" || s == "B" || s == "C" || s == "D"
}

func isValidEmail(s string) bool {
	validEmail := regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	return validEmail.MatchString(s)
}
