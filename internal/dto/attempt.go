package dto

// Pagination describes limit/offset paging derived from query parameters.
type Pagination struct {
	Limit  int
	Offset int
	Page   int
}

// AttemptSummaryResponse is one row in an attempt listing.
type AttemptSummaryResponse struct {
	ID             string   `json:"id"`
	AccountID      string   `json:"account_id"`
	ExamID         string   `json:"exam_id"`
	ExamTitle      string   `json:"exam_title,omitempty"`
	StartedAt      string   `json:"started_at"`
	CompletedAt    string   `json:"completed_at,omitempty"`
	CorrectCount   *int     `json:"correct_count,omitempty"`
	TotalQuestions int      `json:"total_questions"`
	Percentage     *float64 `json:"percentage,omitempty"`
	Passed         *bool    `json:"passed,omitempty"`
	ElapsedSeconds *int     `json:"elapsed_seconds,omitempty"`
}

// AttemptListResponse is a paginated attempt listing.
type AttemptListResponse struct {
	Attempts []AttemptSummaryResponse `json:"attempts"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	Limit    int                      `json:"limit"`
}

// ReviewAnswerResponse joins one answer with its question for review.
type ReviewAnswerResponse struct {
	QuestionID    string            `json:"question_id"`
	PassageID     string            `json:"passage_id,omitempty"`
	Text          string            `json:"text"`
	Options       map[string]string `json:"options"`
	Selected      string            `json:"selected,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	IsCorrect     bool              `json:"is_correct"`
	Order         int               `json:"order"`
}

// ReviewResponse is the read-only recombination of a completed attempt with
// its answers, questions and passages.
type ReviewResponse struct {
	Attempt  AttemptSummaryResponse `json:"attempt"`
	Answers  []ReviewAnswerResponse `json:"answers"`
	Passages []SessionPassage       `json:"passages"`
}
