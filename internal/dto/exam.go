package dto

// ExamRequest is the admin authoring payload for creating/updating an exam.
// @Description Request body for exam authoring
type ExamRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PassingScore    int    `json:"passing_score"`
	Published       bool   `json:"published"`
}

// ExamResponse represents an exam in the API response
type ExamResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PassingScore    int    `json:"passing_score"`
	Published       bool   `json:"published"`
	QuestionCount   int    `json:"question_count,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// QuestionRequest is the admin authoring payload for a question.
type QuestionRequest struct {
	PassageID     string `json:"passage_id,omitempty"`
	Text          string `json:"text"`
	ImageURL      string `json:"image_url,omitempty"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c,omitempty"`
	OptionD       string `json:"option_d,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	OrderIndex    int    `json:"order_index"`
}

// QuestionResponse represents a question in the admin API response. Unlike
// SessionQuestion it includes the correct answer.
type QuestionResponse struct {
	ID            string `json:"id"`
	ExamID        string `json:"exam_id"`
	PassageID     string `json:"passage_id,omitempty"`
	Text          string `json:"text"`
	ImageURL      string `json:"image_url,omitempty"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c,omitempty"`
	OptionD       string `json:"option_d,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	OrderIndex    int    `json:"order_index"`
}

// PassageRequest is the admin authoring payload for a passage.
type PassageRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	ImageURL   string `json:"image_url,omitempty"`
	OrderIndex int    `json:"order_index"`
}

// PassageResponse represents a passage in the API response
type PassageResponse struct {
	ID         string `json:"id"`
	ExamID     string `json:"exam_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	ImageURL   string `json:"image_url,omitempty"`
	OrderIndex int    `json:"order_index"`
}
