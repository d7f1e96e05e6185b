package dto

// SessionQuestion is a question as shown during an active session. The
// correct answer is deliberately absent.
type SessionQuestion struct {
	ID        string            `json:"id"`
	PassageID string            `json:"passage_id,omitempty"`
	Text      string            `json:"text"`
	ImageURL  string            `json:"image_url,omitempty"`
	Options   map[string]string `json:"options"`
	Order     int               `json:"order"`
}

// SessionPassage is a reading passage shown during an active session.
type SessionPassage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url,omitempty"`
	Order    int    `json:"order"`
}

// StartSessionResponse is returned when a new attempt is opened.
type StartSessionResponse struct {
	AttemptID        string            `json:"attempt_id"`
	ExamID           string            `json:"exam_id"`
	ExamTitle        string            `json:"exam_title"`
	DurationMinutes  int               `json:"duration_minutes"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Questions        []SessionQuestion `json:"questions"`
	Passages         []SessionPassage  `json:"passages"`
}

// SelectAnswerRequest records or overwrites the selection for one question.
type SelectAnswerRequest struct {
	Selected string `json:"selected"`
}

// SessionStateResponse is the observable state of an active session.
type SessionStateResponse struct {
	AttemptID        string            `json:"attempt_id"`
	ExamID           string            `json:"exam_id"`
	State            string            `json:"state"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Answers          map[string]string `json:"answers"`
}

// SubmitResponse is returned once an attempt completes.
type SubmitResponse struct {
	AttemptID      string  `json:"attempt_id"`
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `json:"passed"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	AutoSubmitted  bool    `json:"auto_submitted"`
}
