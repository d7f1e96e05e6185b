package dto

// CreateStudentRequest is the privileged account-creation payload.
type CreateStudentRequest struct {
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	ClassName string `json:"class_name,omitempty"`
}

// UpdateStudentRequest is the privileged account-update payload. The
// password field is optional; empty means keep the current one.
type UpdateStudentRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	ClassName string `json:"class_name,omitempty"`
	Password  string `json:"password,omitempty"`
}

// CreateStudentResponse is returned by the account-creation collaborator.
type CreateStudentResponse struct {
	LoginID string          `json:"login_id"`
	Account AccountResponse `json:"account"`
}

// ImportRowOutcome is the per-row result of a bulk import. Rows keep their
// input order; aggregate counts are derived by counting, never stored.
type ImportRowOutcome struct {
	InputName    string `json:"input_name"`
	LoginID      string `json:"login_id,omitempty"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ImportResultResponse is the full bulk-import report.
type ImportResultResponse struct {
	Outcomes  []ImportRowOutcome `json:"outcomes"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// ContactMessageRequest is the public contact-form payload.
type ContactMessageRequest struct {
	SenderName string `json:"sender_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Body       string `json:"body"`
}

// ContactMessageResponse represents a contact message in the admin inbox.
type ContactMessageResponse struct {
	ID         string `json:"id"`
	SenderName string `json:"sender_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Body       string `json:"body"`
	Read       bool   `json:"read"`
	CreatedAt  string `json:"created_at"`
}
