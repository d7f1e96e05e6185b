package dto

// LoginRequest is the student login payload.
// @Description Request body for student login
type LoginRequest struct {
	LoginID     string `json:"login_id"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	TokenResponse
	Account AccountResponse `json:"account"`
}

// RefreshRequest carries a refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthClaims are the JWT claims this service issues.
type AuthClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID        string `json:"id"`
	LoginCode string `json:"login_code"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	ClassName string `json:"class_name,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// GoogleUserInfo is the subset of the Google userinfo payload we read.
type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
