package domain

import (
	"context"
	"time"
)

// Role distinguishes administrators from students.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Account represents a login account. Students authenticate with a
// human-typed 8-character login code; admins sign in through Google.
type Account struct {
	ID           string
	LoginCode    string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	ClassName    string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// NewAccount creates a new student Account instance
func NewAccount(loginCode, email, fullName string) *Account {
	now := time.Now()
	return &Account{
		LoginCode: loginCode,
		Email:     email,
		FullName:  fullName,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Validate validates the account
func (a *Account) Validate() error {
	if a.LoginCode == "" {
		return NewInvalidInputError("login code is required")
	}
	if a.Email == "" {
		return NewInvalidInputError("email is required")
	}
	if a.FullName == "" {
		return NewInvalidInputError("full name is required")
	}
	return nil
}

// DeviceRegistration binds a device fingerprint to the first account that
// logged in from it. A fingerprint is never rebound.
type DeviceRegistration struct {
	ID          string
	AccountID   string
	Fingerprint string
	CreatedAt   time.Time
}

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	GetAccountByLoginCode(ctx context.Context, loginCode string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	ListStudents(ctx context.Context, className string) ([]Account, error)
	UpdateAccount(ctx context.Context, account *Account) error
	DeleteAccount(ctx context.Context, id string) error
}

// DeviceRepository defines the interface for device registration persistence.
type DeviceRepository interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (*DeviceRegistration, error)
	Create(ctx context.Context, reg *DeviceRegistration) error
	DeleteByAccountID(ctx context.Context, accountID string) error
}
