package service

import (
	"context"
	"testing"
	"time"

	"examroom/internal/config"
	"examroom/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "0123456789abcdef0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Google: config.GoogleOAuthConfig{
			AdminEmails: []string{"admin@example.com"},
		},
	}
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func studentAccount(t *testing.T) *domain.Account {
	return &domain.Account{
		ID:           "acc1",
		LoginCode:    "ABCD2345",
		Email:        "abcd2345@students.examroom.internal",
		PasswordHash: hashedPassword(t, "secret"),
		FullName:     "Test Student Name",
		Role:         domain.RoleStudent,
		CreatedAt:    time.Now(),
	}
}

func TestLogin_UnknownLoginCode(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, "ABCD2345").Return(nil, nil)

	svc, err := NewAuthService(accountRepo, new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	// Lowercase input is normalized before the lookup.
	_, err = svc.Login(context.Background(), "abcd2345", "secret", "fp1")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidLoginID, domainErr.Code)
	accountRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, "ABCD2345").Return(studentAccount(t), nil)

	svc, err := NewAuthService(accountRepo, new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), "ABCD2345", "nope", "fp1")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidCredentials, domainErr.Code)
}

func TestLogin_DeviceBoundToAnotherAccount(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, "ABCD2345").Return(studentAccount(t), nil)

	deviceRepo := new(MockDeviceRepository)
	deviceRepo.On("GetByFingerprint", mock.Anything, "fp1").
		Return(&domain.DeviceRegistration{ID: "reg1", AccountID: "otherAccount", Fingerprint: "fp1"}, nil)

	svc, err := NewAuthService(accountRepo, deviceRepo, authTestConfig())
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), "ABCD2345", "secret", "fp1")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeDeviceConflict, domainErr.Code)
	// No registration was created for the conflicting device.
	deviceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_FirstDeviceGetsBound(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, "ABCD2345").Return(studentAccount(t), nil)

	deviceRepo := new(MockDeviceRepository)
	deviceRepo.On("GetByFingerprint", mock.Anything, "fp1").Return(nil, nil)
	deviceRepo.On("Create", mock.Anything, mock.MatchedBy(func(reg *domain.DeviceRegistration) bool {
		return reg.AccountID == "acc1" && reg.Fingerprint == "fp1"
	})).Return(nil)

	svc, err := NewAuthService(accountRepo, deviceRepo, authTestConfig())
	assert.NoError(t, err)

	resp, err := svc.Login(context.Background(), "ABCD2345", "secret", "fp1")
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ABCD2345", resp.Account.LoginCode)
	deviceRepo.AssertExpectations(t)
}

func TestLogin_SameDeviceSameAccount(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, "ABCD2345").Return(studentAccount(t), nil)

	deviceRepo := new(MockDeviceRepository)
	deviceRepo.On("GetByFingerprint", mock.Anything, "fp1").
		Return(&domain.DeviceRegistration{ID: "reg1", AccountID: "acc1", Fingerprint: "fp1"}, nil)

	svc, err := NewAuthService(accountRepo, deviceRepo, authTestConfig())
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), "ABCD2345", "secret", "fp1")
	assert.NoError(t, err)
	deviceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestJWT_RoundTrip(t *testing.T) {
	svc, err := NewAuthService(new(MockAccountRepository), new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	account := studentAccount(t)
	token, err := svc.CreateJWT(context.Background(), account, time.Minute, "access")
	assert.NoError(t, err)

	claims, err := svc.ValidateJWT(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, "acc1", claims.UserID)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestJWT_ExpiredTokenRejected(t *testing.T) {
	svc, err := NewAuthService(new(MockAccountRepository), new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	token, err := svc.CreateJWT(context.Background(), studentAccount(t), -time.Minute, "access")
	assert.NoError(t, err)

	_, err = svc.ValidateJWT(context.Background(), token)
	assert.Error(t, err)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	svc, err := NewAuthService(accountRepo, new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	token, err := svc.CreateJWT(context.Background(), studentAccount(t), time.Minute, "access")
	assert.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), token)
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeUnauthorized, domainErr.Code)
}

func TestRefreshToken_IssuesNewPair(t *testing.T) {
	account := studentAccount(t)
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByID", mock.Anything, "acc1").Return(account, nil)

	svc, err := NewAuthService(accountRepo, new(MockDeviceRepository), authTestConfig())
	assert.NoError(t, err)

	refresh, err := svc.CreateJWT(context.Background(), account, time.Minute, "refresh")
	assert.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), refresh)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestNewAuthService_ShortSecretRejected(t *testing.T) {
	cfg := authTestConfig()
	cfg.JWT.SecretKey = "short"
	_, err := NewAuthService(new(MockAccountRepository), new(MockDeviceRepository), cfg)
	assert.Error(t, err)
}
