package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"examroom/internal/config"
	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
)

// AuthService is the identity and device gate. Students log in with a login
// code, password and device fingerprint; admins sign in through Google.
type AuthService interface {
	// Login resolves a login code to an account, verifies the password and
	// enforces the one-device-per-account policy.
	Login(ctx context.Context, loginID, password, fingerprint string) (*dto.LoginResponse, error)
	GetGoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*dto.LoginResponse, error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(ctx context.Context, account *domain.Account, ttl time.Duration, tokenType string) (string, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (*dto.TokenResponse, error)
}

type authServiceImpl struct {
	accountRepo  domain.AccountRepository
	deviceRepo   domain.DeviceRepository
	oauth2Config *oauth2.Config
	appConfig    *config.Config
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(accountRepo domain.AccountRepository, deviceRepo domain.DeviceRepository, appConfig *config.Config) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}

	return &authServiceImpl{
		accountRepo: accountRepo,
		deviceRepo:  deviceRepo,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.Google.ClientID,
			ClientSecret: appConfig.Google.ClientSecret,
			RedirectURL:  appConfig.Google.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		appConfig: appConfig,
	}, nil
}

// Login implements the device-gated student login.
//
// Order matters: the fingerprint check runs only after the credentials are
// verified, and no tokens are issued until the fingerprint either matches
// this account or gets bound to it. A DeviceConflict therefore never leaves
// a partial session behind.
func (s *authServiceImpl) Login(ctx context.Context, loginID, password, fingerprint string) (*dto.LoginResponse, error) {
	appLogger := logger.Get()
	normalized := strings.ToUpper(strings.TrimSpace(loginID))

	account, err := s.accountRepo.GetAccountByLoginCode(ctx, normalized)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up account", err)
	}
	if account == nil {
		return nil, domain.NewInvalidLoginIDError(normalized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewInvalidCredentialsError()
	}

	reg, err := s.deviceRepo.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up device registration", err)
	}
	if reg != nil && reg.AccountID != account.ID {
		appLogger.Warn("Device conflict on login",
			zap.String("loginCode", normalized),
			zap.String("boundAccountID", reg.AccountID),
		)
		return nil, domain.NewDeviceConflictError()
	}
	if reg == nil {
		// Create-if-absent; the unique index on fingerprint resolves the
		// race where two first logins arrive at once.
		err := s.deviceRepo.Create(ctx, &domain.DeviceRegistration{
			ID:          util.NewULID(),
			AccountID:   account.ID,
			Fingerprint: fingerprint,
		})
		if err != nil {
			existing, lookupErr := s.deviceRepo.GetByFingerprint(ctx, fingerprint)
			if lookupErr == nil && existing != nil && existing.AccountID != account.ID {
				return nil, domain.NewDeviceConflictError()
			}
			if lookupErr != nil || existing == nil {
				return nil, domain.NewInternalError("failed to register device", err)
			}
		}
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	appLogger.Info("Student logged in", zap.String("accountID", account.ID))
	return &dto.LoginResponse{
		TokenResponse: *tokens,
		Account:       toAccountResponse(account),
	}, nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, account *domain.Account) (*dto.TokenResponse, error) {
	accessToken, err := s.CreateJWT(ctx, account, s.appConfig.JWT.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return nil, domain.NewInternalError("failed to create access token", err)
	}
	refreshToken, err := s.CreateJWT(ctx, account, s.appConfig.JWT.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return nil, domain.NewInternalError("failed to create refresh token", err)
	}
	return &dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// HandleGoogleCallback completes the admin OAuth flow. Only emails on the
// configured admin allow-list may sign in this way.
func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*dto.LoginResponse, error) {
	appLogger := logger.Get()
	if receivedState != expectedState {
		return nil, ErrInvalidAuthState
	}

	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err)
	}

	client := s.oauth2Config.Client(ctx, googleToken)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	var userInfo dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if userInfo.ID == "" || userInfo.Email == "" {
		return nil, errors.New("google user info is incomplete")
	}

	if !s.isAdminEmail(userInfo.Email) {
		appLogger.Warn("Non-admin Google sign-in rejected", zap.String("email", userInfo.Email))
		return nil, domain.NewForbiddenError("This Google account is not an administrator")
	}

	account, err := s.accountRepo.GetAccountByEmail(ctx, userInfo.Email)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up admin account", err)
	}
	if account == nil {
		loginCode, err := util.NewLoginCode()
		if err != nil {
			return nil, domain.NewInternalError("failed to generate login code", err)
		}
		account = domain.NewAccount(loginCode, userInfo.Email, userInfo.Name)
		account.ID = util.NewULID()
		account.Role = domain.RoleAdmin
		if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
			return nil, domain.NewInternalError("failed to create admin account", err)
		}
		appLogger.Info("Created admin account from Google sign-in", zap.String("accountID", account.ID))
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		TokenResponse: *tokens,
		Account:       toAccountResponse(account),
	}, nil
}

func (s *authServiceImpl) isAdminEmail(email string) bool {
	for _, allowed := range s.appConfig.Google.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}

type jwtClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// CreateJWT issues a signed token for the account.
func (s *authServiceImpl) CreateJWT(ctx context.Context, account *domain.Account, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		UserID:    account.ID,
		Role:      string(account.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.appConfig.JWT.SecretKey))
}

// ValidateJWT parses and verifies a token issued by CreateJWT.
func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.appConfig.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidJWTToken
	}

	return &dto.AuthClaims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		TokenType: claims.TokenType,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (*dto.TokenResponse, error) {
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, domain.NewUnauthorizedError("token is not a refresh token")
	}

	account, err := s.accountRepo.GetAccountByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up account", err)
	}
	if account == nil {
		return nil, domain.NewUnauthorizedError("account no longer exists")
	}

	return s.issueTokens(ctx, account)
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        a.ID,
		LoginCode: a.LoginCode,
		FullName:  a.FullName,
		Phone:     a.Phone,
		ClassName: a.ClassName,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}
