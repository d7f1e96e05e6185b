package service

import (
	"context"
	"fmt"
	"strings"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"
	"examroom/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Students have no email of their own; a synthetic address keeps the unique
// email column satisfied without collecting one.
const studentEmailDomain = "students.examroom.internal"

const loginCodeMaxRetries = 5

// AccountService manages student accounts on behalf of administrators.
type AccountService interface {
	// CreateStudent creates a student account with a freshly generated login
	// code and returns the code so the admin can hand it out.
	CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*dto.CreateStudentResponse, error)
	ListStudents(ctx context.Context, className string) ([]dto.AccountResponse, error)
	GetStudent(ctx context.Context, id string) (*dto.AccountResponse, error)
	// UpdateStudent edits name, phone and class; a non-empty password
	// replaces the stored hash.
	UpdateStudent(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.AccountResponse, error)
	// DeleteStudent soft-deletes the account and releases its device binding
	// so the hardware can be reused by a new account.
	DeleteStudent(ctx context.Context, id string) error
	// ResetDevice releases the account's device binding without deleting the
	// account, for students who switch machines.
	ResetDevice(ctx context.Context, id string) error
}

type accountServiceImpl struct {
	accountRepo domain.AccountRepository
	deviceRepo  domain.DeviceRepository
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(accountRepo domain.AccountRepository, deviceRepo domain.DeviceRepository) AccountService {
	return &accountServiceImpl{accountRepo: accountRepo, deviceRepo: deviceRepo}
}

func (s *accountServiceImpl) CreateStudent(ctx context.Context, req dto.CreateStudentRequest) (*dto.CreateStudentResponse, error) {
	appLogger := logger.Get()

	if strings.TrimSpace(req.FullName) == "" {
		return nil, domain.NewInvalidInputError("full name is required")
	}
	if len(req.Password) < 4 {
		return nil, domain.NewInvalidInputError("password must be at least 4 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	account, err := s.createWithFreshLoginCode(ctx, func(loginCode string) *domain.Account {
		a := domain.NewAccount(loginCode, fmt.Sprintf("%s@%s", strings.ToLower(loginCode), studentEmailDomain), strings.TrimSpace(req.FullName))
		a.ID = util.NewULID()
		a.PasswordHash = string(hash)
		a.Phone = strings.TrimSpace(req.Phone)
		a.ClassName = strings.TrimSpace(req.ClassName)
		return a
	})
	if err != nil {
		return nil, err
	}

	appLogger.Info("Student account created",
		zap.String("accountID", account.ID),
		zap.String("className", account.ClassName),
	)
	return &dto.CreateStudentResponse{
		LoginID: account.LoginCode,
		Account: toAccountResponse(account),
	}, nil
}

// createWithFreshLoginCode retries on login-code collisions. The 32-character
// alphabet over 8 positions makes collisions rare enough that a handful of
// retries is plenty.
func (s *accountServiceImpl) createWithFreshLoginCode(ctx context.Context, build func(loginCode string) *domain.Account) (*domain.Account, error) {
	for attempt := 0; attempt < loginCodeMaxRetries; attempt++ {
		loginCode, err := util.NewLoginCode()
		if err != nil {
			return nil, domain.NewInternalError("failed to generate login code", err)
		}

		existing, err := s.accountRepo.GetAccountByLoginCode(ctx, loginCode)
		if err != nil {
			return nil, domain.NewInternalError("failed to check login code uniqueness", err)
		}
		if existing != nil {
			continue
		}

		account := build(loginCode)
		if err := account.Validate(); err != nil {
			return nil, err
		}
		if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
			// The unique index may still reject a racing duplicate; try a
			// fresh code instead of surfacing the constraint error.
			logger.Get().Warn("Login code collision on insert, retrying", zap.Error(err))
			continue
		}
		return account, nil
	}
	return nil, domain.NewInternalError("failed to allocate a unique login code", nil)
}

func (s *accountServiceImpl) ListStudents(ctx context.Context, className string) ([]dto.AccountResponse, error) {
	accounts, err := s.accountRepo.ListStudents(ctx, className)
	if err != nil {
		return nil, domain.NewInternalError("failed to list students", err)
	}
	responses := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, toAccountResponse(&accounts[i]))
	}
	return responses, nil
}

func (s *accountServiceImpl) GetStudent(ctx context.Context, id string) (*dto.AccountResponse, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError("account not found")
	}
	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *accountServiceImpl) UpdateStudent(ctx context.Context, id string, req dto.UpdateStudentRequest) (*dto.AccountResponse, error) {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("failed to get account", err)
	}
	if account == nil {
		return nil, domain.NewNotFoundError("account not found")
	}

	if strings.TrimSpace(req.FullName) == "" {
		return nil, domain.NewInvalidInputError("full name is required")
	}
	account.FullName = strings.TrimSpace(req.FullName)
	account.Phone = strings.TrimSpace(req.Phone)
	account.ClassName = strings.TrimSpace(req.ClassName)

	if req.Password != "" {
		if len(req.Password) < 4 {
			return nil, domain.NewInvalidInputError("password must be at least 4 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, domain.NewInternalError("failed to hash password", err)
		}
		account.PasswordHash = string(hash)
	}

	if err := s.accountRepo.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	logger.Get().Info("Student account updated", zap.String("accountID", id))
	resp := toAccountResponse(account)
	return &resp, nil
}

func (s *accountServiceImpl) DeleteStudent(ctx context.Context, id string) error {
	if err := s.deviceRepo.DeleteByAccountID(ctx, id); err != nil {
		return domain.NewInternalError("failed to release device registrations", err)
	}
	if err := s.accountRepo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	logger.Get().Info("Student account deleted", zap.String("accountID", id))
	return nil
}

func (s *accountServiceImpl) ResetDevice(ctx context.Context, id string) error {
	account, err := s.accountRepo.GetAccountByID(ctx, id)
	if err != nil {
		return domain.NewInternalError("failed to get account", err)
	}
	if account == nil {
		return domain.NewNotFoundError("account not found")
	}
	if err := s.deviceRepo.DeleteByAccountID(ctx, id); err != nil {
		return domain.NewInternalError("failed to release device registrations", err)
	}
	logger.Get().Info("Device binding reset", zap.String("accountID", id))
	return nil
}
