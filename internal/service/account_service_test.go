package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateStudent_Success(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil)
	var created *domain.Account
	accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*domain.Account")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Account) }).
		Return(nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))

	resp, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{
		Password:  "secret",
		FullName:  "  John Middle Last  ",
		Phone:     "11999990000",
		ClassName: "3prp",
	})
	assert.NoError(t, err)
	assert.NotNil(t, created)

	// The login code follows the unambiguous alphabet and is handed back.
	assert.True(t, util.IsValidLoginCode(resp.LoginID))
	assert.Equal(t, created.LoginCode, resp.LoginID)

	// The synthesized email derives from the login code.
	assert.Equal(t, strings.ToLower(resp.LoginID)+"@students.examroom.internal", created.Email)
	assert.Equal(t, "John Middle Last", created.FullName)
	assert.Equal(t, domain.RoleStudent, created.Role)

	// The stored hash verifies against the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret")))
}

func TestCreateStudent_RetriesOnLoginCodeCollision(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	// First generated code collides with an existing account; the second is free.
	accountRepo.On("GetAccountByLoginCode", mock.Anything, mock.AnythingOfType("string")).
		Return(&domain.Account{ID: "existing"}, nil).Once()
	accountRepo.On("GetAccountByLoginCode", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, nil).Once()
	accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil).Once()

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))

	resp, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{
		Password: "secret",
		FullName: "John Middle Last",
	})
	assert.NoError(t, err)
	assert.True(t, util.IsValidLoginCode(resp.LoginID))
	accountRepo.AssertExpectations(t)
}

func TestCreateStudent_RetriesOnInsertConflict(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil)
	// The unique index rejects a racing duplicate once, then the insert lands.
	accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*domain.Account")).
		Return(errors.New("ORA-00001: unique constraint violated")).Once()
	accountRepo.On("CreateAccount", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil).Once()

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))

	_, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{
		Password: "secret",
		FullName: "John Middle Last",
	})
	assert.NoError(t, err)
	accountRepo.AssertExpectations(t)
}

func TestCreateStudent_GivesUpAfterExhaustedRetries(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByLoginCode", mock.Anything, mock.AnythingOfType("string")).
		Return(&domain.Account{ID: "existing"}, nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))

	_, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{
		Password: "secret",
		FullName: "John Middle Last",
	})
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInternal, domainErr.Code)
	accountRepo.AssertNumberOfCalls(t, "GetAccountByLoginCode", loginCodeMaxRetries)
}

func TestCreateStudent_RejectsMissingName(t *testing.T) {
	svc := NewAccountService(new(MockAccountRepository), new(MockDeviceRepository))
	_, err := svc.CreateStudent(context.Background(), dto.CreateStudentRequest{Password: "secret"})
	assert.Error(t, err)
}

func TestDeleteStudent_ReleasesDeviceBinding(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("DeleteAccount", mock.Anything, "acc1").Return(nil)

	deviceRepo := new(MockDeviceRepository)
	deviceRepo.On("DeleteByAccountID", mock.Anything, "acc1").Return(nil)

	svc := NewAccountService(accountRepo, deviceRepo)
	assert.NoError(t, svc.DeleteStudent(context.Background(), "acc1"))
	deviceRepo.AssertExpectations(t)
	accountRepo.AssertExpectations(t)
}

func TestResetDevice_UnknownAccount(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByID", mock.Anything, "ghost").Return(nil, nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))
	err := svc.ResetDevice(context.Background(), "ghost")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotFound, domainErr.Code)
}

func TestUpdateStudent_ReplacesPasswordHash(t *testing.T) {
	existing := &domain.Account{
		ID:           "acc1",
		LoginCode:    "ABCD2345",
		FullName:     "John Middle Last",
		PasswordHash: "old-hash",
		Role:         domain.RoleStudent,
	}
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByID", mock.Anything, "acc1").Return(existing, nil)
	accountRepo.On("UpdateAccount", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.FullName == "John M Last" && a.ClassName == "8th" &&
			bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("newpass")) == nil
	})).Return(nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))
	resp, err := svc.UpdateStudent(context.Background(), "acc1", dto.UpdateStudentRequest{
		FullName:  " John M Last ",
		ClassName: "8th",
		Password:  "newpass",
	})
	assert.NoError(t, err)
	assert.Equal(t, "John M Last", resp.FullName)
	accountRepo.AssertExpectations(t)
}

func TestUpdateStudent_KeepsPasswordWhenOmitted(t *testing.T) {
	existing := &domain.Account{
		ID:           "acc1",
		LoginCode:    "ABCD2345",
		FullName:     "John Middle Last",
		PasswordHash: "old-hash",
		Role:         domain.RoleStudent,
	}
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByID", mock.Anything, "acc1").Return(existing, nil)
	accountRepo.On("UpdateAccount", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.PasswordHash == "old-hash"
	})).Return(nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))
	_, err := svc.UpdateStudent(context.Background(), "acc1", dto.UpdateStudentRequest{
		FullName: "John Middle Last",
	})
	assert.NoError(t, err)
	accountRepo.AssertExpectations(t)
}

func TestUpdateStudent_UnknownAccount(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	accountRepo.On("GetAccountByID", mock.Anything, "ghost").Return(nil, nil)

	svc := NewAccountService(accountRepo, new(MockDeviceRepository))
	_, err := svc.UpdateStudent(context.Background(), "ghost", dto.UpdateStudentRequest{FullName: "X Y Z"})
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotFound, domainErr.Code)
}
