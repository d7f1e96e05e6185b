package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

// setupAccountTestDB creates a new sqlx.DB instance and sqlmock for account repository testing.
func setupAccountTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock
}

func TestToDomainAccount(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	m := &models.Account{
		ID:           "acct1",
		LoginCode:    "AB23CD45",
		Email:        "ab23cd45@students.examroom.internal",
		PasswordHash: sql.NullString{String: "$2a$10$hash", Valid: true},
		FullName:     "Test Student Name",
		Phone:        sql.NullString{String: "0700000000", Valid: true},
		ClassName:    sql.NullString{String: "3prp", Valid: true},
		Role:         "student",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	a := toDomainAccount(m)
	assert.NotNil(t, a)
	assert.Equal(t, "AB23CD45", a.LoginCode)
	assert.Equal(t, "Test Student Name", a.FullName)
	assert.Equal(t, "3prp", a.ClassName)
	assert.Equal(t, domain.RoleStudent, a.Role)
	assert.False(t, a.IsAdmin())
	assert.Nil(t, a.DeletedAt)

	m.Phone.Valid = false
	m.ClassName.Valid = false
	a = toDomainAccount(m)
	assert.Equal(t, "", a.Phone)
	assert.Equal(t, "", a.ClassName)

	assert.Nil(t, toDomainAccount(nil))
}

func TestFromDomainAccount_RoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := &domain.Account{
		ID:        "acct1",
		LoginCode: "AB23CD45",
		Email:     "ab23cd45@students.examroom.internal",
		FullName:  "Test Student Name",
		Role:      domain.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m := fromDomainAccount(a)
	assert.Equal(t, a.ID, m.ID)
	assert.False(t, m.Phone.Valid, "empty phone becomes NULL")
	assert.False(t, m.DeletedAt.Valid)

	back := toDomainAccount(m)
	assert.Equal(t, a.LoginCode, back.LoginCode)
	assert.Equal(t, a.FullName, back.FullName)
}

func TestGetAccountByLoginCode_NormalizesToUppercase(t *testing.T) {
	db, mock := setupAccountTestDB(t)
	defer db.Close()
	repo := NewSQLXAccountRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"ID", "LOGIN_CODE", "EMAIL", "PASSWORD_HASH", "FULL_NAME", "PHONE",
		"CLASS_NAME", "ROLE", "CREATED_AT", "UPDATED_AT", "DELETED_AT",
	}).AddRow("acct1", "AB23CD45", "x@y", "$2a$10$hash", "Test Student Name", nil, "3prp", "student", now, now, nil)

	mock.ExpectQuery(regexp.QuoteMeta("LOGIN_CODE = :1")).
		WithArgs("AB23CD45").
		WillReturnRows(rows)

	account, err := repo.GetAccountByLoginCode(context.Background(), "ab23cd45")
	assert.NoError(t, err)
	assert.NotNil(t, account)
	assert.Equal(t, "AB23CD45", account.LoginCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByLoginCode_NotFound(t *testing.T) {
	db, mock := setupAccountTestDB(t)
	defer db.Close()
	repo := NewSQLXAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOGIN_CODE = :1")).
		WithArgs("ZZZZZZZZ").
		WillReturnError(sql.ErrNoRows)

	account, err := repo.GetAccountByLoginCode(context.Background(), "ZZZZZZZZ")
	assert.NoError(t, err, "a missing account is not a repository error")
	assert.Nil(t, account)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_GetByFingerprint_NotFound(t *testing.T) {
	db, mock := setupAccountTestDB(t)
	defer db.Close()
	repo := NewSQLXDeviceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FINGERPRINT = :1")).
		WithArgs("fp-unknown").
		WillReturnError(sql.ErrNoRows)

	reg, err := repo.GetByFingerprint(context.Background(), "fp-unknown")
	assert.NoError(t, err)
	assert.Nil(t, reg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Create(t *testing.T) {
	db, mock := setupAccountTestDB(t)
	defer db.Close()
	repo := NewSQLXDeviceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_registrations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &domain.DeviceRegistration{
		ID:          "dev1",
		AccountID:   "acct1",
		Fingerprint: "fp-1",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
