package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"
	"examroom/internal/util"

	"github.com/jmoiron/sqlx"
)

const accountColumns = "ID, LOGIN_CODE, EMAIL, PASSWORD_HASH, FULL_NAME, PHONE, CLASS_NAME, ROLE, CREATED_AT, UPDATED_AT, DELETED_AT"

// sqlxAccountRepository implements domain.AccountRepository using sqlx.
type sqlxAccountRepository struct {
	db *sqlx.DB
}

// NewSQLXAccountRepository creates a new instance of sqlxAccountRepository.
func NewSQLXAccountRepository(db *sqlx.DB) domain.AccountRepository {
	return &sqlxAccountRepository{db: db}
}

func toDomainAccount(m *models.Account) *domain.Account {
	if m == nil {
		return nil
	}
	var deletedAt *time.Time
	if m.DeletedAt.Valid {
		deletedAt = &m.DeletedAt.Time
	}
	return &domain.Account{
		ID:           m.ID,
		LoginCode:    m.LoginCode,
		Email:        m.Email,
		PasswordHash: m.PasswordHash.String,
		FullName:     m.FullName,
		Phone:        m.Phone.String,
		ClassName:    m.ClassName.String,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		DeletedAt:    deletedAt,
	}
}

func fromDomainAccount(a *domain.Account) *models.Account {
	if a == nil {
		return nil
	}
	var deletedAt sql.NullTime
	if a.DeletedAt != nil {
		deletedAt = util.TimeToNullTime(*a.DeletedAt)
	}
	return &models.Account{
		ID:           a.ID,
		LoginCode:    a.LoginCode,
		Email:        a.Email,
		PasswordHash: util.StringToNullString(a.PasswordHash),
		FullName:     a.FullName,
		Phone:        util.StringToNullString(a.Phone),
		ClassName:    util.StringToNullString(a.ClassName),
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		DeletedAt:    deletedAt,
	}
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.ID,
		&m.LoginCode,
		&m.Email,
		&m.PasswordHash,
		&m.FullName,
		&m.Phone,
		&m.ClassName,
		&m.Role,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateAccount inserts a new account.
func (r *sqlxAccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	m := fromDomainAccount(account)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.UpdatedAt = time.Now()

	query := `INSERT INTO accounts (` + accountColumns + `)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		m.ID,
		m.LoginCode,
		m.Email,
		m.PasswordHash,
		m.FullName,
		m.Phone,
		m.ClassName,
		m.Role,
		m.CreatedAt,
		m.UpdatedAt,
		m.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *sqlxAccountRepository) getAccountWhere(ctx context.Context, where string, arg interface{}) (*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s AND DELETED_AT IS NULL`, accountColumns, where)
	executor := GetExecutor(ctx, r.db)
	m, err := scanAccount(executor.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return toDomainAccount(m), nil
}

// GetAccountByID retrieves an account by its ID.
func (r *sqlxAccountRepository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getAccountWhere(ctx, "ID = :1", id)
}

// GetAccountByLoginCode retrieves an account by its normalized login code.
func (r *sqlxAccountRepository) GetAccountByLoginCode(ctx context.Context, loginCode string) (*domain.Account, error) {
	return r.getAccountWhere(ctx, "LOGIN_CODE = :1", strings.ToUpper(loginCode))
}

// GetAccountByEmail retrieves an account by email.
func (r *sqlxAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getAccountWhere(ctx, "EMAIL = :1", email)
}

// ListStudents returns all student accounts, optionally filtered by class.
func (r *sqlxAccountRepository) ListStudents(ctx context.Context, className string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ROLE = 'student' AND DELETED_AT IS NULL`
	var args []interface{}
	if className != "" {
		query += " AND CLASS_NAME = :1"
		args = append(args, className)
	}
	query += " ORDER BY FULL_NAME"

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var m models.Account
		if err := rows.Scan(
			&m.ID,
			&m.LoginCode,
			&m.Email,
			&m.PasswordHash,
			&m.FullName,
			&m.Phone,
			&m.ClassName,
			&m.Role,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *toDomainAccount(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount updates the mutable account fields.
func (r *sqlxAccountRepository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	m := fromDomainAccount(account)
	m.UpdatedAt = time.Now()

	query := `UPDATE accounts
	          SET FULL_NAME = :1, PHONE = :2, CLASS_NAME = :3, PASSWORD_HASH = :4, UPDATED_AT = :5
	          WHERE ID = :6 AND DELETED_AT IS NULL`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		m.FullName,
		m.Phone,
		m.ClassName,
		m.PasswordHash,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("account not found: %s", account.ID))
	}
	return nil
}

// DeleteAccount soft-deletes an account.
func (r *sqlxAccountRepository) DeleteAccount(ctx context.Context, id string) error {
	query := `UPDATE accounts SET DELETED_AT = :1, UPDATED_AT = :1 WHERE ID = :2 AND DELETED_AT IS NULL`
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("account not found: %s", id))
	}
	return nil
}
