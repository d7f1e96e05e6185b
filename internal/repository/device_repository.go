package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"examroom/internal/domain"
	"examroom/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxDeviceRepository implements domain.DeviceRepository using sqlx.
type sqlxDeviceRepository struct {
	db *sqlx.DB
}

// NewSQLXDeviceRepository creates a new instance of sqlxDeviceRepository.
func NewSQLXDeviceRepository(db *sqlx.DB) domain.DeviceRepository {
	return &sqlxDeviceRepository{db: db}
}

// GetByFingerprint returns the registration bound to a fingerprint, or nil.
func (r *sqlxDeviceRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.DeviceRegistration, error) {
	query := `SELECT ID, ACCOUNT_ID, FINGERPRINT, CREATED_AT FROM device_registrations WHERE FINGERPRINT = :1`

	executor := GetExecutor(ctx, r.db)
	var m models.DeviceRegistration
	err := executor.QueryRowContext(ctx, query, fingerprint).Scan(
		&m.ID,
		&m.AccountID,
		&m.Fingerprint,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device registration: %w", err)
	}

	return &domain.DeviceRegistration{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Fingerprint: m.Fingerprint,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// Create inserts a new fingerprint binding. The unique index on FINGERPRINT
// is the correctness backstop against concurrent first logins.
func (r *sqlxDeviceRepository) Create(ctx context.Context, reg *domain.DeviceRegistration) error {
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}

	query := `INSERT INTO device_registrations (ID, ACCOUNT_ID, FINGERPRINT, CREATED_AT) VALUES (:1, :2, :3, :4)`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query, reg.ID, reg.AccountID, reg.Fingerprint, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create device registration: %w", err)
	}
	return nil
}

// DeleteByAccountID removes all registrations owned by an account. Used when
// an admin deletes the account.
func (r *sqlxDeviceRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	query := `DELETE FROM device_registrations WHERE ACCOUNT_ID = :1`
	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to delete device registrations: %w", err)
	}
	return nil
}
