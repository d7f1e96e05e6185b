package models

import (
	"database/sql"
	"time"
)

// Account mirrors the ACCOUNTS table.
type Account struct {
	ID           string         `db:"ID"`
	LoginCode    string         `db:"LOGIN_CODE"`
	Email        string         `db:"EMAIL"`
	PasswordHash sql.NullString `db:"PASSWORD_HASH"`
	FullName     string         `db:"FULL_NAME"`
	Phone        sql.NullString `db:"PHONE"`
	ClassName    sql.NullString `db:"CLASS_NAME"`
	Role         string         `db:"ROLE"`
	CreatedAt    time.Time      `db:"CREATED_AT"`
	UpdatedAt    time.Time      `db:"UPDATED_AT"`
	DeletedAt    sql.NullTime   `db:"DELETED_AT"`
}

// DeviceRegistration mirrors the DEVICE_REGISTRATIONS table.
type DeviceRegistration struct {
	ID          string    `db:"ID"`
	AccountID   string    `db:"ACCOUNT_ID"`
	Fingerprint string    `db:"FINGERPRINT"`
	CreatedAt   time.Time `db:"CREATED_AT"`
}
