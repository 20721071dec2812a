package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation classifies driver errors for insert races: the
// storage-level uniqueness constraints are what turn check-then-insert
// into a safe no-op, so callers need to recognize the conflict.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite (dev driver) reports constraint failures by message only.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsSerializationFailure reports a Postgres serialization/deadlock abort;
// callers surface these as a retryable concurrency conflict.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
