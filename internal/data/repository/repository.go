package repository

import (
	"otp-verification/pkg/database"

	"go.uber.org/zap"
)

// Repository groups the two collaborators the OTP core reads and writes.
type Repository struct {
	User         UserRepository
	Verification VerificationRepository
}

// NewRepository keeps both users and verification records in Postgres.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Verification: NewVerificationRepository(db, log),
	}
}

// NewMemoryRepository is used by the memory store driver and by tests.
func NewMemoryRepository(emails ...string) *Repository {
	return &Repository{
		User:         NewMemoryUserRepository(emails...),
		Verification: NewMemoryVerificationRepository(),
	}
}
