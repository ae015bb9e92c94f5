package repository

import (
	"context"
	"fmt"

	"otp-verification/pkg/database"

	"go.uber.org/zap"
)

// UserRepository is the identity directory: it answers whether a committed
// account already owns an email.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

// ExistsByEmail does a keyed lookup on lower(email); email must already be
// normalized.
func (ur *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM users
			WHERE lower(email) = $1 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := ur.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		ur.log.Error("Failed to check user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return false, fmt.Errorf("check user by email %s: %w", email, err)
	}

	return exists, nil
}
