package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otp-verification/internal/data/entity"
	"otp-verification/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrVersionConflict is returned by CompareAndSwap when the stored record is
// no longer the one the caller read: it was replaced, mutated or removed.
var ErrVersionConflict = errors.New("verification record version conflict")

// VerificationRepository stores one VerificationRecord per normalized email.
//
// FindByEmail returns (nil, nil) when no record exists. Upsert replaces any
// prior record and sets rec.Version to the stored version. CompareAndSwap
// persists Attempts and Verified only if the stored record still has rec.ID
// and expectedVersion; on success rec.Version is advanced.
type VerificationRepository interface {
	Upsert(ctx context.Context, rec *entity.VerificationRecord) error
	FindByEmail(ctx context.Context, email string) (*entity.VerificationRecord, error)
	CompareAndSwap(ctx context.Context, rec *entity.VerificationRecord, expectedVersion int64) error
}

type verificationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewVerificationRepository(db database.PgxIface, log *zap.Logger) VerificationRepository {
	return &verificationRepository{
		db:  db,
		log: log.With(zap.String("repository", "verification")),
	}
}

func (r *verificationRepository) Upsert(ctx context.Context, rec *entity.VerificationRecord) error {
	query := `
		INSERT INTO email_verifications (id, email, code_hash, issued_at, expires_at,
		                                 verified, attempts, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, 0, 1, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET id         = EXCLUDED.id,
		    code_hash  = EXCLUDED.code_hash,
		    issued_at  = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at,
		    verified   = false,
		    attempts   = 0,
		    version    = email_verifications.version + 1,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING version
	`

	var version int64
	err := r.db.QueryRow(ctx, query,
		rec.ID,
		rec.Email,
		rec.CodeHash,
		rec.IssuedAt,
		rec.ExpiresAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&version)

	if err != nil {
		r.log.Error("Failed to upsert verification",
			zap.Error(err),
			zap.String("email", rec.Email),
		)
		return fmt.Errorf("upsert verification for %s: %w", rec.Email, err)
	}

	rec.Verified = false
	rec.Attempts = 0
	rec.Version = version
	return nil
}

func (r *verificationRepository) FindByEmail(ctx context.Context, email string) (*entity.VerificationRecord, error) {
	query := `
		SELECT id, email, code_hash, issued_at, expires_at,
		       verified, attempts, version, created_at, updated_at
		FROM email_verifications
		WHERE email = $1
	`

	var rec entity.VerificationRecord
	err := r.db.QueryRow(ctx, query, email).Scan(
		&rec.ID,
		&rec.Email,
		&rec.CodeHash,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.Verified,
		&rec.Attempts,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find verification",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find verification for %s: %w", email, err)
	}

	return &rec, nil
}

func (r *verificationRepository) CompareAndSwap(ctx context.Context, rec *entity.VerificationRecord, expectedVersion int64) error {
	query := `
		UPDATE email_verifications
		SET verified   = $1,
		    attempts   = $2,
		    version    = version + 1,
		    updated_at = $3
		WHERE email = $4 AND id = $5 AND version = $6
	`

	now := time.Now()
	result, err := r.db.Exec(ctx, query,
		rec.Verified,
		rec.Attempts,
		now,
		rec.Email,
		rec.ID,
		expectedVersion,
	)
	if err != nil {
		r.log.Error("Failed to update verification",
			zap.Error(err),
			zap.String("email", rec.Email),
			zap.Int64("version", expectedVersion),
		)
		return fmt.Errorf("update verification for %s: %w", rec.Email, err)
	}

	if result.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	rec.Version = expectedVersion + 1
	rec.UpdatedAt = now
	return nil
}
