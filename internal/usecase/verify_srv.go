package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"otp-verification/internal/data/entity"
	"otp-verification/internal/data/repository"
	"otp-verification/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Every lost compare-and-swap means another request committed, and a record
// admits at most MaxAttempts+1 commits, so this bound is never hit in
// practice.
const maxSwapRetries = 16

var errContention = errors.New("verification record kept changing")

type VerifyService interface {
	Verify(ctx context.Context, email, code string) error
}

type verifyService struct {
	*deps
	log *zap.Logger
}

func newVerifyService(d *deps) VerifyService {
	return &verifyService{
		deps: d,
		log:  d.log.With(zap.String("service", "verify")),
	}
}

// Verify checks code against the record for email. A mismatch is persisted
// as a failed attempt before ErrInvalidCode is returned; a match marks the
// record verified. Both writes go through CompareAndSwap and are retried on
// conflict, so concurrent attempts are never lost.
func (s *verifyService) Verify(ctx context.Context, rawEmail, rawCode string) (err error) {
	defer func() { s.metrics.VerifyResult(resultLabel(err)) }()

	// 1. Validasi input
	email := utils.NormalizeEmail(rawEmail)
	code := strings.TrimSpace(rawCode)
	if email == "" || code == "" {
		return fmt.Errorf("email and otp required: %w", ErrInvalidInput)
	}

	// The comparison result only depends on the issuance, so it is reused
	// across retries unless the record was replaced meanwhile.
	var (
		comparedID uuid.UUID
		matched    bool
	)

	for range maxSwapRetries {
		// 2. Load record
		var rec *entity.VerificationRecord
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			rec, err = s.repo.Verification.FindByEmail(ctx, email)
			return err
		})
		if err != nil {
			s.log.Error("Failed to load verification", zap.Error(err), zap.String("email", email))
			return unavailable("load verification", err)
		}

		// 3. State checks, in order
		if err := s.checkState(rec); err != nil {
			return fmt.Errorf("verify %s: %w", email, err)
		}

		// 4. Compare
		if rec.ID != comparedID {
			matched, err = matchCode(rec.CodeHash, code)
			if err != nil {
				s.log.Error("Failed to compare OTP", zap.Error(err), zap.String("email", email))
				return unavailable("compare otp", err)
			}
			comparedID = rec.ID
		}

		expected := rec.Version
		if matched {
			rec.Verified = true
		} else {
			rec.Attempts++
		}

		// 5. Persist before answering
		err = s.call(ctx, func(ctx context.Context) error {
			return s.repo.Verification.CompareAndSwap(ctx, rec, expected)
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			s.log.Debug("Verification changed underneath, retrying", zap.String("email", email))
			continue
		}
		if err != nil {
			s.log.Error("Failed to update verification", zap.Error(err), zap.String("email", email))
			return unavailable("update verification", err)
		}

		if !matched {
			s.log.Warn("Invalid OTP submitted",
				zap.String("email", email),
				zap.Int("attempts", rec.Attempts),
			)
			return fmt.Errorf("verify %s: %w", email, ErrInvalidCode)
		}

		s.log.Info("Email verified", zap.String("email", email))
		return nil
	}

	s.log.Error("Gave up verifying under contention", zap.String("email", email))
	return unavailable("verify", errContention)
}

func (s *verifyService) checkState(rec *entity.VerificationRecord) error {
	switch {
	case rec == nil:
		return ErrNotFound
	case rec.Verified:
		return ErrAlreadyVerified
	case rec.IsExpired(s.now()):
		return ErrExpired
	case rec.IsLocked(s.policy.MaxAttempts):
		return ErrTooManyAttempts
	default:
		return nil
	}
}
