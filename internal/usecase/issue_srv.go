package usecase

import (
	"context"
	"fmt"
	"time"

	"otp-verification/internal/data/entity"
	"otp-verification/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Issuance acknowledges an accepted issue request. DebugCode is empty unless
// the debug echo is enabled outside production.
type Issuance struct {
	Email     string
	ExpiresAt time.Time
	DebugCode string
}

type IssueService interface {
	Issue(ctx context.Context, email string) (*Issuance, error)
}

type issueService struct {
	*deps
	log *zap.Logger
}

func newIssueService(d *deps) IssueService {
	return &issueService{
		deps: d,
		log:  d.log.With(zap.String("service", "issue")),
	}
}

// Issue starts (or restarts) verification for email: it refuses registered
// identities, replaces any prior record with a fresh code and hands the code
// to the notifier.
func (s *issueService) Issue(ctx context.Context, rawEmail string) (issuance *Issuance, err error) {
	defer func() { s.metrics.IssueResult(resultLabel(err)) }()

	// 1. Validasi input
	email := utils.NormalizeEmail(rawEmail)
	if email == "" {
		return nil, fmt.Errorf("email required: %w", ErrInvalidInput)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", ErrInvalidInput)
	}

	// 2. Cek email sudah terdaftar
	var exists bool
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		exists, err = s.repo.User.ExistsByEmail(ctx, email)
		return err
	})
	if err != nil {
		s.log.Error("Failed to check identity", zap.Error(err), zap.String("email", email))
		return nil, unavailable("check identity", err)
	}
	if exists {
		return nil, fmt.Errorf("issue for %s: %w", email, ErrAlreadyRegistered)
	}

	now := s.now()

	// 3. Resend cooldown
	if err := s.checkCooldown(ctx, email, now); err != nil {
		return nil, err
	}

	// 4. Generate OTP
	code, err := generateCode()
	if err != nil {
		s.log.Error("Failed to generate OTP", zap.Error(err), zap.String("email", email))
		return nil, unavailable("generate otp", err)
	}
	hash, err := hashCode(code, s.policy.HashCost)
	if err != nil {
		s.log.Error("Failed to hash OTP", zap.Error(err), zap.String("email", email))
		return nil, unavailable("hash otp", err)
	}

	rec := &entity.VerificationRecord{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:     email,
		CodeHash:  hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.policy.TTL),
	}

	// 5. Save (replace) verification
	err = s.call(ctx, func(ctx context.Context) error {
		return s.repo.Verification.Upsert(ctx, rec)
	})
	if err != nil {
		s.log.Error("Failed to save verification", zap.Error(err), zap.String("email", email))
		return nil, unavailable("save verification", err)
	}

	// 6. Deliver. The record stays even when this fails.
	err = s.call(ctx, func(ctx context.Context) error {
		return s.notifier.Send(ctx, email, code, rec.ExpiresAt)
	})
	if err != nil {
		s.log.Error("Failed to deliver OTP", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("deliver otp to %s: %w: %w", email, ErrDeliveryFailed, err)
	}

	s.log.Info("OTP issued",
		zap.String("email", email),
		zap.Time("expires_at", rec.ExpiresAt),
	)

	issuance = &Issuance{
		Email:     email,
		ExpiresAt: rec.ExpiresAt,
	}
	if s.policy.DebugEcho {
		issuance.DebugCode = code
	}

	return issuance, nil
}

// checkCooldown refuses a new code while an unverified one is younger than
// the resend cooldown.
func (s *issueService) checkCooldown(ctx context.Context, email string, now time.Time) error {
	if s.policy.ResendCooldown <= 0 {
		return nil
	}

	var prev *entity.VerificationRecord
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		prev, err = s.repo.Verification.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		s.log.Error("Failed to load verification", zap.Error(err), zap.String("email", email))
		return unavailable("load verification", err)
	}

	if prev != nil && !prev.Verified && now.Before(prev.IssuedAt.Add(s.policy.ResendCooldown)) {
		s.log.Warn("OTP resend refused",
			zap.String("email", email),
			zap.Time("issued_at", prev.IssuedAt),
		)
		return fmt.Errorf("issue for %s: %w", email, ErrResendTooSoon)
	}

	return nil
}
