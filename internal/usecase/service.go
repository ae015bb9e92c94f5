package usecase

import (
	"context"
	"time"

	"otp-verification/internal/data/repository"
	"otp-verification/internal/notifier"
	"otp-verification/pkg/metrics"
	"otp-verification/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTTL         = 10 * time.Minute
	defaultMaxAttempts = 5
	defaultCallTimeout = 5 * time.Second
)

type Service struct {
	Issue  IssueService
	Verify VerifyService
}

// Option tweaks the shared dependencies of both services.
type Option func(*deps)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) {
		d.metrics = m
	}
}

type deps struct {
	repo     *repository.Repository
	notifier notifier.Notifier
	policy   utils.OTPConfig
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	repo *repository.Repository,
	n notifier.Notifier,
	config *utils.Config,
	log *zap.Logger,
	opts ...Option,
) *Service {
	d := &deps{
		repo:     repo,
		notifier: n,
		policy:   normalizePolicy(config.OTP, config.IsProduction()),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return &Service{
		Issue:  newIssueService(d),
		Verify: newVerifyService(d),
	}
}

// normalizePolicy fills defaults. The debug echo never survives production,
// however the config was built.
func normalizePolicy(p utils.OTPConfig, production bool) utils.OTPConfig {
	if production {
		p.DebugEcho = false
	}
	if p.TTL <= 0 {
		p.TTL = defaultTTL
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = defaultCallTimeout
	}
	if p.ResendCooldown < 0 {
		p.ResendCooldown = 0
	}
	if p.HashCost < bcrypt.MinCost || p.HashCost > bcrypt.MaxCost {
		p.HashCost = bcrypt.DefaultCost
	}
	return p
}

// call bounds one collaborator call by the configured timeout.
func (d *deps) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.policy.CallTimeout)
	defer cancel()
	return fn(ctx)
}
