package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogNotifier writes the code to the application log instead of mailing it.
// Only meant for local development.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Send(ctx context.Context, email, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.Info("OTP generated",
		zap.String("email", email),
		zap.String("otp_code", code),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}
