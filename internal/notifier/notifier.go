// Package notifier delivers one-time passcodes to the address being verified.
package notifier

import (
	"context"
	"fmt"
	"time"

	"otp-verification/pkg/utils"

	"go.uber.org/zap"
)

// Notifier sends a code out of band. A returned error means delivery was not
// confirmed; it says nothing about the stored record.
type Notifier interface {
	Send(ctx context.Context, email, code string, expiresAt time.Time) error
}

// New picks the delivery driver from config. The log driver writes codes in
// clear text and is refused in production.
func New(cfg utils.EmailConfig, production bool, log *zap.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPNotifier(cfg)
	case "log", "":
		if production {
			return nil, fmt.Errorf("email driver %q is not allowed in production", "log")
		}
		return NewLogNotifier(log), nil
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.Driver)
	}
}

func subject() string {
	return "Your verification code"
}

func body(code string, expiresAt time.Time) string {
	return fmt.Sprintf("Your verification code is %s.\n\n"+
		"It expires at %s. If you did not request it, you can ignore this email.\n",
		code, expiresAt.UTC().Format("15:04 MST"))
}
