package notifier

import (
	"context"
	"fmt"
	"time"

	"otp-verification/pkg/utils"

	"github.com/wneessen/go-mail"
)

// SMTPNotifier sends codes through an SMTP relay.
type SMTPNotifier struct {
	cfg utils.EmailConfig
}

func NewSMTPNotifier(cfg utils.EmailConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &SMTPNotifier{cfg: cfg}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, email, code string, expiresAt time.Time) error {
	msg, err := n.message(email, code, expiresAt)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host, n.options()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func (n *SMTPNotifier) message(to, code string, expiresAt time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if n.cfg.FromName != "" {
		if err := msg.FromFormat(n.cfg.FromName, n.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(n.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject())
	msg.SetBodyString(mail.TypeTextPlain, body(code, expiresAt))

	return msg, nil
}

func (n *SMTPNotifier) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}

	// Port 465 is implicit TLS, anything else negotiates STARTTLS.
	if n.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if n.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if n.cfg.User != "" && n.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.User),
			mail.WithPassword(n.cfg.Password),
		)
	}

	return opts
}
