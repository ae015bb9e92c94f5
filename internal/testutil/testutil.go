// Package testutil provides fakes and fixtures for the OTP tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"otp-verification/pkg/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// NewConfig returns a config with production-like OTP policy and the
// cheapest bcrypt cost.
func NewConfig() *utils.Config {
	return &utils.Config{
		App: utils.AppConfig{
			Name: "otp-test",
			Env:  "test",
		},
		OTP: utils.OTPConfig{
			TTL:            10 * time.Minute,
			MaxAttempts:    5,
			ResendCooldown: time.Minute,
			CallTimeout:    2 * time.Second,
			HashCost:       bcrypt.MinCost,
		},
		Security: utils.SecurityConfig{
			APIKeys: []string{"test-key"},
		},
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Delivery is one recorded notifier call.
type Delivery struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// CaptureNotifier records every Send and fails with Err when it is set.
type CaptureNotifier struct {
	mu   sync.Mutex
	sent []Delivery
	Err  error
}

func (n *CaptureNotifier) Send(ctx context.Context, email, code string, expiresAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Delivery{Email: email, Code: code, ExpiresAt: expiresAt})
	return n.Err
}

func (n *CaptureNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// LastCode returns the most recent code sent to email.
func (n *CaptureNotifier) LastCode(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Email == email {
			return n.sent[i].Code
		}
	}
	require.FailNow(t, "no code sent", "email %s", email)
	return ""
}

// WrongCode returns a well-formed code different from code.
func WrongCode(code string) string {
	if code == "111111" {
		return "222222"
	}
	return "111111"
}
