package utils_test

import (
	"testing"
	"time"

	"otp-verification/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := utils.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "log", cfg.Email.Driver)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.OTP.ResendCooldown)
	assert.Equal(t, 5*time.Second, cfg.OTP.CallTimeout)
	assert.False(t, cfg.OTP.DebugEcho)
	assert.Empty(t, cfg.Security.APIKeys)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("OTP_RESEND_COOLDOWN", "0s")
	t.Setenv("OTP_DEBUG_ECHO", "true")
	t.Setenv("API_KEYS", " k1, ,k2 ")

	cfg, err := utils.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Zero(t, cfg.OTP.ResendCooldown)
	assert.True(t, cfg.OTP.DebugEcho)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Security.APIKeys)
}

func TestLoadConfig_ProductionDisablesDebugEcho(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTP_DEBUG_ECHO", "true")

	cfg, err := utils.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.OTP.DebugEcho)
	assert.True(t, utils.DebugEchoRequested())
}
