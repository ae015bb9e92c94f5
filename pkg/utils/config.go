package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvProduction = "production"

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	Email    EmailConfig
	OTP      OTPConfig
	Security SecurityConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig selects the backend holding verification records.
type StoreConfig struct {
	Driver    string // memory, postgres, redis
	Retention time.Duration
}

type EmailConfig struct {
	Driver   string // smtp, log
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	TLS      bool
}

type OTPConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	CallTimeout    time.Duration
	HashCost       int
	DebugEcho      bool
}

type SecurityConfig struct {
	APIKeys        []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, EnvProduction)
}

// LoadConfig reads an optional .env file, then environment variables.
// OTP_DEBUG_ECHO is forced off in production.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "otp-verification")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_RETENTION", "24h")
	v.SetDefault("EMAIL_DRIVER", "log")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TLS", true)
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_RESEND_COOLDOWN", "1m")
	v.SetDefault("OTP_CALL_TIMEOUT", "5s")
	v.SetDefault("OTP_HASH_COST", 10)
	v.SetDefault("OTP_DEBUG_ECHO", false)
	v.SetDefault("RATE_LIMIT_RPS", 1.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Env:     v.GetString("APP_ENV"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASS"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(v.GetString("STORE_DRIVER")),
			Retention: v.GetDuration("STORE_RETENTION"),
		},
		Email: EmailConfig{
			Driver:   strings.ToLower(v.GetString("EMAIL_DRIVER")),
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
			FromName: v.GetString("EMAIL_FROM_NAME"),
			TLS:      v.GetBool("SMTP_TLS"),
		},
		OTP: OTPConfig{
			TTL:            v.GetDuration("OTP_TTL"),
			MaxAttempts:    v.GetInt("OTP_MAX_ATTEMPTS"),
			ResendCooldown: v.GetDuration("OTP_RESEND_COOLDOWN"),
			CallTimeout:    v.GetDuration("OTP_CALL_TIMEOUT"),
			HashCost:       v.GetInt("OTP_HASH_COST"),
			DebugEcho:      v.GetBool("OTP_DEBUG_ECHO"),
		},
		Security: SecurityConfig{
			APIKeys:        splitList(v.GetString("API_KEYS")),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if config.IsProduction() {
		config.OTP.DebugEcho = false
	}

	return config, nil
}

// DebugEchoRequested reports whether OTP_DEBUG_ECHO was set in the
// environment, regardless of whether LoadConfig honoured it.
func DebugEchoRequested() bool {
	val := strings.TrimSpace(os.Getenv("OTP_DEBUG_ECHO"))
	return strings.EqualFold(val, "true") || val == "1"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
