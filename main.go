package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"otp-verification/cmd"
	"otp-verification/internal/data/repository"
	"otp-verification/internal/notifier"
	"otp-verification/internal/wire"
	"otp-verification/pkg/database"
	"otp-verification/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource so deferred closes and the log flush happen
// before the process exits.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("port", config.App.Port),
		zap.String("store", config.Store.Driver),
		zap.String("email", config.Email.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	if config.OTP.DebugEcho {
		logger.Warn("OTP debug echo is enabled; codes are returned in responses")
	} else if config.IsProduction() && utils.DebugEchoRequested() {
		logger.Warn("OTP_DEBUG_ECHO ignored in production")
	}

	repos, cleanup, err := openRepository(ctx, config, logger)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return fmt.Errorf("open store: %w", err)
	}
	defer cleanup()

	n, err := notifier.New(config.Email, config.IsProduction(), logger)
	if err != nil {
		logger.Error("Failed to init notifier", zap.Error(err))
		return fmt.Errorf("init notifier: %w", err)
	}

	// Wire all dependencies
	app := wire.Wiring(repos, n, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// openRepository builds the store selected by STORE_DRIVER. Redis keeps
// verification records only; the identity directory always reads Postgres
// when one is configured.
func openRepository(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	noop := func() {}

	switch config.Store.Driver {
	case "memory":
		if config.IsProduction() {
			logger.Warn("Memory store in production: records are lost on restart and not shared between instances")
		}
		logger.Warn("Memory store has an empty identity directory; every email counts as unregistered")
		return repository.NewMemoryRepository(), noop, nil

	case "postgres":
		db, err := database.InitDB(ctx, config.Database)
		if err != nil {
			return nil, noop, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("Database connected successfully")
		return repository.NewRepository(db, logger), db.Close, nil

	case "redis":
		rdb, err := database.InitRedis(ctx, config.Redis)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Redis connected successfully")

		repos := &repository.Repository{
			User:         repository.NewMemoryUserRepository(),
			Verification: repository.NewRedisVerificationRepository(rdb, config.Store.Retention, logger),
		}
		closers := []func(){func() { rdb.Close() }}

		if config.Database.Name != "" {
			db, err := database.InitDB(ctx, config.Database)
			if err != nil {
				rdb.Close()
				return nil, noop, err
			}
			repos.User = repository.NewUserRepository(db, logger)
			closers = append(closers, db.Close)
		} else {
			logger.Warn("DB_NAME not set; identity directory is empty and every email counts as unregistered")
		}

		return repos, func() {
			for _, c := range closers {
				c()
			}
		}, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
}
