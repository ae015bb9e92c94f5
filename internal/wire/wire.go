package wire

import (
	"net/http"

	"otp-verification/internal/adaptor"
	"otp-verification/internal/data/repository"
	"otp-verification/internal/notifier"
	"otp-verification/internal/usecase"
	"otp-verification/pkg/metrics"
	"otp-verification/pkg/middleware"
	"otp-verification/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
	Metrics *metrics.Metrics
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	n notifier.Notifier,
	config *utils.Config,
	logger *zap.Logger,
	opts ...usecase.Option,
) *App {
	m := metrics.New("otp")

	opts = append([]usecase.Option{usecase.WithMetrics(m)}, opts...)
	service := usecase.NewService(repo, n, config, logger, opts...)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, m, config, logger)

	return &App{
		Router:  router,
		Service: service,
		Metrics: m,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	m *metrics.Metrics,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireOTP(r, handler.OTP, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}
