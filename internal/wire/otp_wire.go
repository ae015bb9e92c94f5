package wire

import (
	"net/http"

	"otp-verification/internal/adaptor"
	"otp-verification/pkg/middleware"
	"otp-verification/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireOTP(
	r chi.Router,
	otpHandler *adaptor.OTPHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	limiter := middleware.NewKeyedLimiter(
		config.Security.RateLimitRPS,
		config.Security.RateLimitBurst,
		0,
	)

	routes := map[string]http.HandlerFunc{
		"/api/otp/send":   otpHandler.SendOTP,
		"/api/otp/verify": otpHandler.VerifyOTP,

		// Paths used by clients of the previous deployment.
		"/functions/v1/send-otp":   otpHandler.SendOTP,
		"/functions/v1/verify-otp": otpHandler.VerifyOTP,
	}

	r.Group(func(r chi.Router) {
		// CORS answers preflights before the auth gate sees them.
		r.Use(middleware.CORS())
		r.Use(middleware.RequireAuthorization(config.Security.APIKeys, log))
		r.Use(middleware.RateLimit(limiter, log))

		for path, h := range routes {
			r.Post(path, h)
			r.Options(path, http.NotFound)
		}
	})
}
