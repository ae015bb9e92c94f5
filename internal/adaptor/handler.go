package adaptor

import (
	"otp-verification/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	OTP *OTPHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		OTP: NewOTPHandler(service.Issue, service.Verify, log),
	}
}
