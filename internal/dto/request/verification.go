package request

import "strings"

type SendOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

func (r *SendOTPRequest) Trim() {
	r.Email = strings.TrimSpace(r.Email)
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

func (r *VerifyOTPRequest) Trim() {
	r.Email = strings.TrimSpace(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}
