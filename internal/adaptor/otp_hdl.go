package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"otp-verification/internal/dto/request"
	"otp-verification/internal/usecase"
	"otp-verification/pkg/utils"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; both payloads are a couple of short strings.
const maxBodyBytes = 4 << 10

// retryAfterSeconds tells clients a store or directory failure is transient.
const retryAfterSeconds = "5"

type OTPHandler struct {
	issuer   usecase.IssueService
	verifier usecase.VerifyService
	log      *zap.Logger
}

func NewOTPHandler(issuer usecase.IssueService, verifier usecase.VerifyService, log *zap.Logger) *OTPHandler {
	return &OTPHandler{
		issuer:   issuer,
		verifier: verifier,
		log:      log,
	}
}

// SendOTP handles POST /api/otp/send
func (h *OTPHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.SendOTPRequest

	if err := decode(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "invalid request body")
		return
	}

	req.Trim()
	if errs := utils.ValidateStruct(req); errs != nil {
		h.log.Debug("Send OTP rejected", zap.String("validation", utils.FormatValidationErrors(errs)))
		utils.ResponseBadRequest(w, "email required")
		return
	}

	issuance, err := h.issuer.Issue(r.Context(), req.Email)
	if err != nil {
		h.handleServiceError(w, r, err, "send otp", "invalid email")
		return
	}

	utils.ResponseJSON(w, http.StatusOK, utils.SuccessResponse{
		Success:  true,
		Message:  "otp sent",
		DebugOTP: issuance.DebugCode,
	})
}

// VerifyOTP handles POST /api/otp/verify
func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest

	if err := decode(w, r, &req); err != nil {
		utils.ResponseBadRequest(w, "invalid request body")
		return
	}

	req.Trim()
	if errs := utils.ValidateStruct(req); errs != nil {
		h.log.Debug("Verify OTP rejected", zap.String("validation", utils.FormatValidationErrors(errs)))
		utils.ResponseBadRequest(w, "email and otp required")
		return
	}

	if err := h.verifier.Verify(r.Context(), req.Email, req.OTP); err != nil {
		h.handleServiceError(w, r, err, "verify otp", "email and otp required")
		return
	}

	utils.ResponseSuccess(w, "email verified")
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// handleServiceError maps the usecase taxonomy to responses. Only the
// taxonomy label reaches the caller; the wrapped cause is logged.
// invalidMsg is the 400 message used for ErrInvalidInput.
func (h *OTPHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation, invalidMsg string) {
	log := h.log.With(zap.String("operation", operation))
	if id, ok := utils.GetRequestIDFromContext(r.Context()); ok {
		log = log.With(zap.String("request_id", id))
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		log.Warn(operation+" failed - invalid input", zap.Error(err))
		utils.ResponseBadRequest(w, invalidMsg)

	case errors.Is(err, usecase.ErrAlreadyRegistered):
		log.Warn(operation+" failed - already registered", zap.Error(err))
		utils.ResponseConflict(w, utils.ErrorResponse{
			Error:   "user already registered",
			Message: "an account with this email already exists, please sign in instead",
			Code:    "user_already_exists",
		})

	case errors.Is(err, usecase.ErrResendTooSoon):
		log.Warn(operation+" failed - resend too soon", zap.Error(err))
		utils.ResponseTooManyRequests(w, "resend too soon")

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "no verification request found")

	case errors.Is(err, usecase.ErrAlreadyVerified):
		log.Warn(operation+" failed - already verified", zap.Error(err))
		utils.ResponseBadRequest(w, "email already verified")

	case errors.Is(err, usecase.ErrExpired):
		log.Warn(operation+" failed - expired", zap.Error(err))
		utils.ResponseBadRequest(w, "otp expired")

	case errors.Is(err, usecase.ErrTooManyAttempts):
		log.Warn(operation+" failed - locked out", zap.Error(err))
		utils.ResponseTooManyRequests(w, "too many failed attempts")

	case errors.Is(err, usecase.ErrInvalidCode):
		log.Warn(operation+" failed - invalid otp", zap.Error(err))
		utils.ResponseBadRequest(w, "invalid otp")

	case errors.Is(err, usecase.ErrDeliveryFailed):
		log.Error("Failed to "+operation+" - delivery", zap.Error(err))
		utils.ResponseInternalError(w, "failed to send otp")

	case errors.Is(err, usecase.ErrUnavailable):
		log.Error("Failed to "+operation+" - unavailable", zap.Error(err))
		w.Header().Set("Retry-After", retryAfterSeconds)
		utils.ResponseInternalError(w, "internal server error")

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "internal server error")
	}
}
