package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/prvclub/backend/internal/api/v1/dto"
	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/service"
)

// OTPHandler serves email verification for members.
type OTPHandler struct {
	otpService service.OTPService
	validate   *validator.Validate
}

func NewOTPHandler(otpService service.OTPService, v *validator.Validate) *OTPHandler {
	return &OTPHandler{otpService: otpService, validate: v}
}

func (h *OTPHandler) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.Handle("/otp/request", http.HandlerFunc(h.requestOTP))
	mux.Handle("/otp/verify", http.HandlerFunc(h.verifyOTP))
}

func (h *OTPHandler) requestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.OTPRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID is required.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID is required.")
		return
	}

	userID, err := h.otpService.RequestOTP(r.Context(), req.LineUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrNoEmail):
			writeError(w, http.StatusBadRequest, "No email is associated with this user.")
		case errors.Is(err, service.ErrOTPRateLimited):
			writeError(w, http.StatusTooManyRequests, "An OTP has already been sent. Please wait before requesting a new one.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to send OTP.")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.OTPRequestResponseDTO{
		Message: "OTP has been sent to your email. Please verify within 5 minutes.",
		UserID:  userID,
	})
}

func (h *OTPHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.OTPVerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID and OTP code are required.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID and OTP code are required.")
		return
	}

	user, err := h.otpService.VerifyOTP(r.Context(), req.LineUserID, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrOTPNotFound):
			writeError(w, http.StatusNotFound, "No OTP request found for this user.")
		case errors.Is(err, service.ErrOTPInvalid):
			writeError(w, http.StatusBadRequest, "Invalid OTP code.")
		case errors.Is(err, service.ErrOTPExpired):
			writeError(w, http.StatusBadRequest, "OTP code has expired. Please request a new one.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to verify OTP.")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.OTPVerifyResponseDTO{
		Message: "Email verified successfully!",
		UserStatus: dto.UserStatusDTO{
			ID:         user.ID,
			IsVerified: true,
			Status:     model.StatusVerified,
		},
	})
}
