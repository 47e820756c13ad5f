package dto

// OTPRequestDTO asks for a verification code by email
type OTPRequestDTO struct {
	LineUserID string `json:"lineUserId" validate:"required"`
}

type OTPRequestResponseDTO struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// OTPVerifyDTO submits the received code
type OTPVerifyDTO struct {
	LineUserID string `json:"lineUserId" validate:"required"`
	OTPCode    string `json:"otpCode" validate:"required"`
}

type UserStatusDTO struct {
	ID         int64 `json:"id"`
	IsVerified bool  `json:"isVerified"`
	Status     int   `json:"status"`
}

type OTPVerifyResponseDTO struct {
	Message    string        `json:"message"`
	UserStatus UserStatusDTO `json:"userStatus"`
}
