package dto

import "time"

// RedeemRequestDTO spends points on a product
type RedeemRequestDTO struct {
	LineUserID string `json:"lineUserId" validate:"required"`
	ProductID  int64  `json:"productId" validate:"required"`
}

type QRCodeDTO struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RedeemResponseDTO struct {
	Message         string     `json:"message"`
	Product         ProductDTO `json:"product"`
	RemainingPoints int        `json:"remainingPoints"`
	QRCode          QRCodeDTO  `json:"qrCode"`
	QRCodeImage     string     `json:"qrCodeImage"`
}

// ClaimRequestDTO issues an in-store claim token for a specific stock entry
type ClaimRequestDTO struct {
	LineUserID string `json:"lineUserId" validate:"required"`
	ProductID  int64  `json:"productId" validate:"required"`
	Color      string `json:"color" validate:"required"`
	Size       string `json:"size" validate:"required"`
}

type ClaimResponseDTO struct {
	QRCodeImage  string    `json:"qrCodeImage"`
	QRCodeExpiry time.Time `json:"qrCodeExpiry"`
	QRCodeID     int64     `json:"qrCodeId"`
}

// ApproveRequestDTO resolves a scanned token at the counter
type ApproveRequestDTO struct {
	QRCodeID int64 `json:"qrCodeId" validate:"required"`
}

type ApproveResponseDTO struct {
	Message         string `json:"message"`
	UpdatedStock    *int   `json:"updatedStock,omitempty"`
	RemainingPoints *int   `json:"remainingPoints,omitempty"`
}

type HistoryItemDTO struct {
	ID                 int64     `json:"id"`
	TransactionDate    time.Time `json:"transactionDate"`
	ProductID          int64     `json:"productId"`
	ProductName        string    `json:"productName"`
	ProductDescription string    `json:"productDescription"`
	ProductImage       *string   `json:"productImage"`
	PointsUsed         int       `json:"pointsUsed"`
	Color              string    `json:"color"`
	Size               string    `json:"size"`
	Quantity           int       `json:"quantity"`
}

type HistoryResponseDTO struct {
	Message string           `json:"message"`
	History []HistoryItemDTO `json:"history"`
}
