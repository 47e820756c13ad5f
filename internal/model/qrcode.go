package model

import "time"

// QRType tells what a scanned token stands for.
type QRType string

const (
	QRTypeUser    QRType = "user"    // persistent identity card
	QRTypeProduct QRType = "product" // in-store product claim
	QRTypeRedeem  QRType = "redeem"  // point redemption
)

// QRStatus is the token lifecycle. Tokens are single use: once used they
// never become active again. Expiry is checked against ExpiresAt at scan
// time, never transitioned explicitly.
type QRStatus string

const (
	QRStatusActive QRStatus = "active"
	QRStatusUsed   QRStatus = "used"
)

// QRCode is a single-use, time-limited token. Code holds the JSON payload
// that is re-validated against database state at approval time.
type QRCode struct {
	ID            int64      `db:"id" json:"id"`
	Code          string     `db:"code" json:"code"`
	Type          QRType     `db:"type" json:"type"`
	Status        QRStatus   `db:"status" json:"status"`
	ImageBase64   *string    `db:"image_base64" json:"image_base64,omitempty"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	LastScannedAt *time.Time `db:"last_scanned_at" json:"last_scanned_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// HistoryStatus is the redemption audit lifecycle.
type HistoryStatus string

const (
	HistoryPending  HistoryStatus = "pending"
	HistoryApproved HistoryStatus = "approved"
)

// History links a redemption attempt to its QR token and outcome.
type History struct {
	ID              int64         `db:"id" json:"id"`
	UserID          int64         `db:"user_id" json:"user_id"`
	ProductID       int64         `db:"product_id" json:"product_id"`
	ProductStockID  int64         `db:"product_stock_id" json:"product_stock_id"`
	QRCodeID        int64         `db:"qr_code_id" json:"qr_code_id"`
	Status          HistoryStatus `db:"status" json:"status"`
	TransactionDate time.Time     `db:"transaction_date" json:"transaction_date"`
}

// OTP is a one-time email verification code. At most one row per user.
type OTP struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Code      string    `db:"code" json:"code"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
