// Package qrcode renders token payloads into scannable PNG images and
// round-trips the JSON payloads embedded in stored tokens.
package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	qr "github.com/skip2/go-qrcode"
)

const imageSize = 256

// RedeemPayload is embedded in redemption and product-claim tokens. It
// carries enough identifying data to re-validate the transaction at
// approval time; it is never trusted without re-checking the database.
type RedeemPayload struct {
	QRCodeID   int64     `json:"qrCodeId"`
	LineUserID string    `json:"lineUserId"`
	ProductID  int64     `json:"productId"`
	StockID    int64     `json:"stockId"`
	ColorID    int64     `json:"color"`
	SizeID     int64     `json:"size"`
	Point      int       `json:"point"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IdentityPayload is embedded in persistent member identity tokens.
type IdentityPayload struct {
	Fullname    string `json:"fullname"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
	Birthday    string `json:"birthday,omitempty"`
	Nationality string `json:"nationality"`
}

// StockPayload identifies a physical stock item on its printed label.
type StockPayload struct {
	Barcode   string `json:"barcode"`
	Name      string `json:"name"`
	ProductID int64  `json:"productId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// Encode marshals v to JSON and returns both the payload string and a
// base64 PNG data URL of the rendered QR image.
func Encode(v any) (payload string, dataURL string, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", "", fmt.Errorf("marshal qr payload: %w", err)
	}
	png, err := qr.Encode(string(raw), qr.Medium, imageSize)
	if err != nil {
		return "", "", fmt.Errorf("render qr image: %w", err)
	}
	return string(raw), "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeRedeemPayload parses the stored payload of a redeem/product token.
func DecodeRedeemPayload(code string) (*RedeemPayload, error) {
	var p RedeemPayload
	if err := json.Unmarshal([]byte(code), &p); err != nil {
		return nil, fmt.Errorf("decode qr payload: %w", err)
	}
	return &p, nil
}
