package dto

import "time"

type PrivilegeSummaryDTO struct {
	Fullname       string     `json:"fullname"`
	Mobile         string     `json:"mobile"`
	Email          string     `json:"email"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	Nationality    string     `json:"nationality"`
	PrvType        string     `json:"prvType"`
	PrvExpiredDate time.Time  `json:"prvExpiredDate"`
	CurrentPoint   int        `json:"currentPoint"`
	PrvLicenseID   string     `json:"prvLicenseId"`
	RegisteredDate time.Time  `json:"registeredDate"`
	QRCodeBase64   string     `json:"qrCodeBase64"`
}

type PrivilegeResponseDTO struct {
	Success bool                `json:"success"`
	Data    PrivilegeSummaryDTO `json:"data"`
}
