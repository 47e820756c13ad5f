package dto

import "time"

// AdminLoginDTO is the back-office login request
type AdminLoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AdminDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type AdminLoginResponseDTO struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	Admin   AdminDTO `json:"admin"`
}

type UserListItemDTO struct {
	ID             int64  `json:"id"`
	Fullname       string `json:"fullname"`
	Mobile         string `json:"mobile"`
	PrivilegeLevel string `json:"privilegeLevel"`
}

type UsersResponseDTO struct {
	Message string            `json:"message"`
	Users   []UserListItemDTO `json:"users"`
}

type PurchaseDataDTO struct {
	UserID         int64     `json:"userId"`
	PrvType        string    `json:"prvType"`
	IsPurchased    bool      `json:"isPurchased"`
	PrvExpiredDate time.Time `json:"prvExpiredDate"`
}

type PurchaseResponseDTO struct {
	Message string          `json:"message"`
	Data    PurchaseDataDTO `json:"data"`
}
