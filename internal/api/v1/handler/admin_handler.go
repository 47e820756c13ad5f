package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prvclub/backend/internal/api/v1/dto"
	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/service"
)

/// AdminHandler serves the back-office surface: login, member listing,
// license purchase, the expense ledger and QR approval.
type AdminHandler struct {
	authService      service.AuthService
	privilegeService service.PrivilegeService
	redemptionSvc    service.RedemptionService
	validate         *validator.Validate
}

func NewAdminHandler(
	authService service.AuthService,
	privilegeService service.PrivilegeService,
	redemptionSvc service.RedemptionService,
	v *validator.Validate,
) *AdminHandler {
	return &AdminHandler{
		authService:      authService,
		privilegeService: privilegeService,
		redemptionSvc:    redemptionSvc,
		validate:         v,
	}
}

// RegisterRoutes mounts the admin routes. Everything except login sits
// behind the session-token middleware.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/login", http.HandlerFunc(h.login))
	mux.Handle("/admin/users", authMw(http.HandlerFunc(h.listUsers)))
	mux.Handle("/admin/users/", authMw(http.HandlerFunc(h.handleUser)))
	mux.Handle("/admin/expenses/", authMw(http.HandlerFunc(h.deleteExpense)))
	mux.Handle("/admin/qrcodes/approve", authMw(http.HandlerFunc(h.approveQRCode)))
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.AdminLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	admin, token, err := h.authService.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.AdminLoginResponseDTO{
		Message: "Login successful",
		Token:   token,
		Admin:   dto.AdminDTO{ID: admin.ID, Username: admin.Username, Role: admin.Role},
	})
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.privilegeService.ListUsers(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	items := make([]dto.UserListItemDTO, 0, len(users))
	for _, u := range users {
		level := "No Privilege"
		if u.Tier != nil {
			level = string(*u.Tier)
		}
		mobile := u.User.Mobile
		if mobile == "" {
			mobile = "N/A"
		}
		items = append(items, dto.UserListItemDTO{
			ID:             u.User.ID,
			Fullname:       u.User.Fullname(),
			Mobile:         mobile,
			PrivilegeLevel: level,
		})
	}

	writeJSON(w, http.StatusOK, dto.UsersResponseDTO{
		Message: "Users retrieved successfully!",
		Users:   items,
	})
}

// handleUser dispatches /admin/users/{userId}/purchase and
// /admin/users/{userId}/expenses.
func (h *AdminHandler) handleUser(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	switch {
	case parts[1] == "purchase" && r.Method == http.MethodPost:
		h.purchaseLicense(w, r, userID)
	case parts[1] == "expenses" && r.Method == http.MethodGet:
		h.showExpenses(w, r, userID)
	case parts[1] == "expenses" && r.Method == http.MethodPost:
		h.addExpense(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

func (h *AdminHandler) purchaseLicense(w http.ResponseWriter, r *http.Request, userID int64) {
	privilege, err := h.privilegeService.PurchaseLicense(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrPrivilegeNotFound):
			writeError(w, http.StatusNotFound, "Privilege not found for this user")
		case errors.Is(err, service.ErrAlreadyPurchased):
			writeError(w, http.StatusBadRequest, "User has already purchased a license")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchaseResponseDTO{
		Message: "License purchased successfully",
		Data: dto.PurchaseDataDTO{
			UserID:         userID,
			PrvType:        string(privilege.Tier),
			IsPurchased:    privilege.IsPurchased,
			PrvExpiredDate: privilege.ExpiresAt,
		},
	})
}

func (h *AdminHandler) showExpenses(w http.ResponseWriter, r *http.Request, userID int64) {
	report, err := h.privilegeService.ShowExpenses(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrPrivilegeNotFound) {
			writeError(w, http.StatusNotFound, "Privilege not found for this user.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := dto.ExpenseReportResponseDTO{
		Message: "Expense history retrieved successfully",
		Data: dto.ExpenseReportDataDTO{
			TotalAmountPerYear: report.Privilege.TotalAmountPerYear,
			PrvType:            string(report.Privilege.Tier),
			CurrentPoint:       report.Privilege.CurrentPoint,
			Expenses:           make([]dto.ExpenseDTO, 0, len(report.Expenses)),
		},
	}
	if len(report.Expenses) == 0 {
		resp.Message = "No expenses found for this user"
	}
	for _, e := range report.Expenses {
		resp.Data.Expenses = append(resp.Data.Expenses, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) addExpense(w http.ResponseWriter, r *http.Request, userID int64) {
	var req dto.ExpenseCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	transactionDate, err := time.Parse(time.RFC3339, req.TransactionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction date")
		return
	}

	expense, privilege, err := h.privilegeService.AddExpense(r.Context(), userID, req.ExpenseAmount, transactionDate)
	if err != nil {
		if errors.Is(err, service.ErrPrivilegeNotFound) {
			writeError(w, http.StatusNotFound, "Privilege not found for this user.")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, dto.AddExpenseResponseDTO{
		Message:   "Expense added successfully!",
		Expense:   toExpenseDTO(*expense),
		Privilege: toPrivilegeDTO(privilege),
	})
}

func (h *AdminHandler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/admin/expenses/")
	expenseID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || expenseID <= 0 {
		writeError(w, http.StatusBadRequest, "Expense ID is required")
		return
	}

	privilege, err := h.privilegeService.DeleteExpense(r.Context(), expenseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExpenseNotFound):
			writeError(w, http.StatusNotFound, "Expense not found.")
		case errors.Is(err, service.ErrPrivilegeNotFound):
			writeError(w, http.StatusNotFound, "Privilege not found for this user.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteExpenseResponseDTO{
		Message:          "Expense deleted successfully and privilege updated",
		UpdatedPrivilege: toPrivilegeDTO(privilege),
	})
}

func (h *AdminHandler) approveQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.ApproveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing QR Code ID.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing QR Code ID.")
		return
	}

	result, err := h.redemptionSvc.ApproveQRCode(r.Context(), req.QRCodeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQRCodeNotFound):
			writeError(w, http.StatusNotFound, "QR Code not found.")
		case errors.Is(err, service.ErrQRCodeAlreadyUsed):
			writeError(w, http.StatusBadRequest, "QR Code has already been used or is not active.")
		case errors.Is(err, service.ErrQRCodeExpired):
			writeError(w, http.StatusBadRequest, "QR Code has expired.")
		case errors.Is(err, service.ErrQRCodeCorrupted):
			writeError(w, http.StatusBadRequest, "QR Code data is invalid or corrupted.")
		case errors.Is(err, service.ErrPrivilegeNotFound):
			writeError(w, http.StatusNotFound, "Privilege not found for user.")
		case errors.Is(err, service.ErrInsufficientPoints):
			writeError(w, http.StatusBadRequest, "Insufficient points.")
		case errors.Is(err, service.ErrOutOfStock):
			writeError(w, http.StatusBadRequest, "Product out of stock.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to approve QR Code.")
		}
		return
	}

	if result.AlreadyScanned {
		writeMessage(w, http.StatusOK, "QR Code has already been used or is not active.")
		return
	}

	writeJSON(w, http.StatusOK, dto.ApproveResponseDTO{
		Message:         "QR Code approved successfully!",
		UpdatedStock:    &result.UpdatedStock,
		RemainingPoints: &result.RemainingPoints,
	})
}

func toExpenseDTO(e model.Expense) dto.ExpenseDTO {
	return dto.ExpenseDTO{
		ID:              e.ID,
		ExpenseAmount:   e.Amount,
		TransactionDate: e.TransactionDate,
		PrvType:         string(e.Tier),
		ExpensePoint:    e.Points,
	}
}

func toPrivilegeDTO(p *model.Privilege) dto.PrivilegeDTO {
	return dto.PrivilegeDTO{
		ID:                 p.ID,
		UserID:             p.UserID,
		PrvType:            string(p.Tier),
		PrvExpiredDate:     p.ExpiresAt,
		CurrentAmount:      p.CurrentAmount,
		TotalAmountPerYear: p.TotalAmountPerYear,
		CurrentPoint:       p.CurrentPoint,
		PrvLicenseID:       p.LicenseID,
		IsPurchased:        p.IsPurchased,
	}
}
