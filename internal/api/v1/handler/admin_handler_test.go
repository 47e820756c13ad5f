package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/repository"
	"github.com/prvclub/backend/internal/service"
)

type authServiceStub struct {
	adminLogin func(ctx context.Context, username, password string) (*model.Admin, string, error)
}

func (s *authServiceStub) AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error) {
	return s.adminLogin(ctx, username, password)
}

type privilegeServiceStub struct {
	listUsers        func(ctx context.Context) ([]repository.UserWithTier, error)
	getUserPrivilege func(ctx context.Context, lineUserID string) (*service.PrivilegeSummary, error)
	purchaseLicense  func(ctx context.Context, userID int64) (*model.Privilege, error)
	showExpenses     func(ctx context.Context, userID int64) (*service.ExpenseReport, error)
	addExpense       func(ctx context.Context, userID int64, amount float64, transactionDate time.Time) (*model.Expense, *model.Privilege, error)
	deleteExpense    func(ctx context.Context, expenseID int64) (*model.Privilege, error)
}

func (s *privilegeServiceStub) ListUsers(ctx context.Context) ([]repository.UserWithTier, error) {
	return s.listUsers(ctx)
}

func (s *privilegeServiceStub) GetUserPrivilege(ctx context.Context, lineUserID string) (*service.PrivilegeSummary, error) {
	return s.getUserPrivilege(ctx, lineUserID)
}

func (s *privilegeServiceStub) PurchaseLicense(ctx context.Context, userID int64) (*model.Privilege, error) {
	return s.purchaseLicense(ctx, userID)
}

func (s *privilegeServiceStub) ShowExpenses(ctx context.Context, userID int64) (*service.ExpenseReport, error) {
	return s.showExpenses(ctx, userID)
}

func (s *privilegeServiceStub) AddExpense(ctx context.Context, userID int64, amount float64, transactionDate time.Time) (*model.Expense, *model.Privilege, error) {
	return s.addExpense(ctx, userID, amount, transactionDate)
}

func (s *privilegeServiceStub) DeleteExpense(ctx context.Context, expenseID int64) (*model.Privilege, error) {
	return s.deleteExpense(ctx, expenseID)
}

type redemptionServiceStub struct {
	redeemProduct   func(ctx context.Context, lineUserID string, productID int64) (*service.RedeemResult, error)
	generateQRCode  func(ctx context.Context, lineUserID string, productID int64, color, size string) (*service.ClaimResult, error)
	approveQRCode   func(ctx context.Context, qrCodeID int64) (*service.ApprovalResult, error)
	redeemedHistory func(ctx context.Context, lineUserID string) ([]service.HistoryItem, error)
}

func (s *redemptionServiceStub) RedeemProduct(ctx context.Context, lineUserID string, productID int64) (*service.RedeemResult, error) {
	return s.redeemProduct(ctx, lineUserID, productID)
}

func (s *redemptionServiceStub) GenerateProductQRCode(ctx context.Context, lineUserID string, productID int64, color, size string) (*service.ClaimResult, error) {
	return s.generateQRCode(ctx, lineUserID, productID, color, size)
}

func (s *redemptionServiceStub) ApproveQRCode(ctx context.Context, qrCodeID int64) (*service.ApprovalResult, error) {
	return s.approveQRCode(ctx, qrCodeID)
}

func (s *redemptionServiceStub) RedeemedHistory(ctx context.Context, lineUserID string) ([]service.HistoryItem, error) {
	return s.redeemedHistory(ctx, lineUserID)
}

func passthroughAuth(next http.Handler) http.Handler { return next }

func newAdminMux(auth service.AuthService, priv service.PrivilegeService, red service.RedemptionService) *http.ServeMux {
	h := NewAdminHandler(auth, priv, red, validator.New(validator.WithRequiredStructEnabled()))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, passthroughAuth)
	return mux
}

func TestApproveQRCodeErrorMapping(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found", service.ErrQRCodeNotFound, http.StatusNotFound, "QR Code not found."},
		{"already used", service.ErrQRCodeAlreadyUsed, http.StatusBadRequest, "QR Code has already been used or is not active."},
		{"expired", service.ErrQRCodeExpired, http.StatusBadRequest, "QR Code has expired."},
		{"corrupted", service.ErrQRCodeCorrupted, http.StatusBadRequest, "QR Code data is invalid or corrupted."},
		{"no privilege", service.ErrPrivilegeNotFound, http.StatusNotFound, "Privilege not found for user."},
		{"insufficient points", service.ErrInsufficientPoints, http.StatusBadRequest, "Insufficient points."},
		{"out of stock", service.ErrOutOfStock, http.StatusBadRequest, "Product out of stock."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			red := &redemptionServiceStub{
				approveQRCode: func(context.Context, int64) (*service.ApprovalResult, error) {
					return nil, c.err
				},
			}
			mux := newAdminMux(nil, nil, red)

			req := httptest.NewRequest(http.MethodPost, "/admin/qrcodes/approve", strings.NewReader(`{"qrCodeId":7}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != c.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, c.wantStatus)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != c.wantMessage {
				t.Errorf("error = %q, want %q", body.Error, c.wantMessage)
			}
		})
	}
}

func TestApproveQRCodeSuccess(t *testing.T) {
	red := &redemptionServiceStub{
		approveQRCode: func(_ context.Context, qrCodeID int64) (*service.ApprovalResult, error) {
			if qrCodeID != 7 {
				t.Errorf("qr code id = %d, want 7", qrCodeID)
			}
			return &service.ApprovalResult{UpdatedStock: 4, RemainingPoints: 120}, nil
		},
	}
	mux := newAdminMux(nil, nil, red)

	req := httptest.NewRequest(http.MethodPost, "/admin/qrcodes/approve", strings.NewReader(`{"qrCodeId":7}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Message         string `json:"message"`
		UpdatedStock    *int   `json:"updatedStock"`
		RemainingPoints *int   `json:"remainingPoints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "QR Code approved successfully!" {
		t.Errorf("message = %q", body.Message)
	}
	if body.UpdatedStock == nil || *body.UpdatedStock != 4 {
		t.Errorf("updatedStock = %v, want 4", body.UpdatedStock)
	}
	if body.RemainingPoints == nil || *body.RemainingPoints != 120 {
		t.Errorf("remainingPoints = %v, want 120", body.RemainingPoints)
	}
}

func TestApproveQRCodeRescanIsOK(t *testing.T) {
	red := &redemptionServiceStub{
		approveQRCode: func(context.Context, int64) (*service.ApprovalResult, error) {
			return &service.ApprovalResult{AlreadyScanned: true}, nil
		},
	}
	mux := newAdminMux(nil, nil, red)

	req := httptest.NewRequest(http.MethodPost, "/admin/qrcodes/approve", strings.NewReader(`{"qrCodeId":7}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("rescan status = %d, want 200", rec.Code)
	}
	var body struct {
		Message      string `json:"message"`
		UpdatedStock *int   `json:"updatedStock"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "QR Code has already been used or is not active." {
		t.Errorf("message = %q", body.Message)
	}
	if body.UpdatedStock != nil {
		t.Errorf("rescan response must not carry stock numbers")
	}
}

func TestApproveQRCodeMissingID(t *testing.T) {
	mux := newAdminMux(nil, nil, &redemptionServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/admin/qrcodes/approve", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	auth := &authServiceStub{
		adminLogin: func(context.Context, string, string) (*model.Admin, string, error) {
			return nil, "", service.ErrInvalidCredentials
		},
	}
	mux := newAdminMux(auth, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"ops","password":"nope"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAdminLoginIssuesToken(t *testing.T) {
	auth := &authServiceStub{
		adminLogin: func(_ context.Context, username, password string) (*model.Admin, string, error) {
			if username != "ops" || password != "s3cret" {
				t.Errorf("credentials = %q/%q", username, password)
			}
			return &model.Admin{ID: 1, Username: "ops", Role: "admin"}, "tok-123", nil
		},
	}
	mux := newAdminMux(auth, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"username":"ops","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Token != "tok-123" {
		t.Errorf("token = %q", body.Token)
	}
}

func TestDeleteExpenseRequiresNumericID(t *testing.T) {
	mux := newAdminMux(nil, &privilegeServiceStub{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/admin/expenses/abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUserDispatch(t *testing.T) {
	priv := &privilegeServiceStub{
		purchaseLicense: func(_ context.Context, userID int64) (*model.Privilege, error) {
			return &model.Privilege{ID: 10, UserID: userID, Tier: model.TierPrivilege, IsPurchased: true}, nil
		},
	}
	mux := newAdminMux(nil, priv, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/users/1/purchase", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/users/abc/purchase", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad user id status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/users/1/unknown", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown subroute status = %d, want 404", rec.Code)
	}
}
