package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/model"
)

type signerStub struct{ err error }

func (s signerStub) SignedURL(_ context.Context, imagePath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://signed.example/" + imagePath, nil
}

// seedRedemption sets up one member with 500 points and one product with a
// single (Red, M) stock entry of two units.
func seedRedemption(st *stubStore) {
	st.users = append(st.users, &model.User{ID: 1, Firstname: "Ada", LineUserID: "line-1"})
	st.privileges = append(st.privileges, &model.Privilege{ID: 10, UserID: 1, Tier: model.TierGold, CurrentPoint: 500})
	st.products = append(st.products, &model.Product{ID: 30, Name: "Cap", Description: "A cap", Point: 200, ImagePath: "caps/1.png"})
	st.options = append(st.options,
		&model.ProductOption{ID: 40, Type: "Red"},
		&model.ProductOption{ID: 41, Type: "M"},
	)
	st.stocks = append(st.stocks, &model.ProductStock{ID: 60, ProductID: 30, ColorID: 40, SizeID: 41, Quantity: 2})
}

func newRedemptionServiceForTest(st *stubStore, now *time.Time) *redemptionService {
	return &redemptionService{
		store:  st,
		signer: signerStub{},
		logger: zerolog.Nop(),
		now:    func() time.Time { return *now },
	}
}

func TestRedeemProductDeductsPointsAndStock(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	result, err := svc.RedeemProduct(context.Background(), "line-1", 30)
	if err != nil {
		t.Fatalf("RedeemProduct: %v", err)
	}
	if result.RemainingPoints != 300 {
		t.Errorf("remaining points = %d, want 300", result.RemainingPoints)
	}
	if st.stocks[0].Quantity != 1 {
		t.Errorf("stock quantity = %d, want 1", st.stocks[0].Quantity)
	}
	if result.QRCode.Type != model.QRTypeRedeem || result.QRCode.Status != model.QRStatusActive {
		t.Errorf("unexpected token: %+v", result.QRCode)
	}
	if !result.QRCode.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("token expiry = %v, want ten minutes out", result.QRCode.ExpiresAt)
	}
	if !strings.HasPrefix(result.QRCodeImage, "data:image/png;base64,") {
		t.Errorf("token image is not a PNG data URL: %.40s", result.QRCodeImage)
	}
	if len(st.histories) != 1 || st.histories[0].Status != model.HistoryPending {
		t.Errorf("expected one pending history row, got %+v", st.histories)
	}
}

func TestRedeemProductInsufficientPoints(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	st.privileges[0].CurrentPoint = 100
	svc := newRedemptionServiceForTest(st, &now)

	if _, err := svc.RedeemProduct(context.Background(), "line-1", 30); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if st.privileges[0].CurrentPoint != 100 || st.stocks[0].Quantity != 2 {
		t.Errorf("failed redemption must not move points or stock")
	}
}

func TestRedeemProductOutOfStock(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	st.stocks[0].Quantity = 0
	svc := newRedemptionServiceForTest(st, &now)

	if _, err := svc.RedeemProduct(context.Background(), "line-1", 30); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestGenerateProductQRCodeLeavesBalancesAlone(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	result, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}
	if !strings.HasPrefix(result.QRCodeImage, "data:image/png;base64,") {
		t.Errorf("claim image is not a PNG data URL: %.40s", result.QRCodeImage)
	}
	if st.privileges[0].CurrentPoint != 500 || st.stocks[0].Quantity != 2 {
		t.Errorf("claim token issuance must not move points or stock")
	}
	if _, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Blue", "M"); !errors.Is(err, ErrColorNotFound) {
		t.Fatalf("expected ErrColorNotFound, got %v", err)
	}
	if _, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "XXL"); !errors.Is(err, ErrSizeNotFound) {
		t.Fatalf("expected ErrSizeNotFound, got %v", err)
	}
}

func TestApproveQRCodeHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	claim, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}

	result, err := svc.ApproveQRCode(context.Background(), claim.QRCodeID)
	if err != nil {
		t.Fatalf("ApproveQRCode: %v", err)
	}
	if result.AlreadyScanned {
		t.Fatalf("first approval must not be flagged as a rescan")
	}
	if result.RemainingPoints != 300 {
		t.Errorf("remaining points = %d, want 300", result.RemainingPoints)
	}
	if result.UpdatedStock != 1 {
		t.Errorf("updated stock = %d, want 1", result.UpdatedStock)
	}
	if st.qrcodes[0].Status != model.QRStatusUsed {
		t.Errorf("token status = %s, want used", st.qrcodes[0].Status)
	}
	if st.histories[0].Status != model.HistoryApproved {
		t.Errorf("history status = %s, want approved", st.histories[0].Status)
	}
}

func TestApproveQRCodeExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	claim, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := svc.ApproveQRCode(context.Background(), claim.QRCodeID); !errors.Is(err, ErrQRCodeExpired) {
		t.Fatalf("expected ErrQRCodeExpired, got %v", err)
	}
	if st.privileges[0].CurrentPoint != 500 || st.stocks[0].Quantity != 2 {
		t.Errorf("expired approval must not move points or stock")
	}
}

func TestApproveQRCodeSecondScanRecordsTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	st.qrcodes = append(st.qrcodes, &model.QRCode{
		ID: 70, Type: model.QRTypeProduct, Status: model.QRStatusUsed, ExpiresAt: now.Add(5 * time.Minute),
	})
	svc := newRedemptionServiceForTest(st, &now)

	if _, err := svc.ApproveQRCode(context.Background(), 70); !errors.Is(err, ErrQRCodeAlreadyUsed) {
		t.Fatalf("expected ErrQRCodeAlreadyUsed, got %v", err)
	}
	if len(st.touchScanCalls) != 1 || st.touchScanCalls[0] != 70 {
		t.Fatalf("expected the repeat scan time to be recorded, calls = %v", st.touchScanCalls)
	}
	if st.qrcodes[len(st.qrcodes)-1].LastScannedAt == nil {
		t.Fatalf("last scanned time not stored")
	}
}

func TestApproveQRCodeRescanWindowIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	scanned := now.Add(-5 * time.Second)
	st := newStubStore()
	seedRedemption(st)
	st.qrcodes = append(st.qrcodes, &model.QRCode{
		ID: 70, Type: model.QRTypeProduct, Status: model.QRStatusUsed,
		ExpiresAt: now.Add(5 * time.Minute), LastScannedAt: &scanned,
	})
	svc := newRedemptionServiceForTest(st, &now)

	result, err := svc.ApproveQRCode(context.Background(), 70)
	if err != nil {
		t.Fatalf("rescan inside the window must not error, got %v", err)
	}
	if !result.AlreadyScanned {
		t.Fatalf("expected AlreadyScanned on a quick rescan")
	}
	if len(st.touchScanCalls) != 0 {
		t.Fatalf("quick rescan must not rewrite the scan time")
	}
}

func TestApproveQRCodeLosesConcurrentSwap(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	claim, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}

	st.markUsedDenied = true
	if _, err := svc.ApproveQRCode(context.Background(), claim.QRCodeID); !errors.Is(err, ErrQRCodeAlreadyUsed) {
		t.Fatalf("losing the status swap must fail with ErrQRCodeAlreadyUsed, got %v", err)
	}
}

func TestApproveQRCodeCorruptedPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	st.qrcodes = append(st.qrcodes, &model.QRCode{
		ID: 70, Code: "not-a-payload", Type: model.QRTypeProduct,
		Status: model.QRStatusActive, ExpiresAt: now.Add(5 * time.Minute),
	})
	svc := newRedemptionServiceForTest(st, &now)

	if _, err := svc.ApproveQRCode(context.Background(), 70); !errors.Is(err, ErrQRCodeCorrupted) {
		t.Fatalf("expected ErrQRCodeCorrupted, got %v", err)
	}
}

func TestApproveQRCodeInsufficientPointsAtScanTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	claim, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}

	// Balance dropped between issuing the token and scanning it.
	st.privileges[0].CurrentPoint = 100
	if _, err := svc.ApproveQRCode(context.Background(), claim.QRCodeID); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestApproveQRCodeOutOfStockAtScanTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	claim, err := svc.GenerateProductQRCode(context.Background(), "line-1", 30, "Red", "M")
	if err != nil {
		t.Fatalf("GenerateProductQRCode: %v", err)
	}

	st.stocks[0].Quantity = 0
	if _, err := svc.ApproveQRCode(context.Background(), claim.QRCodeID); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestApproveQRCodeUnknownToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newRedemptionServiceForTest(newStubStore(), &now)
	if _, err := svc.ApproveQRCode(context.Background(), 12345); !errors.Is(err, ErrQRCodeNotFound) {
		t.Fatalf("expected ErrQRCodeNotFound, got %v", err)
	}
}

func TestRedeemedHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	st.histories = append(st.histories,
		&model.History{ID: 80, UserID: 1, ProductID: 30, Status: model.HistoryApproved, TransactionDate: now},
		&model.History{ID: 81, UserID: 1, ProductID: 30, Status: model.HistoryPending, TransactionDate: now},
	)
	svc := newRedemptionServiceForTest(st, &now)

	items, err := svc.RedeemedHistory(context.Background(), "line-1")
	if err != nil {
		t.Fatalf("RedeemedHistory: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected only approved rows, got %d", len(items))
	}
	if items[0].ProductName != "Cap" {
		t.Errorf("product name = %q", items[0].ProductName)
	}
	if !strings.HasPrefix(items[0].ProductImage, "https://signed.example/") {
		t.Errorf("image URL not signed: %q", items[0].ProductImage)
	}
}

func TestRedeemedHistoryEmpty(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := newStubStore()
	seedRedemption(st)
	svc := newRedemptionServiceForTest(st, &now)

	if _, err := svc.RedeemedHistory(context.Background(), "line-1"); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("expected ErrHistoryNotFound, got %v", err)
	}
	if _, err := svc.RedeemedHistory(context.Background(), "stranger"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
