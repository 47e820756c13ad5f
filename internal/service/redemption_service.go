package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/qrcode"
	"github.com/prvclub/backend/internal/repository"
	"github.com/prvclub/backend/internal/storage"
)

var (
	ErrQRCodeNotFound     = errors.New("qr code not found")
	ErrQRCodeAlreadyUsed  = errors.New("qr code has already been used or is not active")
	ErrQRCodeExpired      = errors.New("qr code has expired")
	ErrQRCodeCorrupted    = errors.New("qr code data is invalid or corrupted")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrOutOfStock         = errors.New("product out of stock")
	ErrColorNotFound      = errors.New("color not found")
	ErrSizeNotFound       = errors.New("size not found")
	ErrHistoryNotFound    = errors.New("no redeemed history found")
)

const (
	redeemTokenTTL = 10 * time.Minute
	// A non-active token scanned again within this window gets the
	// idempotent "already scanned" response instead of an error.
	rescanWindow = 10 * time.Second
)

// RedeemResult is what a member sees after redeeming a product.
type RedeemResult struct {
	Product         *model.Product
	RemainingPoints int
	QRCode          *model.QRCode
	QRCodeImage     string
}

// ClaimResult is an issued product-claim token.
type ClaimResult struct {
	QRCodeID    int64
	QRCodeImage string
	ExpiresAt   time.Time
}

// ApprovalResult is the outcome of scanning a token at the counter.
type ApprovalResult struct {
	AlreadyScanned  bool
	UpdatedStock    int
	RemainingPoints int
}

// HistoryItem is one approved redemption with a signed product image.
type HistoryItem struct {
	ID                 int64
	TransactionDate    time.Time
	ProductID          int64
	ProductName        string
	ProductDescription string
	ProductImage       string
	PointsUsed         int
	Color              string
	Size               string
	Quantity           int
}

type RedemptionService interface {
	RedeemProduct(ctx context.Context, lineUserID string, productID int64) (*RedeemResult, error)
	GenerateProductQRCode(ctx context.Context, lineUserID string, productID int64, color, size string) (*ClaimResult, error)
	ApproveQRCode(ctx context.Context, qrCodeID int64) (*ApprovalResult, error)
	RedeemedHistory(ctx context.Context, lineUserID string) ([]HistoryItem, error)
}

type redemptionService struct {
	store  repository.Store
	signer storage.Signer
	logger zerolog.Logger
	now    func() time.Time
}

func NewRedemptionService(store repository.Store, signer storage.Signer, logger zerolog.Logger) RedemptionService {
	return &redemptionService{
		store:  store,
		signer: signer,
		logger: logger.With().Str("service", "RedemptionService").Logger(),
		now:    time.Now,
	}
}

// RedeemProduct exchanges points for a product: one transaction deducts
// the point cost, takes a unit off the shelf, records a pending history
// row and issues a ten minute redemption token. Any failure rolls all of
// it back.
func (s *redemptionService) RedeemProduct(ctx context.Context, lineUserID string, productID int64) (*RedeemResult, error) {
	var result RedeemResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByLineUserID(ctx, lineUserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		privilege, err := tx.Privileges().GetByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if privilege == nil {
			return ErrPrivilegeNotFound
		}

		product, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if privilege.CurrentPoint < product.Point {
			return ErrInsufficientPoints
		}

		stock, err := tx.Products().FindAvailableStock(ctx, productID)
		if err != nil {
			return err
		}
		if stock == nil {
			return ErrOutOfStock
		}

		now := s.now()
		expiresAt := now.Add(redeemTokenTTL)

		// The token row is created first so its id can ride inside the
		// payload it encodes.
		token := &model.QRCode{
			Type:      model.QRTypeRedeem,
			Status:    model.QRStatusActive,
			ExpiresAt: expiresAt,
		}
		if err := tx.QRCodes().Create(ctx, token); err != nil {
			return err
		}

		payload, image, err := qrcode.Encode(qrcode.RedeemPayload{
			QRCodeID:   token.ID,
			LineUserID: lineUserID,
			ProductID:  product.ID,
			StockID:    stock.ID,
			ColorID:    stock.ColorID,
			SizeID:     stock.SizeID,
			Point:      product.Point,
			CreatedAt:  now,
			ExpiresAt:  expiresAt,
		})
		if err != nil {
			return err
		}
		if err := tx.QRCodes().UpdatePayload(ctx, token.ID, payload, image); err != nil {
			return err
		}
		token.Code = payload
		token.ImageBase64 = &image

		history := &model.History{
			UserID:          user.ID,
			ProductID:       product.ID,
			ProductStockID:  stock.ID,
			QRCodeID:        token.ID,
			Status:          model.HistoryPending,
			TransactionDate: now,
		}
		if err := tx.Histories().Create(ctx, history); err != nil {
			return err
		}

		remaining, err := tx.Privileges().DeductPoints(ctx, privilege.ID, product.Point)
		if err != nil {
			return err
		}
		if _, ok, err := tx.Products().DecrementStock(ctx, stock.ID); err != nil {
			return err
		} else if !ok {
			return ErrOutOfStock
		}

		result = RedeemResult{
			Product:         product,
			RemainingPoints: remaining,
			QRCode:          token,
			QRCodeImage:     image,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateProductQRCode issues an in-store claim token for a specific
// (color, size) stock entry. Points and stock stay untouched until the
// token is approved at the counter.
func (s *redemptionService) GenerateProductQRCode(ctx context.Context, lineUserID string, productID int64, color, size string) (*ClaimResult, error) {
	var result ClaimResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByLineUserID(ctx, lineUserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		product, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}

		colorOpt, err := tx.Products().GetOptionByType(ctx, color)
		if err != nil {
			return err
		}
		if colorOpt == nil {
			return ErrColorNotFound
		}
		sizeOpt, err := tx.Products().GetOptionByType(ctx, size)
		if err != nil {
			return err
		}
		if sizeOpt == nil {
			return ErrSizeNotFound
		}

		stock, err := tx.Products().GetStock(ctx, product.ID, colorOpt.ID, sizeOpt.ID)
		if err != nil {
			return err
		}
		if stock == nil || stock.Quantity <= 0 {
			return ErrOutOfStock
		}

		now := s.now()
		expiresAt := now.Add(redeemTokenTTL)
		token := &model.QRCode{
			Type:      model.QRTypeProduct,
			Status:    model.QRStatusActive,
			ExpiresAt: expiresAt,
		}
		if err := tx.QRCodes().Create(ctx, token); err != nil {
			return err
		}

		payload, image, err := qrcode.Encode(qrcode.RedeemPayload{
			QRCodeID:   token.ID,
			LineUserID: lineUserID,
			ProductID:  product.ID,
			StockID:    stock.ID,
			ColorID:    colorOpt.ID,
			SizeID:     sizeOpt.ID,
			Point:      product.Point,
			CreatedAt:  now,
			ExpiresAt:  expiresAt,
		})
		if err != nil {
			return err
		}
		if err := tx.QRCodes().UpdatePayload(ctx, token.ID, payload, image); err != nil {
			return err
		}

		history := &model.History{
			UserID:          user.ID,
			ProductID:       product.ID,
			ProductStockID:  stock.ID,
			QRCodeID:        token.ID,
			Status:          model.HistoryPending,
			TransactionDate: now,
		}
		if err := tx.Histories().Create(ctx, history); err != nil {
			return err
		}

		result = ClaimResult{QRCodeID: token.ID, QRCodeImage: image, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveQRCode resolves a scanned token inside one transaction. The
// conditional active-to-used status update is the only concurrency guard:
// of two simultaneous approvals exactly one wins the swap, the other
// rolls back with ErrQRCodeAlreadyUsed. Points and stock are re-validated
// against current state, never taken from the payload on trust.
func (s *redemptionService) ApproveQRCode(ctx context.Context, qrCodeID int64) (*ApprovalResult, error) {
	var (
		result    ApprovalResult
		touchScan bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		token, err := tx.QRCodes().GetByID(ctx, qrCodeID)
		if err != nil {
			return err
		}
		if token == nil {
			return ErrQRCodeNotFound
		}

		now := s.now()
		if token.Status != model.QRStatusActive {
			if token.LastScannedAt != nil && now.Sub(*token.LastScannedAt) < rescanWindow {
				result.AlreadyScanned = true
				return nil
			}
			// The scan time must survive this failed approval, so it is
			// recorded after the transaction rolls back.
			touchScan = true
			return ErrQRCodeAlreadyUsed
		}
		if now.After(token.ExpiresAt) {
			return ErrQRCodeExpired
		}

		payload, err := qrcode.DecodeRedeemPayload(token.Code)
		if err != nil || payload.LineUserID == "" {
			return ErrQRCodeCorrupted
		}

		user, err := tx.Users().GetByLineUserID(ctx, payload.LineUserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrPrivilegeNotFound
		}
		privilege, err := tx.Privileges().GetByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if privilege == nil {
			return ErrPrivilegeNotFound
		}
		if privilege.CurrentPoint < payload.Point {
			return ErrInsufficientPoints
		}

		stock, err := tx.Products().GetStock(ctx, payload.ProductID, payload.ColorID, payload.SizeID)
		if err != nil {
			return err
		}
		if stock == nil || stock.Quantity <= 0 {
			return ErrOutOfStock
		}

		swapped, err := tx.QRCodes().MarkUsed(ctx, token.ID, now)
		if err != nil {
			return err
		}
		if !swapped {
			// A concurrent approver won the race.
			return ErrQRCodeAlreadyUsed
		}

		remaining, err := tx.Privileges().DeductPoints(ctx, privilege.ID, payload.Point)
		if err != nil {
			return err
		}
		updatedStock, ok, err := tx.Products().DecrementStock(ctx, stock.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOutOfStock
		}
		if _, err := tx.Histories().ApprovePending(ctx, token.ID, now); err != nil {
			return err
		}

		result.UpdatedStock = updatedStock
		result.RemainingPoints = remaining
		return nil
	})
	if err != nil {
		if touchScan && errors.Is(err, ErrQRCodeAlreadyUsed) {
			if terr := s.store.QRCodes().TouchScan(ctx, qrCodeID, s.now()); terr != nil {
				s.logger.Error().Err(terr).Int64("qr_code_id", qrCodeID).Msg("Failed to record repeat scan time")
			}
		}
		return nil, err
	}
	return &result, nil
}

// RedeemedHistory returns a member's approved redemptions with signed
// product image URLs.
func (s *redemptionService) RedeemedHistory(ctx context.Context, lineUserID string) ([]HistoryItem, error) {
	user, err := s.store.Users().GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	rows, err := s.store.Histories().ListApprovedByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrHistoryNotFound
	}

	items := make([]HistoryItem, 0, len(rows))
	for _, h := range rows {
		item := HistoryItem{
			ID:                 h.ID,
			TransactionDate:    h.TransactionDate,
			ProductID:          h.ProductID,
			ProductName:        h.ProductName,
			ProductDescription: h.ProductDescription,
			PointsUsed:         h.PointsUsed,
			Color:              h.Color,
			Size:               h.Size,
			Quantity:           h.Quantity,
		}
		if h.ImagePath != "" {
			url, err := s.signer.SignedURL(ctx, h.ImagePath)
			if err != nil {
				s.logger.Error().Err(err).Str("product", h.ProductName).Msg("Failed to sign product image URL")
			} else {
				item.ProductImage = url
			}
		}
		items = append(items, item)
	}
	return items, nil
}
