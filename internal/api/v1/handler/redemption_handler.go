package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/prvclub/backend/internal/api/v1/dto"
	"github.com/prvclub/backend/internal/service"
)

// RedemptionHandler serves the member redemption flow: spending points,
// issuing claim tokens and reading back approved history.
type RedemptionHandler struct {
	redemptionSvc service.RedemptionService
	validate      *validator.Validate
}

func NewRedemptionHandler(redemptionSvc service.RedemptionService, v *validator.Validate) *RedemptionHandler {
	return &RedemptionHandler{redemptionSvc: redemptionSvc, validate: v}
}

func (h *RedemptionHandler) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.Handle("/redemptions", http.HandlerFunc(h.redeemProduct))
	mux.Handle("/redemptions/qrcode", http.HandlerFunc(h.generateProductQRCode))
	mux.Handle("/redemptions/history", http.HandlerFunc(h.redeemedHistory))
}

func (h *RedemptionHandler) redeemProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.RedeemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID and Product ID are required.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Line User ID and Product ID are required.")
		return
	}

	result, err := h.redemptionSvc.RedeemProduct(r.Context(), req.LineUserID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrPrivilegeNotFound):
			writeError(w, http.StatusNotFound, "User privilege not found.")
		case errors.Is(err, service.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "Product not found.")
		case errors.Is(err, service.ErrInsufficientPoints):
			writeError(w, http.StatusBadRequest, "Insufficient points to redeem this product.")
		case errors.Is(err, service.ErrOutOfStock):
			writeError(w, http.StatusBadRequest, "Product is out of stock.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.RedeemResponseDTO{
		Message:         "Product redeemed successfully! QR Code generated.",
		Product:         toProductDTO(*result.Product),
		RemainingPoints: result.RemainingPoints,
		QRCode: dto.QRCodeDTO{
			ID:        result.QRCode.ID,
			Type:      string(result.QRCode.Type),
			Status:    string(result.QRCode.Status),
			ExpiresAt: result.QRCode.ExpiresAt,
		},
		QRCodeImage: result.QRCodeImage,
	})
}

func (h *RedemptionHandler) generateProductQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.ClaimRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	result, err := h.redemptionSvc.GenerateProductQRCode(r.Context(), req.LineUserID, req.ProductID, req.Color, req.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "Product not found.")
		case errors.Is(err, service.ErrColorNotFound):
			writeError(w, http.StatusBadRequest, "Color \""+req.Color+"\" not found.")
		case errors.Is(err, service.ErrSizeNotFound):
			writeError(w, http.StatusBadRequest, "Size \""+req.Size+"\" not found.")
		case errors.Is(err, service.ErrOutOfStock):
			writeError(w, http.StatusBadRequest, "Product out of stock.")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to generate QR Code.")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ClaimResponseDTO{
		QRCodeImage:  result.QRCodeImage,
		QRCodeExpiry: result.ExpiresAt,
		QRCodeID:     result.QRCodeID,
	})
}

func (h *RedemptionHandler) redeemedHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	lineUserID := r.URL.Query().Get("lineUserId")
	if lineUserID == "" {
		writeError(w, http.StatusBadRequest, "Line User ID is required.")
		return
	}

	items, err := h.redemptionSvc.RedeemedHistory(r.Context(), lineUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrHistoryNotFound):
			writeMessage(w, http.StatusNotFound, "No redeemed history found.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	history := make([]dto.HistoryItemDTO, 0, len(items))
	for _, it := range items {
		item := dto.HistoryItemDTO{
			ID:                 it.ID,
			TransactionDate:    it.TransactionDate,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			PointsUsed:         it.PointsUsed,
			Color:              it.Color,
			Size:               it.Size,
			Quantity:           it.Quantity,
		}
		if it.ProductImage != "" {
			url := it.ProductImage
			item.ProductImage = &url
		}
		history = append(history, item)
	}
	writeJSON(w, http.StatusOK, dto.HistoryResponseDTO{
		Message: "Approved redeemed history retrieved successfully!",
		History: history,
	})
}
