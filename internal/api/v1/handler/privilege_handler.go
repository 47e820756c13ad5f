package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prvclub/backend/internal/api/v1/dto"
	"github.com/prvclub/backend/internal/service"
)

// PrivilegeHandler serves the member-facing privilege card.
type PrivilegeHandler struct {
	privilegeService service.PrivilegeService
}

func NewPrivilegeHandler(privilegeService service.PrivilegeService) *PrivilegeHandler {
	return &PrivilegeHandler{privilegeService: privilegeService}
}

func (h *PrivilegeHandler) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.Handle("/privileges", http.HandlerFunc(h.getUserPrivilege))
}

func (h *PrivilegeHandler) getUserPrivilege(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	lineUserID := r.URL.Query().Get("lineUserId")
	if lineUserID == "" {
		writeError(w, http.StatusBadRequest, "Line User ID is required.")
		return
	}

	summary, err := h.privilegeService.GetUserPrivilege(r.Context(), lineUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.PrivilegeResponseDTO{
		Success: true,
		Data: dto.PrivilegeSummaryDTO{
			Fullname:       summary.Fullname,
			Mobile:         summary.Mobile,
			Email:          summary.Email,
			Birthday:       summary.Birthday,
			Nationality:    summary.Nationality,
			PrvType:        string(summary.Tier),
			PrvExpiredDate: summary.ExpiresAt,
			CurrentPoint:   summary.CurrentPoint,
			PrvLicenseID:   fmt.Sprintf("%04d", summary.LicenseID),
			RegisteredDate: summary.RegisteredAt,
			QRCodeBase64:   summary.QRCodeBase64,
		},
	})
}
