package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prvclub/backend/internal/api/v1/dto"
	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/service"
)

// ProductHandler serves the admin product catalog and the member-facing
// product/reward listings.
type ProductHandler struct {
	productService service.ProductService
	validate       *validator.Validate
}

func NewProductHandler(productService service.ProductService, v *validator.Validate) *ProductHandler {
	return &ProductHandler{productService: productService, validate: v}
}

func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/products", authMw(http.HandlerFunc(h.handleAdminProducts)))
	mux.Handle("/admin/products/", authMw(http.HandlerFunc(h.deleteProduct)))
	mux.Handle("/products", http.HandlerFunc(h.memberCatalog))
	mux.Handle("/rewards", http.HandlerFunc(h.listRewards))
}

func (h *ProductHandler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		h.addProducts(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListProducts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to fetch products"})
		return
	}
	if len(products) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "No products found"})
		return
	}

	items := make([]dto.ProductDTO, 0, len(products))
	for _, p := range products {
		items = append(items, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, dto.ProductsResponseDTO{Success: true, Products: items})
}

func (h *ProductHandler) addProducts(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProductsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Products must be an array.")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Each product must have a name, description, point, and combinations (array).")
		return
	}

	inputs := make([]service.ProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		input := service.ProductInput{
			Name:        p.Name,
			Description: p.Description,
			Point:       p.Point,
			ImagePath:   p.ImagePath,
		}
		for _, c := range p.Combinations {
			input.Stocks = append(input.Stocks, service.StockInput{
				Color:    c.Color,
				Size:     c.Size,
				Barcode:  c.Barcode,
				Quantity: c.Quantity,
			})
		}
		inputs = append(inputs, input)
	}

	created, err := h.productService.AddProducts(r.Context(), inputs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]dto.ProductDTO, 0, len(created))
	for _, c := range created {
		item := toProductDTO(*c.Product)
		item.Stocks = nil
		for _, s := range c.Stocks {
			item.Stocks = append(item.Stocks, dto.StockDTO{
				ID:       s.ID,
				ItemCode: s.ItemCode,
				Quantity: s.Quantity,
			})
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusCreated, dto.AddProductsResponseDTO{
		Message:         "Products added successfully!",
		CreatedProducts: items,
	})
}

func (h *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/admin/products/")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "Product ID is required.")
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), productID); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "Product not found.")
		case errors.Is(err, service.ErrProductRedeemed):
			writeError(w, http.StatusBadRequest, "Cannot delete product. This product has been redeemed by a customer.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteProductResponseDTO{
		Message:   "Product deleted successfully!",
		ProductID: productID,
	})
}

func (h *ProductHandler) memberCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	lineUserID := r.URL.Query().Get("lineUserId")
	if lineUserID == "" {
		writeError(w, http.StatusBadRequest, "Line User ID is required.")
		return
	}

	maxPoints, catalog, err := h.productService.MemberCatalog(r.Context(), lineUserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrPrivilegeNotFound):
			writeError(w, http.StatusNotFound, "User privilege not found.")
		default:
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	items := make([]dto.CatalogProductDTO, 0, len(catalog))
	for _, c := range catalog {
		item := dto.CatalogProductDTO{
			ID:           c.Product.ID,
			Name:         c.Product.Name,
			Description:  c.Product.Description,
			Point:        c.Product.Point,
			IsRedeemable: c.IsRedeemable,
			Combinations: toStockDTOs(c.Product.Stocks),
		}
		if c.ImageURL != "" {
			url := c.ImageURL
			item.ImageURL = &url
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, dto.CatalogResponseDTO{
		Message:   "Products retrieved successfully!",
		MaxPoints: maxPoints,
		Products:  items,
	})
}

func (h *ProductHandler) listRewards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	products, err := h.productService.ListRewards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if len(products) == 0 {
		writeMessage(w, http.StatusNotFound, "No rewards available.")
		return
	}

	items := make([]dto.RewardDTO, 0, len(products))
	for _, p := range products {
		items = append(items, dto.RewardDTO{ID: p.ID, Name: p.Name, Point: p.Point})
	}
	writeJSON(w, http.StatusOK, dto.RewardsResponseDTO{
		Success:  true,
		Message:  "All rewards retrieved successfully.",
		Products: items,
	})
}

func toProductDTO(p model.Product) dto.ProductDTO {
	return dto.ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Point:       p.Point,
		ImagePath:   p.ImagePath,
		Stocks:      toStockDTOs(p.Stocks),
	}
}

func toStockDTOs(stocks []model.ProductStock) []dto.StockDTO {
	items := make([]dto.StockDTO, 0, len(stocks))
	for _, s := range stocks {
		item := dto.StockDTO{
			ID:       s.ID,
			ItemCode: s.ItemCode,
			Quantity: s.Quantity,
		}
		if s.Color != nil {
			item.Color = s.Color.Type
		}
		if s.Size != nil {
			item.Size = s.Size.Type
		}
		items = append(items, item)
	}
	return items
}
