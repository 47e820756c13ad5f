package dto

// StockInputDTO is one (color, size) combination in a product upload
type StockInputDTO struct {
	Color    string `json:"color" validate:"required"`
	Size     string `json:"size" validate:"required"`
	Barcode  string `json:"barcode" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type ProductInputDTO struct {
	Name         string          `json:"name" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	Point        int             `json:"point" validate:"required,gt=0"`
	ImagePath    string          `json:"imagepath"`
	Combinations []StockInputDTO `json:"combinations" validate:"required,min=1,dive"`
}

type AddProductsRequestDTO struct {
	Products []ProductInputDTO `json:"products" validate:"required,min=1,dive"`
}

type StockDTO struct {
	ID       int64  `json:"id"`
	ItemCode string `json:"itemCode"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color"`
	Size     string `json:"size"`
}

type ProductDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Point       int        `json:"point"`
	ImagePath   string     `json:"imagepath,omitempty"`
	Stocks      []StockDTO `json:"stocks,omitempty"`
}

type ProductsResponseDTO struct {
	Success  bool         `json:"success"`
	Products []ProductDTO `json:"products"`
}

type AddProductsResponseDTO struct {
	Message         string       `json:"message"`
	CreatedProducts []ProductDTO `json:"createdProducts"`
}

type DeleteProductResponseDTO struct {
	Message   string `json:"message"`
	ProductID int64  `json:"productId"`
}

// CatalogProductDTO is a member-facing product with its redeemability flag
type CatalogProductDTO struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Point        int        `json:"point"`
	IsRedeemable bool       `json:"isRedeemable"`
	ImageURL     *string    `json:"imageUrl"`
	Combinations []StockDTO `json:"combinations"`
}

type CatalogResponseDTO struct {
	Message   string              `json:"message"`
	MaxPoints int                 `json:"maxPoints"`
	Products  []CatalogProductDTO `json:"products"`
}

type RewardDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"productName"`
	Point int    `json:"point"`
}

type RewardsResponseDTO struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	Products []RewardDTO `json:"products"`
}
