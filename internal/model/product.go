package model

import "time"

// Product is a redeemable reward
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Point       int       `db:"point" json:"point"`
	ImagePath   string    `db:"imagepath" json:"imagepath"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Stocks []ProductStock `json:"stocks,omitempty"`
}

// ProductOption is a shared color/size option, unique by its type string.
type ProductOption struct {
	ID          int64  `db:"id" json:"id"`
	Type        string `db:"type" json:"type"`
	Description string `db:"description" json:"description"`
}

// ProductStock is the stock entry for one (color, size) combination of a
// product. Quantity never goes below zero; redemption requires quantity > 0.
type ProductStock struct {
	ID          int64  `db:"id" json:"id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ItemCode    string `db:"item_code" json:"item_code"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	ColorID     int64  `db:"color_id" json:"color_id"`
	SizeID      int64  `db:"size_id" json:"size_id"`
	Barcode     string `db:"barcode" json:"barcode"`
	StockQRCode string `db:"stock_qr_code" json:"stock_qr_code"`
	Quantity    int    `db:"quantity" json:"quantity"`

	Color *ProductOption `json:"color,omitempty"`
	Size  *ProductOption `json:"size,omitempty"`
}
