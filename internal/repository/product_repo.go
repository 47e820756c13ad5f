package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prvclub/backend/internal/model"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByName(ctx context.Context, name string) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListWithStocks(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int64) error

	UpsertOption(ctx context.Context, optionType, description string) (*model.ProductOption, error)
	GetOptionByType(ctx context.Context, optionType string) (*model.ProductOption, error)

	GetStock(ctx context.Context, productID, colorID, sizeID int64) (*model.ProductStock, error)
	FindAvailableStock(ctx context.Context, productID int64) (*model.ProductStock, error)
	CreateStock(ctx context.Context, s *model.ProductStock) error
	// DecrementStock takes one unit off the shelf. Returns the remaining
	// quantity; ok is false when the row was missing or already empty.
	DecrementStock(ctx context.Context, stockID int64) (remaining int, ok bool, err error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

func scanProduct(row *sql.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Point, &p.ImagePath, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT id, name, description, point, imagepath, created_at FROM products WHERE id=$1`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *productRepo) GetByName(ctx context.Context, name string) (*model.Product, error) {
	query := `SELECT id, name, description, point, imagepath, created_at FROM products WHERE name=$1`
	return scanProduct(r.db.QueryRowContext(ctx, query, name))
}

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	query := `SELECT id, name, description, point, imagepath, created_at
              FROM products ORDER BY point DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Point, &p.ImagePath, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepo) ListWithStocks(ctx context.Context) ([]model.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT s.id, s.product_id, s.item_code, s.name, s.description,
                     s.color_id, s.size_id, s.barcode, s.stock_qr_code, s.quantity,
                     c.id, c.type, c.description,
                     z.id, z.type, z.description
              FROM product_stocks s
              JOIN product_options c ON c.id = s.color_id
              JOIN product_options z ON z.id = s.size_id
              ORDER BY s.product_id, s.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byProduct := make(map[int64][]model.ProductStock)
	for rows.Next() {
		var s model.ProductStock
		var color, size model.ProductOption
		if err := rows.Scan(&s.ID, &s.ProductID, &s.ItemCode, &s.Name, &s.Description,
			&s.ColorID, &s.SizeID, &s.Barcode, &s.StockQRCode, &s.Quantity,
			&color.ID, &color.Type, &color.Description,
			&size.ID, &size.Type, &size.Description); err != nil {
			return nil, err
		}
		s.Color, s.Size = &color, &size
		byProduct[s.ProductID] = append(byProduct[s.ProductID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		products[i].Stocks = byProduct[products[i].ID]
	}
	return products, nil
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := `INSERT INTO products (name, description, point, imagepath)
              VALUES ($1, $2, $3, $4)
              RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Point, p.ImagePath).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

func (r *productRepo) UpsertOption(ctx context.Context, optionType, description string) (*model.ProductOption, error) {
	var o model.ProductOption
	query := `INSERT INTO product_options (type, description)
              VALUES ($1, $2)
              ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
              RETURNING id, type, description`
	if err := r.db.QueryRowContext(ctx, query, optionType, description).Scan(&o.ID, &o.Type, &o.Description); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *productRepo) GetOptionByType(ctx context.Context, optionType string) (*model.ProductOption, error) {
	var o model.ProductOption
	query := `SELECT id, type, description FROM product_options WHERE type=$1`
	row := r.db.QueryRowContext(ctx, query, optionType)
	if err := row.Scan(&o.ID, &o.Type, &o.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

const stockColumns = `id, product_id, item_code, name, description, color_id, size_id, barcode, stock_qr_code, quantity`

func scanStock(row *sql.Row) (*model.ProductStock, error) {
	var s model.ProductStock
	err := row.Scan(&s.ID, &s.ProductID, &s.ItemCode, &s.Name, &s.Description,
		&s.ColorID, &s.SizeID, &s.Barcode, &s.StockQRCode, &s.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *productRepo) GetStock(ctx context.Context, productID, colorID, sizeID int64) (*model.ProductStock, error) {
	query := `SELECT ` + stockColumns + ` FROM product_stocks
              WHERE product_id=$1 AND color_id=$2 AND size_id=$3`
	return scanStock(r.db.QueryRowContext(ctx, query, productID, colorID, sizeID))
}

func (r *productRepo) FindAvailableStock(ctx context.Context, productID int64) (*model.ProductStock, error) {
	query := `SELECT ` + stockColumns + ` FROM product_stocks
              WHERE product_id=$1 AND quantity > 0
              ORDER BY id LIMIT 1`
	return scanStock(r.db.QueryRowContext(ctx, query, productID))
}

func (r *productRepo) CreateStock(ctx context.Context, s *model.ProductStock) error {
	query := `INSERT INTO product_stocks
              (product_id, item_code, name, description, color_id, size_id, barcode, stock_qr_code, quantity)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.ProductID, s.ItemCode, s.Name, s.Description,
		s.ColorID, s.SizeID, s.Barcode, s.StockQRCode, s.Quantity).Scan(&s.ID)
}

func (r *productRepo) DecrementStock(ctx context.Context, stockID int64) (int, bool, error) {
	var remaining int
	query := `UPDATE product_stocks
              SET quantity = quantity - 1
              WHERE id=$1 AND quantity > 0
              RETURNING quantity`
	err := r.db.QueryRowContext(ctx, query, stockID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return remaining, true, nil
}
