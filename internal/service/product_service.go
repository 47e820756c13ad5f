package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/qrcode"
	"github.com/prvclub/backend/internal/repository"
	"github.com/prvclub/backend/internal/storage"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductRedeemed = errors.New("product has been redeemed by a customer")
)

// StockInput is one (color, size) combination of a new product.
type StockInput struct {
	Color    string
	Size     string
	Barcode  string
	Quantity int
}

// ProductInput is one product in an admin batch upload.
type ProductInput struct {
	Name        string
	Description string
	Point       int
	ImagePath   string
	Stocks      []StockInput
}

// CreatedProduct reports what a batch upload produced per product.
type CreatedProduct struct {
	Product *model.Product
	Stocks  []model.ProductStock
}

// CatalogProduct is a member-facing product with its redeemability flag
// and a signed image URL.
type CatalogProduct struct {
	Product      model.Product
	IsRedeemable bool
	ImageURL     string
}

type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListRewards(ctx context.Context) ([]model.Product, error)
	AddProducts(ctx context.Context, inputs []ProductInput) ([]CreatedProduct, error)
	DeleteProduct(ctx context.Context, id int64) error
	MemberCatalog(ctx context.Context, lineUserID string) (int, []CatalogProduct, error)
}

type productService struct {
	store  repository.Store
	signer storage.Signer
	logger zerolog.Logger
}

func NewProductService(store repository.Store, signer storage.Signer, logger zerolog.Logger) ProductService {
	return &productService{
		store:  store,
		signer: signer,
		logger: logger.With().Str("service", "ProductService").Logger(),
	}
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.store.Products().ListWithStocks(ctx)
}

func (s *productService) ListRewards(ctx context.Context) ([]model.Product, error) {
	return s.store.Products().List(ctx)
}

// AddProducts creates products and their stock combinations in one
// transaction. Existing products and stock combinations are reused, the
// shared color/size options are upserted, and every new stock entry gets
// a printed-label QR.
func (s *productService) AddProducts(ctx context.Context, inputs []ProductInput) ([]CreatedProduct, error) {
	var created []CreatedProduct
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		for _, input := range inputs {
			product, err := tx.Products().GetByName(ctx, input.Name)
			if err != nil {
				return err
			}
			if product == nil {
				product = &model.Product{
					Name:        input.Name,
					Description: input.Description,
					Point:       input.Point,
					ImagePath:   input.ImagePath,
				}
				if err := tx.Products().Create(ctx, product); err != nil {
					return err
				}
			} else {
				s.logger.Info().Str("name", input.Name).Msg("Product already exists, skipping creation")
			}

			entry := CreatedProduct{Product: product}
			for _, combo := range input.Stocks {
				color, err := tx.Products().UpsertOption(ctx, combo.Color, combo.Color+" color option")
				if err != nil {
					return err
				}
				size, err := tx.Products().UpsertOption(ctx, combo.Size, combo.Size+" size option")
				if err != nil {
					return err
				}

				existing, err := tx.Products().GetStock(ctx, product.ID, color.ID, size.ID)
				if err != nil {
					return err
				}
				if existing != nil {
					s.logger.Info().Str("name", input.Name).Str("color", combo.Color).Str("size", combo.Size).
						Msg("Stock combination already exists, skipping creation")
					entry.Stocks = append(entry.Stocks, *existing)
					continue
				}

				stockName := fmt.Sprintf("%s (%s - %s)", input.Name, combo.Color, combo.Size)
				_, labelQR, err := qrcode.Encode(qrcode.StockPayload{
					Barcode:   combo.Barcode,
					Name:      stockName,
					ProductID: product.ID,
					Color:     combo.Color,
					Size:      combo.Size,
				})
				if err != nil {
					return err
				}

				stock := &model.ProductStock{
					ProductID:   product.ID,
					ItemCode:    fmt.Sprintf("%s-%s-%s", input.Name, combo.Color, combo.Size),
					Name:        stockName,
					Description: fmt.Sprintf("Stock for %s with color %s and size %s", input.Name, combo.Color, combo.Size),
					ColorID:     color.ID,
					SizeID:      size.ID,
					Barcode:     combo.Barcode,
					StockQRCode: labelQR,
					Quantity:    combo.Quantity,
				}
				if err := tx.Products().CreateStock(ctx, stock); err != nil {
					return err
				}
				entry.Stocks = append(entry.Stocks, *stock)
			}
			created = append(created, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteProduct removes a product unless any redemption history row still
// references it.
func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}

	redeemed, err := s.store.Histories().ExistsForProduct(ctx, id)
	if err != nil {
		return err
	}
	if redeemed {
		return ErrProductRedeemed
	}

	return s.store.Products().Delete(ctx, id)
}

// MemberCatalog lists every product for a member, flagging the ones they
// can redeem (enough points, not redeemed before) and attaching signed
// image URLs. A signing failure only logs; the product row still ships.
func (s *productService) MemberCatalog(ctx context.Context, lineUserID string) (int, []CatalogProduct, error) {
	user, err := s.store.Users().GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return 0, nil, err
	}
	if user == nil {
		return 0, nil, ErrUserNotFound
	}

	privilege, err := s.store.Privileges().GetByUserID(ctx, user.ID)
	if err != nil {
		return 0, nil, err
	}
	if privilege == nil {
		return 0, nil, ErrPrivilegeNotFound
	}
	maxPoints := privilege.CurrentPoint

	redeemedIDs, err := s.store.Histories().ListRedeemedProductIDs(ctx, user.ID)
	if err != nil {
		return 0, nil, err
	}
	redeemed := make(map[int64]bool, len(redeemedIDs))
	for _, id := range redeemedIDs {
		redeemed[id] = true
	}

	products, err := s.store.Products().ListWithStocks(ctx)
	if err != nil {
		return 0, nil, err
	}

	catalog := make([]CatalogProduct, 0, len(products))
	for _, p := range products {
		item := CatalogProduct{
			Product:      p,
			IsRedeemable: p.Point <= maxPoints && !redeemed[p.ID],
		}
		if p.ImagePath != "" {
			url, err := s.signer.SignedURL(ctx, p.ImagePath)
			if err != nil {
				s.logger.Error().Err(err).Str("product", p.Name).Msg("Failed to sign product image URL")
			} else {
				item.ImageURL = url
			}
		}
		catalog = append(catalog, item)
	}
	return maxPoints, catalog, nil
}
