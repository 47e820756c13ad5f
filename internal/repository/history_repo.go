package repository

import (
	"context"
	"time"

	"github.com/prvclub/backend/internal/model"
)

// ApprovedHistory is one row of a member's approved redemption history,
// joined with the stock entry and product it refers to.
type ApprovedHistory struct {
	ID                 int64
	TransactionDate    time.Time
	ProductID          int64
	ProductName        string
	ProductDescription string
	ImagePath          string
	PointsUsed         int
	Color              string
	Size               string
	Quantity           int
}

type HistoryRepository interface {
	Create(ctx context.Context, h *model.History) error
	ExistsForProduct(ctx context.Context, productID int64) (bool, error)
	ListRedeemedProductIDs(ctx context.Context, userID int64) ([]int64, error)
	ListApprovedByUserID(ctx context.Context, userID int64) ([]ApprovedHistory, error)
	// ApprovePending flips the pending row linked to a QR token to
	// approved and stamps the transaction time.
	ApprovePending(ctx context.Context, qrCodeID int64, at time.Time) (bool, error)
}

type historyRepo struct {
	db DBTX
}

func NewHistoryRepo(db DBTX) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, h *model.History) error {
	query := `INSERT INTO prv_histories (user_id, product_id, product_stock_id, qr_code_id, status, transaction_date)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING id`
	return r.db.QueryRowContext(ctx, query, h.UserID, h.ProductID, h.ProductStockID,
		h.QRCodeID, h.Status, h.TransactionDate).Scan(&h.ID)
}

func (r *historyRepo) ExistsForProduct(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM prv_histories WHERE product_id=$1)`
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *historyRepo) ListRedeemedProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT DISTINCT product_id FROM prv_histories WHERE user_id=$1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *historyRepo) ListApprovedByUserID(ctx context.Context, userID int64) ([]ApprovedHistory, error) {
	query := `SELECT h.id, h.transaction_date, p.id, p.name, p.description, p.imagepath, p.point,
                     c.type, z.type, s.quantity
              FROM prv_histories h
              JOIN product_stocks s ON s.id = h.product_stock_id
              JOIN products p ON p.id = s.product_id
              JOIN product_options c ON c.id = s.color_id
              JOIN product_options z ON z.id = s.size_id
              WHERE h.user_id=$1 AND h.status='approved'
              ORDER BY h.transaction_date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ApprovedHistory
	for rows.Next() {
		var h ApprovedHistory
		if err := rows.Scan(&h.ID, &h.TransactionDate, &h.ProductID, &h.ProductName,
			&h.ProductDescription, &h.ImagePath, &h.PointsUsed, &h.Color, &h.Size, &h.Quantity); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *historyRepo) ApprovePending(ctx context.Context, qrCodeID int64, at time.Time) (bool, error) {
	query := `UPDATE prv_histories
              SET status='approved', transaction_date=$2
              WHERE qr_code_id=$1 AND status='pending'`
	res, err := r.db.ExecContext(ctx, query, qrCodeID, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
