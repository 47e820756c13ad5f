package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prvclub/backend/internal/model"
)

type QRCodeRepository interface {
	GetByID(ctx context.Context, id int64) (*model.QRCode, error)
	// FindActiveIdentity looks up an unexpired identity token with the
	// exact payload, so the same member card image is reused.
	FindActiveIdentity(ctx context.Context, code string) (*model.QRCode, error)
	Create(ctx context.Context, q *model.QRCode) error
	UpdatePayload(ctx context.Context, id int64, code string, imageBase64 string) error
	TouchScan(ctx context.Context, id int64, at time.Time) error
	// MarkUsed flips the token from active to used. The WHERE clause on
	// status is the compare-and-swap that makes concurrent approvals of
	// the same token yield exactly one winner.
	MarkUsed(ctx context.Context, id int64, at time.Time) (bool, error)
}

type qrCodeRepo struct {
	db DBTX
}

func NewQRCodeRepo(db DBTX) QRCodeRepository {
	return &qrCodeRepo{db: db}
}

const qrColumns = `id, code, type, status, image_base64, expires_at, last_scanned_at, created_at`

func scanQRCode(row *sql.Row) (*model.QRCode, error) {
	var q model.QRCode
	err := row.Scan(&q.ID, &q.Code, &q.Type, &q.Status, &q.ImageBase64, &q.ExpiresAt, &q.LastScannedAt, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *qrCodeRepo) GetByID(ctx context.Context, id int64) (*model.QRCode, error) {
	query := `SELECT ` + qrColumns + ` FROM prv_qr_codes WHERE id=$1`
	return scanQRCode(r.db.QueryRowContext(ctx, query, id))
}

func (r *qrCodeRepo) FindActiveIdentity(ctx context.Context, code string) (*model.QRCode, error) {
	query := `SELECT ` + qrColumns + ` FROM prv_qr_codes
              WHERE code=$1 AND type='user' AND status='active'`
	return scanQRCode(r.db.QueryRowContext(ctx, query, code))
}

func (r *qrCodeRepo) Create(ctx context.Context, q *model.QRCode) error {
	query := `INSERT INTO prv_qr_codes (code, type, status, image_base64, expires_at)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, q.Code, q.Type, q.Status, q.ImageBase64, q.ExpiresAt).
		Scan(&q.ID, &q.CreatedAt)
}

func (r *qrCodeRepo) UpdatePayload(ctx context.Context, id int64, code string, imageBase64 string) error {
	query := `UPDATE prv_qr_codes SET code=$2, image_base64=$3 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, query, id, code, imageBase64)
	return err
}

func (r *qrCodeRepo) TouchScan(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE prv_qr_codes SET last_scanned_at=$2 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

func (r *qrCodeRepo) MarkUsed(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `UPDATE prv_qr_codes
              SET status='used', last_scanned_at=$2
              WHERE id=$1 AND status='active'`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
