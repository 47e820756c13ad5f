package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prvclub/backend/internal/model"
)

type OTPRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.OTP, error)
	// Upsert replaces any stale code for the user with a fresh one.
	Upsert(ctx context.Context, userID int64, code string, expiresAt time.Time) error
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type otpRepo struct {
	db DBTX
}

func NewOTPRepo(db DBTX) OTPRepository {
	return &otpRepo{db: db}
}

func (r *otpRepo) GetByUserID(ctx context.Context, userID int64) (*model.OTP, error) {
	var o model.OTP
	query := `SELECT id, user_id, code, expires_at, created_at FROM prv_otps WHERE user_id=$1`
	row := r.db.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&o.ID, &o.UserID, &o.Code, &o.ExpiresAt, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *otpRepo) Upsert(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	query := `INSERT INTO prv_otps (user_id, code, expires_at)
              VALUES ($1, $2, $3)
              ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`
	_, err := r.db.ExecContext(ctx, query, userID, code, expiresAt)
	return err
}

func (r *otpRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prv_otps WHERE user_id=$1`, userID)
	return err
}

func (r *otpRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prv_otps WHERE expires_at < $1`, now)
	return err
}
