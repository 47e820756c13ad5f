package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prvclub/backend/internal/model"
)

type PrivilegeRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Privilege, error)
	Create(ctx context.Context, p *model.Privilege) error
	Update(ctx context.Context, p *model.Privilege) error
	MaxLicenseID(ctx context.Context) (int64, error)
	// DeductPoints subtracts points from the balance, clamped at zero, and
	// returns the remaining balance.
	DeductPoints(ctx context.Context, privilegeID int64, points int) (int, error)
}

type privilegeRepo struct {
	db DBTX
}

func NewPrivilegeRepo(db DBTX) PrivilegeRepository {
	return &privilegeRepo{db: db}
}

const privilegeColumns = `id, user_id, prv_type, expires_at, current_amount, total_amount_per_year, current_point, license_id, registered_at, is_purchased`

func (r *privilegeRepo) GetByUserID(ctx context.Context, userID int64) (*model.Privilege, error) {
	var p model.Privilege
	query := `SELECT ` + privilegeColumns + ` FROM prv_privileges WHERE user_id=$1`
	row := r.db.QueryRowContext(ctx, query, userID)
	err := row.Scan(&p.ID, &p.UserID, &p.Tier, &p.ExpiresAt, &p.CurrentAmount,
		&p.TotalAmountPerYear, &p.CurrentPoint, &p.LicenseID, &p.RegisteredAt, &p.IsPurchased)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *privilegeRepo) Create(ctx context.Context, p *model.Privilege) error {
	query := `INSERT INTO prv_privileges
              (user_id, prv_type, expires_at, current_amount, total_amount_per_year, current_point, license_id, registered_at, is_purchased)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING id`
	return r.db.QueryRowContext(ctx, query, p.UserID, p.Tier, p.ExpiresAt, p.CurrentAmount,
		p.TotalAmountPerYear, p.CurrentPoint, p.LicenseID, p.RegisteredAt, p.IsPurchased).Scan(&p.ID)
}

func (r *privilegeRepo) Update(ctx context.Context, p *model.Privilege) error {
	query := `UPDATE prv_privileges
              SET prv_type=$2, expires_at=$3, current_amount=$4, total_amount_per_year=$5,
                  current_point=$6, is_purchased=$7
              WHERE id=$1`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Tier, p.ExpiresAt, p.CurrentAmount,
		p.TotalAmountPerYear, p.CurrentPoint, p.IsPurchased)
	return err
}

func (r *privilegeRepo) MaxLicenseID(ctx context.Context) (int64, error) {
	var max int64
	query := `SELECT COALESCE(MAX(license_id), 0) FROM prv_privileges`
	if err := r.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (r *privilegeRepo) DeductPoints(ctx context.Context, privilegeID int64, points int) (int, error) {
	var remaining int
	query := `UPDATE prv_privileges
              SET current_point = GREATEST(current_point - $2, 0)
              WHERE id=$1
              RETURNING current_point`
	if err := r.db.QueryRowContext(ctx, query, privilegeID, points).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}
