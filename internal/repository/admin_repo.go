package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prvclub/backend/internal/model"
)

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
}

type adminRepo struct {
	db DBTX
}

func NewAdminRepo(db DBTX) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	query := `SELECT id, username, password, role, created_at FROM prv_admins WHERE username=$1`
	row := r.db.QueryRowContext(ctx, query, username)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

type StatusRepository interface {
	Upsert(ctx context.Context, userID int64, status int) error
}

type statusRepo struct {
	db DBTX
}

func NewStatusRepo(db DBTX) StatusRepository {
	return &statusRepo{db: db}
}

func (r *statusRepo) Upsert(ctx context.Context, userID int64, status int) error {
	query := `INSERT INTO prv_statuses (user_id, status, updated_at)
              VALUES ($1, $2, NOW())
              ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, userID, status)
	return err
}
