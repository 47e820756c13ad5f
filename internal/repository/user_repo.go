package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prvclub/backend/internal/model"
)

// UserWithTier is the admin listing row: a user joined with the tier of
// their privilege record, when one exists.
type UserWithTier struct {
	User model.User
	Tier *model.Tier
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByLineUserID(ctx context.Context, lineUserID string) (*model.User, error)
	ListWithTier(ctx context.Context) ([]UserWithTier, error)
	SetVerified(ctx context.Context, userID int64) error
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, firstname, lastname, mobile, email, birthday, nationality, line_user_id, is_verified, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Mobile, &u.Email, &u.Birthday,
		&u.Nationality, &u.LineUserID, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM prv_users WHERE id=$1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepo) GetByLineUserID(ctx context.Context, lineUserID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM prv_users WHERE line_user_id=$1`
	return scanUser(r.db.QueryRowContext(ctx, query, lineUserID))
}

func (r *userRepo) ListWithTier(ctx context.Context) ([]UserWithTier, error) {
	query := `SELECT u.id, u.firstname, u.lastname, u.mobile, p.prv_type
              FROM prv_users u
              LEFT JOIN prv_privileges p ON p.user_id = u.id
              ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserWithTier
	for rows.Next() {
		var u UserWithTier
		if err := rows.Scan(&u.User.ID, &u.User.Firstname, &u.User.Lastname, &u.User.Mobile, &u.Tier); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) SetVerified(ctx context.Context, userID int64) error {
	query := `UPDATE prv_users SET is_verified = TRUE, updated_at = NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
