package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prvclub/backend/internal/model"
)

type ExpenseRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Expense, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Expense, error)
	Create(ctx context.Context, e *model.Expense) error
	Delete(ctx context.Context, id int64) error
}

type expenseRepo struct {
	db DBTX
}

func NewExpenseRepo(db DBTX) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) GetByID(ctx context.Context, id int64) (*model.Expense, error) {
	var e model.Expense
	query := `SELECT id, user_id, expense_amount, transaction_date, prv_type, expense_point
              FROM prv_expenses WHERE id=$1`
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.TransactionDate, &e.Tier, &e.Points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *expenseRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Expense, error) {
	query := `SELECT id, user_id, expense_amount, transaction_date, prv_type, expense_point
              FROM prv_expenses WHERE user_id=$1
              ORDER BY transaction_date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.TransactionDate, &e.Tier, &e.Points); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *expenseRepo) Create(ctx context.Context, e *model.Expense) error {
	query := `INSERT INTO prv_expenses (user_id, expense_amount, transaction_date, prv_type, expense_point)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id`
	return r.db.QueryRowContext(ctx, query, e.UserID, e.Amount, e.TransactionDate, e.Tier, e.Points).Scan(&e.ID)
}

func (r *expenseRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prv_expenses WHERE id=$1`, id)
	return err
}
