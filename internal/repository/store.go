package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can
// run against the pool or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles all repositories behind one handle. WithinTx runs fn with
// a Store bound to a single transaction; any error rolls the whole
// transaction back, leaving no partial state.
type Store interface {
	Users() UserRepository
	Admins() AdminRepository
	Statuses() StatusRepository
	Privileges() PrivilegeRepository
	Expenses() ExpenseRepository
	Products() ProductRepository
	QRCodes() QRCodeRepository
	Histories() HistoryRepository
	OTPs() OTPRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	conn *sql.DB // nil when already inside a transaction
	db   DBTX
}

func NewStore(db *sql.DB) Store {
	return &sqlStore{conn: db, db: db}
}

func (s *sqlStore) Users() UserRepository           { return &userRepo{db: s.db} }
func (s *sqlStore) Admins() AdminRepository         { return &adminRepo{db: s.db} }
func (s *sqlStore) Statuses() StatusRepository      { return &statusRepo{db: s.db} }
func (s *sqlStore) Privileges() PrivilegeRepository { return &privilegeRepo{db: s.db} }
func (s *sqlStore) Expenses() ExpenseRepository     { return &expenseRepo{db: s.db} }
func (s *sqlStore) Products() ProductRepository     { return &productRepo{db: s.db} }
func (s *sqlStore) QRCodes() QRCodeRepository       { return &qrCodeRepo{db: s.db} }
func (s *sqlStore) Histories() HistoryRepository    { return &historyRepo{db: s.db} }
func (s *sqlStore) OTPs() OTPRepository             { return &otpRepo{db: s.db} }

func (s *sqlStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.conn == nil {
		// Already transactional, reuse the surrounding transaction.
		return fn(s)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&sqlStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
