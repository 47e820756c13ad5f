package service

import (
	"context"
	"time"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/repository"
)

// stubStore is an in-memory repository.Store used by the service tests.
// WithinTx just runs the callback against the same state; the tests assert
// on returned errors and recorded calls, not on rollback mechanics.
type stubStore struct {
	users      []*model.User
	admins     []*model.Admin
	privileges []*model.Privilege
	expenses   []*model.Expense
	products   []*model.Product
	options    []*model.ProductOption
	stocks     []*model.ProductStock
	qrcodes    []*model.QRCode
	histories  []*model.History
	otps       []*model.OTP
	statuses   map[int64]int

	nextID int64

	touchScanCalls []int64
	markUsedDenied bool // simulate losing the active-to-used swap
}

func newStubStore() *stubStore {
	return &stubStore{statuses: map[int64]int{}, nextID: 1000}
}

func (s *stubStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *stubStore) Users() repository.UserRepository           { return &stubUsers{s} }
func (s *stubStore) Admins() repository.AdminRepository         { return &stubAdmins{s} }
func (s *stubStore) Statuses() repository.StatusRepository      { return &stubStatuses{s} }
func (s *stubStore) Privileges() repository.PrivilegeRepository { return &stubPrivileges{s} }
func (s *stubStore) Expenses() repository.ExpenseRepository     { return &stubExpenses{s} }
func (s *stubStore) Products() repository.ProductRepository     { return &stubProducts{s} }
func (s *stubStore) QRCodes() repository.QRCodeRepository       { return &stubQRCodes{s} }
func (s *stubStore) Histories() repository.HistoryRepository    { return &stubHistories{s} }
func (s *stubStore) OTPs() repository.OTPRepository             { return &stubOTPs{s} }

func (s *stubStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type stubUsers struct{ s *stubStore }

func (r *stubUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUsers) GetByLineUserID(_ context.Context, lineUserID string) (*model.User, error) {
	for _, u := range r.s.users {
		if u.LineUserID == lineUserID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *stubUsers) ListWithTier(_ context.Context) ([]repository.UserWithTier, error) {
	out := make([]repository.UserWithTier, 0, len(r.s.users))
	for _, u := range r.s.users {
		item := repository.UserWithTier{User: *u}
		for _, p := range r.s.privileges {
			if p.UserID == u.ID {
				tier := p.Tier
				item.Tier = &tier
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *stubUsers) SetVerified(_ context.Context, userID int64) error {
	for _, u := range r.s.users {
		if u.ID == userID {
			u.IsVerified = true
		}
	}
	return nil
}

type stubAdmins struct{ s *stubStore }

func (r *stubAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	for _, a := range r.s.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

type stubStatuses struct{ s *stubStore }

func (r *stubStatuses) Upsert(_ context.Context, userID int64, status int) error {
	r.s.statuses[userID] = status
	return nil
}

type stubPrivileges struct{ s *stubStore }

func (r *stubPrivileges) GetByUserID(_ context.Context, userID int64) (*model.Privilege, error) {
	for _, p := range r.s.privileges {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubPrivileges) Create(_ context.Context, p *model.Privilege) error {
	p.ID = r.s.id()
	r.s.privileges = append(r.s.privileges, p)
	return nil
}

func (r *stubPrivileges) Update(_ context.Context, p *model.Privilege) error {
	for i, existing := range r.s.privileges {
		if existing.ID == p.ID {
			r.s.privileges[i] = p
		}
	}
	return nil
}

func (r *stubPrivileges) MaxLicenseID(_ context.Context) (int64, error) {
	var max int64
	for _, p := range r.s.privileges {
		if p.LicenseID > max {
			max = p.LicenseID
		}
	}
	return max, nil
}

func (r *stubPrivileges) DeductPoints(_ context.Context, privilegeID int64, points int) (int, error) {
	for _, p := range r.s.privileges {
		if p.ID == privilegeID {
			p.CurrentPoint -= points
			if p.CurrentPoint < 0 {
				p.CurrentPoint = 0
			}
			return p.CurrentPoint, nil
		}
	}
	return 0, nil
}

type stubExpenses struct{ s *stubStore }

func (r *stubExpenses) GetByID(_ context.Context, id int64) (*model.Expense, error) {
	for _, e := range r.s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (r *stubExpenses) ListByUserID(_ context.Context, userID int64) ([]model.Expense, error) {
	var out []model.Expense
	for _, e := range r.s.expenses {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubExpenses) Create(_ context.Context, e *model.Expense) error {
	e.ID = r.s.id()
	r.s.expenses = append(r.s.expenses, e)
	return nil
}

func (r *stubExpenses) Delete(_ context.Context, id int64) error {
	for i, e := range r.s.expenses {
		if e.ID == id {
			r.s.expenses = append(r.s.expenses[:i], r.s.expenses[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubProducts struct{ s *stubStore }

func (r *stubProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range r.s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubProducts) GetByName(_ context.Context, name string) (*model.Product, error) {
	for _, p := range r.s.products {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

func (r *stubProducts) List(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProducts) ListWithStocks(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		item := *p
		item.Stocks = nil
		for _, st := range r.s.stocks {
			if st.ProductID == p.ID {
				item.Stocks = append(item.Stocks, *st)
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *stubProducts) Create(_ context.Context, p *model.Product) error {
	p.ID = r.s.id()
	r.s.products = append(r.s.products, p)
	return nil
}

func (r *stubProducts) Delete(_ context.Context, id int64) error {
	for i, p := range r.s.products {
		if p.ID == id {
			r.s.products = append(r.s.products[:i], r.s.products[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubProducts) UpsertOption(_ context.Context, optionType, description string) (*model.ProductOption, error) {
	for _, o := range r.s.options {
		if o.Type == optionType {
			return o, nil
		}
	}
	o := &model.ProductOption{ID: r.s.id(), Type: optionType, Description: description}
	r.s.options = append(r.s.options, o)
	return o, nil
}

func (r *stubProducts) GetOptionByType(_ context.Context, optionType string) (*model.ProductOption, error) {
	for _, o := range r.s.options {
		if o.Type == optionType {
			return o, nil
		}
	}
	return nil, nil
}

func (r *stubProducts) GetStock(_ context.Context, productID, colorID, sizeID int64) (*model.ProductStock, error) {
	for _, st := range r.s.stocks {
		if st.ProductID == productID && st.ColorID == colorID && st.SizeID == sizeID {
			return st, nil
		}
	}
	return nil, nil
}

func (r *stubProducts) FindAvailableStock(_ context.Context, productID int64) (*model.ProductStock, error) {
	for _, st := range r.s.stocks {
		if st.ProductID == productID && st.Quantity > 0 {
			return st, nil
		}
	}
	return nil, nil
}

func (r *stubProducts) CreateStock(_ context.Context, st *model.ProductStock) error {
	st.ID = r.s.id()
	r.s.stocks = append(r.s.stocks, st)
	return nil
}

func (r *stubProducts) DecrementStock(_ context.Context, stockID int64) (int, bool, error) {
	for _, st := range r.s.stocks {
		if st.ID == stockID {
			if st.Quantity <= 0 {
				return 0, false, nil
			}
			st.Quantity--
			return st.Quantity, true, nil
		}
	}
	return 0, false, nil
}

type stubQRCodes struct{ s *stubStore }

func (r *stubQRCodes) GetByID(_ context.Context, id int64) (*model.QRCode, error) {
	for _, q := range r.s.qrcodes {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, nil
}

func (r *stubQRCodes) FindActiveIdentity(_ context.Context, code string) (*model.QRCode, error) {
	for _, q := range r.s.qrcodes {
		if q.Code == code && q.Type == model.QRTypeUser && q.Status == model.QRStatusActive {
			return q, nil
		}
	}
	return nil, nil
}

func (r *stubQRCodes) Create(_ context.Context, q *model.QRCode) error {
	q.ID = r.s.id()
	r.s.qrcodes = append(r.s.qrcodes, q)
	return nil
}

func (r *stubQRCodes) UpdatePayload(_ context.Context, id int64, code string, imageBase64 string) error {
	for _, q := range r.s.qrcodes {
		if q.ID == id {
			q.Code = code
			q.ImageBase64 = &imageBase64
		}
	}
	return nil
}

func (r *stubQRCodes) TouchScan(_ context.Context, id int64, at time.Time) error {
	r.s.touchScanCalls = append(r.s.touchScanCalls, id)
	for _, q := range r.s.qrcodes {
		if q.ID == id {
			scanned := at
			q.LastScannedAt = &scanned
		}
	}
	return nil
}

func (r *stubQRCodes) MarkUsed(_ context.Context, id int64, at time.Time) (bool, error) {
	if r.s.markUsedDenied {
		return false, nil
	}
	for _, q := range r.s.qrcodes {
		if q.ID == id && q.Status == model.QRStatusActive {
			q.Status = model.QRStatusUsed
			scanned := at
			q.LastScannedAt = &scanned
			return true, nil
		}
	}
	return false, nil
}

type stubHistories struct{ s *stubStore }

func (r *stubHistories) Create(_ context.Context, h *model.History) error {
	h.ID = r.s.id()
	r.s.histories = append(r.s.histories, h)
	return nil
}

func (r *stubHistories) ExistsForProduct(_ context.Context, productID int64) (bool, error) {
	for _, h := range r.s.histories {
		if h.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubHistories) ListRedeemedProductIDs(_ context.Context, userID int64) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, h := range r.s.histories {
		if h.UserID == userID && !seen[h.ProductID] {
			seen[h.ProductID] = true
			out = append(out, h.ProductID)
		}
	}
	return out, nil
}

func (r *stubHistories) ListApprovedByUserID(_ context.Context, userID int64) ([]repository.ApprovedHistory, error) {
	var out []repository.ApprovedHistory
	for _, h := range r.s.histories {
		if h.UserID != userID || h.Status != model.HistoryApproved {
			continue
		}
		item := repository.ApprovedHistory{ID: h.ID, TransactionDate: h.TransactionDate, ProductID: h.ProductID, Quantity: 1}
		for _, p := range r.s.products {
			if p.ID == h.ProductID {
				item.ProductName = p.Name
				item.ProductDescription = p.Description
				item.ImagePath = p.ImagePath
				item.PointsUsed = p.Point
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *stubHistories) ApprovePending(_ context.Context, qrCodeID int64, at time.Time) (bool, error) {
	for _, h := range r.s.histories {
		if h.QRCodeID == qrCodeID && h.Status == model.HistoryPending {
			h.Status = model.HistoryApproved
			h.TransactionDate = at
			return true, nil
		}
	}
	return false, nil
}

type stubOTPs struct{ s *stubStore }

func (r *stubOTPs) GetByUserID(_ context.Context, userID int64) (*model.OTP, error) {
	for _, o := range r.s.otps {
		if o.UserID == userID {
			return o, nil
		}
	}
	return nil, nil
}

func (r *stubOTPs) Upsert(_ context.Context, userID int64, code string, expiresAt time.Time) error {
	for _, o := range r.s.otps {
		if o.UserID == userID {
			o.Code = code
			o.ExpiresAt = expiresAt
			return nil
		}
	}
	r.s.otps = append(r.s.otps, &model.OTP{ID: r.s.id(), UserID: userID, Code: code, ExpiresAt: expiresAt})
	return nil
}

func (r *stubOTPs) DeleteByUserID(_ context.Context, userID int64) error {
	for i, o := range r.s.otps {
		if o.UserID == userID {
			r.s.otps = append(r.s.otps[:i], r.s.otps[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubOTPs) DeleteExpired(_ context.Context, now time.Time) error {
	kept := r.s.otps[:0]
	for _, o := range r.s.otps {
		if o.ExpiresAt.After(now) {
			kept = append(kept, o)
		}
	}
	r.s.otps = kept
	return nil
}
