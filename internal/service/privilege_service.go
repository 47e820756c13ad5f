package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/qrcode"
	"github.com/prvclub/backend/internal/repository"
)

var (
	ErrPrivilegeNotFound = errors.New("privilege not found for this user")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrAlreadyPurchased  = errors.New("license already purchased")
)

const identityTokenYears = 1

// deletionRemainderStep is the fixed modulo used when unwinding the
// remainder on expense deletion. It is intentionally not the tier rate
// the expense was recorded at; the two sides of the ledger have always
// disagreed here and downstream reports depend on the behavior.
const deletionRemainderStep = 150

// PrivilegeSummary is the member-facing privilege card.
type PrivilegeSummary struct {
	Fullname     string
	Mobile       string
	Email        string
	Birthday     *time.Time
	Nationality  string
	Tier         model.Tier
	ExpiresAt    time.Time
	CurrentPoint int
	LicenseID    int64
	RegisteredAt time.Time
	QRCodeBase64 string
}

// ExpenseReport bundles a privilege with its expense history.
type ExpenseReport struct {
	Privilege *model.Privilege
	Expenses  []model.Expense
}

type PrivilegeService interface {
	ListUsers(ctx context.Context) ([]repository.UserWithTier, error)
	GetUserPrivilege(ctx context.Context, lineUserID string) (*PrivilegeSummary, error)
	PurchaseLicense(ctx context.Context, userID int64) (*model.Privilege, error)
	ShowExpenses(ctx context.Context, userID int64) (*ExpenseReport, error)
	AddExpense(ctx context.Context, userID int64, amount float64, transactionDate time.Time) (*model.Expense, *model.Privilege, error)
	DeleteExpense(ctx context.Context, expenseID int64) (*model.Privilege, error)
}

type privilegeService struct {
	store  repository.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewPrivilegeService(store repository.Store, logger zerolog.Logger) PrivilegeService {
	return &privilegeService{
		store:  store,
		logger: logger.With().Str("service", "PrivilegeService").Logger(),
		now:    time.Now,
	}
}

// ListUsers returns every member with their current tier for the
// back-office listing.
func (s *privilegeService) ListUsers(ctx context.Context) ([]repository.UserWithTier, error) {
	return s.store.Users().ListWithTier(ctx)
}

// GetUserPrivilege returns the member's privilege card, lazily creating
// the privilege record on first contact, together with a persistent
// identity QR image that is reused while still active.
func (s *privilegeService) GetUserPrivilege(ctx context.Context, lineUserID string) (*PrivilegeSummary, error) {
	user, err := s.store.Users().GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	privilege, err := s.store.Privileges().GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if privilege == nil {
		privilege, err = s.createDefaultPrivilege(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	payload := qrcode.IdentityPayload{
		Fullname:    user.Fullname(),
		Mobile:      user.Mobile,
		Email:       user.Email,
		Nationality: user.Nationality,
	}
	if user.Birthday != nil {
		payload.Birthday = user.Birthday.Format(time.RFC3339)
	}
	code, dataURL, err := qrcode.Encode(payload)
	if err != nil {
		return nil, err
	}

	image := dataURL
	existing, err := s.store.QRCodes().FindActiveIdentity(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ImageBase64 != nil {
		image = *existing.ImageBase64
	} else {
		token := &model.QRCode{
			Code:        code,
			Type:        model.QRTypeUser,
			Status:      model.QRStatusActive,
			ImageBase64: &dataURL,
			ExpiresAt:   s.now().AddDate(identityTokenYears, 0, 0),
		}
		if err := s.store.QRCodes().Create(ctx, token); err != nil {
			return nil, err
		}
	}

	return &PrivilegeSummary{
		Fullname:     user.Fullname(),
		Mobile:       user.Mobile,
		Email:        user.Email,
		Birthday:     user.Birthday,
		Nationality:  user.Nationality,
		Tier:         privilege.Tier,
		ExpiresAt:    privilege.ExpiresAt,
		CurrentPoint: privilege.CurrentPoint,
		LicenseID:    privilege.LicenseID,
		RegisteredAt: privilege.RegisteredAt,
		QRCodeBase64: image,
	}, nil
}

// createDefaultPrivilege makes the first privilege record for a user:
// Gold tier, zeroed balances, license number one past the current max.
func (s *privilegeService) createDefaultPrivilege(ctx context.Context, userID int64) (*model.Privilege, error) {
	var privilege *model.Privilege
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		maxLicense, err := tx.Privileges().MaxLicenseID(ctx)
		if err != nil {
			return err
		}
		now := s.now()
		p := &model.Privilege{
			UserID:       userID,
			Tier:         model.TierGold,
			ExpiresAt:    now.AddDate(1, 0, 0),
			LicenseID:    maxLicense + 1,
			RegisteredAt: now,
		}
		if err := tx.Privileges().Create(ctx, p); err != nil {
			return err
		}
		privilege = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return privilege, nil
}

// PurchaseLicense activates the paid Privilege tier for one year.
func (s *privilegeService) PurchaseLicense(ctx context.Context, userID int64) (*model.Privilege, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	privilege, err := s.store.Privileges().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if privilege == nil {
		return nil, ErrPrivilegeNotFound
	}
	if privilege.IsPurchased {
		return nil, ErrAlreadyPurchased
	}

	privilege.IsPurchased = true
	privilege.Tier = model.TierPrivilege
	privilege.ExpiresAt = s.now().AddDate(1, 0, 0)
	if err := s.store.Privileges().Update(ctx, privilege); err != nil {
		return nil, err
	}
	return privilege, nil
}

func (s *privilegeService) ShowExpenses(ctx context.Context, userID int64) (*ExpenseReport, error) {
	privilege, err := s.store.Privileges().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if privilege == nil {
		return nil, ErrPrivilegeNotFound
	}

	expenses, err := s.store.Expenses().ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ExpenseReport{Privilege: privilege, Expenses: expenses}, nil
}

// AddExpense records a purchase, moves the yearly spend, recomputes the
// tier and credits points at the new tier's rate. The carried sub-rate
// remainder rolls into the next expense.
func (s *privilegeService) AddExpense(ctx context.Context, userID int64, amount float64, transactionDate time.Time) (*model.Expense, *model.Privilege, error) {
	var (
		expense   *model.Expense
		privilege *model.Privilege
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		p, err := tx.Privileges().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPrivilegeNotFound
		}

		newTotal := p.TotalAmountPerYear + amount
		tier := p.NextTier(newTotal, s.now())
		points, remainder := model.EarnPoints(p.CurrentAmount, amount, tier)

		e := &model.Expense{
			UserID:          userID,
			Amount:          amount,
			TransactionDate: transactionDate,
			Tier:            tier,
			Points:          points,
		}
		if err := tx.Expenses().Create(ctx, e); err != nil {
			return err
		}

		p.Tier = tier
		p.TotalAmountPerYear = newTotal
		p.CurrentAmount = remainder
		p.CurrentPoint += points
		if err := tx.Privileges().Update(ctx, p); err != nil {
			return err
		}

		expense, privilege = e, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, privilege, nil
}

// DeleteExpense reverses a recorded expense: yearly spend and points go
// back down by the recorded values, clamped at zero, and the tier is
// recomputed from the reduced spend. The remainder is unwound with the
// fixed deletionRemainderStep modulo.
func (s *privilegeService) DeleteExpense(ctx context.Context, expenseID int64) (*model.Privilege, error) {
	var privilege *model.Privilege
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		expense, err := tx.Expenses().GetByID(ctx, expenseID)
		if err != nil {
			return err
		}
		if expense == nil {
			return ErrExpenseNotFound
		}

		p, err := tx.Privileges().GetByUserID(ctx, expense.UserID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPrivilegeNotFound
		}

		newTotal := math.Max(p.TotalAmountPerYear-expense.Amount, 0)
		newRemainder := math.Max(p.CurrentAmount-math.Mod(expense.Amount, deletionRemainderStep), 0)
		newPoints := p.CurrentPoint - expense.Points
		if newPoints < 0 {
			newPoints = 0
		}

		if err := tx.Expenses().Delete(ctx, expense.ID); err != nil {
			return err
		}

		p.Tier = p.NextTier(newTotal, s.now())
		p.TotalAmountPerYear = newTotal
		p.CurrentAmount = newRemainder
		p.CurrentPoint = newPoints
		if err := tx.Privileges().Update(ctx, p); err != nil {
			return err
		}

		privilege = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return privilege, nil
}
