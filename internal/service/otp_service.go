package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/mailer"
	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/repository"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNoEmail        = errors.New("no email is associated with this user")
	ErrOTPNotFound    = errors.New("otp record not found")
	ErrOTPInvalid     = errors.New("invalid otp code")
	ErrOTPExpired     = errors.New("otp code has expired")
	ErrOTPRateLimited = errors.New("otp already sent")
)

const otpTTL = 5 * time.Minute

type OTPService interface {
	RequestOTP(ctx context.Context, lineUserID string) (int64, error)
	VerifyOTP(ctx context.Context, lineUserID, code string) (*model.User, error)
}

type otpService struct {
	store  repository.Store
	mailer mailer.Mailer
	logger zerolog.Logger
	now    func() time.Time
}

func NewOTPService(store repository.Store, m mailer.Mailer, logger zerolog.Logger) OTPService {
	return &otpService{
		store:  store,
		mailer: m,
		logger: logger.With().Str("service", "OTPService").Logger(),
		now:    time.Now,
	}
}

// RequestOTP issues a fresh verification code for the member and mails it.
// At most one code is outstanding per user; a second request inside the
// validity window is rejected.
func (s *otpService) RequestOTP(ctx context.Context, lineUserID string) (int64, error) {
	user, err := s.store.Users().GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	if user.Email == "" {
		return 0, ErrNoEmail
	}

	now := s.now()
	if err := s.store.OTPs().DeleteExpired(ctx, now); err != nil {
		return 0, err
	}

	existing, err := s.store.OTPs().GetByUserID(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if existing != nil && existing.ExpiresAt.After(now) {
		return 0, ErrOTPRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return 0, err
	}
	if err := s.store.OTPs().Upsert(ctx, user.ID, code, now.Add(otpTTL)); err != nil {
		return 0, err
	}

	if err := s.mailer.SendOTP(user.Email, code); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to send OTP mail")
		return 0, err
	}
	return user.ID, nil
}

// VerifyOTP checks the submitted code and, on success, marks the user
// verified and burns the code.
func (s *otpService) VerifyOTP(ctx context.Context, lineUserID, code string) (*model.User, error) {
	user, err := s.store.Users().GetByLineUserID(ctx, lineUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	record, err := s.store.OTPs().GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrOTPNotFound
	}
	if record.Code != code {
		return nil, ErrOTPInvalid
	}
	if record.ExpiresAt.Before(s.now()) {
		return nil, ErrOTPExpired
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().SetVerified(ctx, user.ID); err != nil {
			return err
		}
		if err := tx.Statuses().Upsert(ctx, user.ID, model.StatusVerified); err != nil {
			return err
		}
		return tx.OTPs().DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	user.IsVerified = true
	return user, nil
}

// generateOTPCode returns a random six digit code, zero padded.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
