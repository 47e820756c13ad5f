package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prvclub/backend/internal/model"
	"github.com/prvclub/backend/internal/repository"
	"github.com/prvclub/backend/internal/util"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error)
}

type authService struct {
	store     repository.Store
	jwtSecret string
	logger    zerolog.Logger
}

func NewAuthService(store repository.Store, jwtSecret string, logger zerolog.Logger) AuthService {
	return &authService{
		store:     store,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("service", "AuthService").Logger(),
	}
}

// AdminLogin checks the operator's credentials and issues a session token.
func (s *authService) AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error) {
	admin, err := s.store.Admins().GetByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if admin == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(admin.Username, admin.Role, s.jwtSecret)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to issue session token")
		return nil, "", err
	}
	return admin, token, nil
}
