package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternalError      = errors.New("internal Server Error")
)

type Service interface {
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	userService user.Service
	jwtManager  JWTManagerInterface
}

func NewAuthService(userService user.Service, jwtManager JWTManagerInterface) Service {
	return &service{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	existingUser, err := s.userService.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		log.Ctx(ctx).Error().Err(err).Msg("error when getting user from database")
		return nil, "", ErrInternalError
	}

	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessJWT(existingUser.ID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("error during JWT generation")
		return nil, "", ErrInternalError
	}

	return existingUser, accessToken, nil
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword(
		[]byte(hashedPassword), []byte(currPassword))
	return err == nil
}
