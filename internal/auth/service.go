package auth

import (
	"context"
	"log/slog"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/user"
)

type UserService interface {
	Register(ctx context.Context, dto user.RegisterDTO) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	CheckPassword(u *user.User, password string) bool
}

type Service struct {
	users  UserService
	tokens TokenGenerator
	logger *slog.Logger
}

func NewService(users UserService, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (s *Service) Register(ctx context.Context, dto user.RegisterDTO) (*AuthResponse, error) {
	u, err := s.users.Register(ctx, dto)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if appErr, ok := appErrors.IsAppError(err); ok && appErr.Code == appErrors.ErrCodeUserNotFound {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.users.CheckPassword(u, dto.Password) {
		s.logger.Warn("login failed", "user_id", u.ID)
		return nil, appErrors.ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.tokens.ValidateToken(token)
}

func (s *Service) issue(u *user.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		s.logger.Error("failed to sign access token", "user_id", u.ID, "error", err)
		return nil, appErrors.NewInternalError("Failed to issue token", err)
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        u.ToResponse(),
	}, nil
}
