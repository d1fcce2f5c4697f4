package user

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	userDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/user"
)

type Repository interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	return s.create(ctx, dto, RoleUser)
}

// CreateAdmin is used by the seeder; there is no HTTP route for it.
func (s *Service) CreateAdmin(ctx context.Context, dto RegisterDTO) (*User, error) {
	return s.create(ctx, dto, RoleAdmin)
}

func (s *Service) create(ctx context.Context, dto RegisterDTO, role string) (*User, error) {
	dto.Email = normalizeEmail(dto.Email)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to check email", err)
	}
	if existing != nil {
		return nil, appErrors.NewConflictError("An account with this email already exists", appErrors.ErrCodeDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to hash password", err)
	}

	row := &userDatamodel.User{
		Name:         strings.TrimSpace(dto.Name),
		Email:        dto.Email,
		PasswordHash: string(hash),
		Phone:        dto.Phone,
		Role:         role,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "email", dto.Email, "error", err)
		return nil, appErrors.NewInternalError("Failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", row.ID, "role", role)
	return FromDataModel(row), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to get user", err)
	}
	if row == nil {
		return nil, appErrors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	row, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to get user", err)
	}
	if row == nil {
		return nil, appErrors.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func (s *Service) CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
