package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
)

type RepositoryAPI interface {
	ListServices(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*catalogDatamodel.Service, error)
	GetServiceBySlug(ctx context.Context, slug string) (*catalogDatamodel.Service, error)
	CreateService(ctx context.Context, service *catalogDatamodel.Service) error
	UpdateService(ctx context.Context, service *catalogDatamodel.Service) error
	DeactivateService(ctx context.Context, id int64) error

	ListStates(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.State, error)
	GetStateByID(ctx context.Context, id int64) (*catalogDatamodel.State, error)
	GetStateBySlug(ctx context.Context, slug string) (*catalogDatamodel.State, error)
	CreateState(ctx context.Context, state *catalogDatamodel.State) error
	UpdateState(ctx context.Context, state *catalogDatamodel.State) error
	DeactivateState(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListServices(ctx context.Context, includeInactive bool) ([]*FilingService, error) {
	rows, err := s.repo.ListServices(ctx, !includeInactive)
	if err != nil {
		s.logger.Error("failed to list services", "error", err)
		return nil, appErrors.NewInternalError("Failed to list services", err)
	}

	services := make([]*FilingService, 0, len(rows))
	for _, row := range rows {
		services = append(services, ServiceFromDataModel(row))
	}
	return services, nil
}

// ResolveService looks up an active service by numeric id or slug.
func (s *Service) ResolveService(ctx context.Context, slugOrID string) (*FilingService, error) {
	key := strings.TrimSpace(slugOrID)
	if key == "" {
		return nil, appErrors.ErrServiceNotFound
	}

	var (
		row *catalogDatamodel.Service
		err error
	)
	if id, convErr := strconv.ParseInt(key, 10, 64); convErr == nil {
		row, err = s.repo.GetServiceByID(ctx, id)
	} else {
		row, err = s.repo.GetServiceBySlug(ctx, NormalizeSlug(key))
	}
	if err != nil {
		s.logger.Error("failed to resolve service", "key", key, "error", err)
		return nil, appErrors.NewInternalError("Failed to resolve service", err)
	}
	if row == nil || !row.IsActive {
		return nil, appErrors.ErrServiceNotFound
	}
	return ServiceFromDataModel(row), nil
}

func (s *Service) CreateService(ctx context.Context, dto ServiceDTO) (*FilingService, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	slug := NormalizeSlug(dto.Slug)
	existing, err := s.repo.GetServiceBySlug(ctx, slug)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to check service slug", err)
	}
	if existing != nil {
		return nil, appErrors.NewConflictError("A service with this slug already exists", appErrors.ErrCodeDuplicate)
	}

	svc := &FilingService{
		Name:          strings.TrimSpace(dto.Name),
		Slug:          slug,
		Description:   dto.Description,
		Price:         dto.Price.Round(2),
		OriginalPrice: dto.OriginalPrice,
		Features:      dto.Features,
		Icon:          dto.Icon,
		IsActive:      dto.IsActive == nil || *dto.IsActive,
	}

	row := ServiceToDataModel(svc)
	if err := s.repo.CreateService(ctx, row); err != nil {
		s.logger.Error("failed to create service", "slug", slug, "error", err)
		return nil, appErrors.NewInternalError("Failed to create service", err)
	}

	s.logger.Info("service created", "service_id", row.ID, "slug", slug, "price", row.Price.String())
	return ServiceFromDataModel(row), nil
}

func (s *Service) UpdateService(ctx context.Context, id int64, dto ServiceDTO) (*FilingService, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetServiceByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to load service", err)
	}
	if row == nil {
		return nil, appErrors.ErrServiceNotFound
	}

	slug := NormalizeSlug(dto.Slug)
	if slug != row.Slug {
		other, err := s.repo.GetServiceBySlug(ctx, slug)
		if err != nil {
			return nil, appErrors.NewInternalError("Failed to check service slug", err)
		}
		if other != nil && other.ID != id {
			return nil, appErrors.NewConflictError("A service with this slug already exists", appErrors.ErrCodeDuplicate)
		}
	}

	svc := ServiceFromDataModel(row)
	svc.Name = strings.TrimSpace(dto.Name)
	svc.Slug = slug
	svc.Description = dto.Description
	svc.Price = dto.Price.Round(2)
	svc.OriginalPrice = dto.OriginalPrice
	svc.Features = dto.Features
	svc.Icon = dto.Icon
	if dto.IsActive != nil {
		svc.IsActive = *dto.IsActive
	}

	updated := ServiceToDataModel(svc)
	if err := s.repo.UpdateService(ctx, updated); err != nil {
		s.logger.Error("failed to update service", "service_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update service", err)
	}
	return ServiceFromDataModel(updated), nil
}

// DeleteService deactivates the service. Applications keep referencing it.
func (s *Service) DeleteService(ctx context.Context, id int64) error {
	row, err := s.repo.GetServiceByID(ctx, id)
	if err != nil {
		return appErrors.NewInternalError("Failed to load service", err)
	}
	if row == nil {
		return appErrors.ErrServiceNotFound
	}
	if err := s.repo.DeactivateService(ctx, id); err != nil {
		s.logger.Error("failed to deactivate service", "service_id", id, "error", err)
		return appErrors.NewInternalError("Failed to delete service", err)
	}
	s.logger.Info("service deactivated", "service_id", id)
	return nil
}

func (s *Service) ListStates(ctx context.Context, includeInactive bool) ([]*State, error) {
	rows, err := s.repo.ListStates(ctx, !includeInactive)
	if err != nil {
		s.logger.Error("failed to list states", "error", err)
		return nil, appErrors.NewInternalError("Failed to list states", err)
	}

	states := make([]*State, 0, len(rows))
	for _, row := range rows {
		states = append(states, StateFromDataModel(row))
	}
	return states, nil
}

// ResolveState looks up an active state by numeric id or by slug, ignoring case.
func (s *Service) ResolveState(ctx context.Context, slugOrID string) (*State, error) {
	key := strings.TrimSpace(slugOrID)
	if key == "" {
		return nil, appErrors.ErrStateNotFound
	}

	var (
		row *catalogDatamodel.State
		err error
	)
	if id, convErr := strconv.ParseInt(key, 10, 64); convErr == nil {
		row, err = s.repo.GetStateByID(ctx, id)
	} else {
		row, err = s.repo.GetStateBySlug(ctx, NormalizeSlug(key))
	}
	if err != nil {
		s.logger.Error("failed to resolve state", "key", key, "error", err)
		return nil, appErrors.NewInternalError("Failed to resolve state", err)
	}
	if row == nil || !row.IsActive {
		return nil, appErrors.ErrStateNotFound
	}
	return StateFromDataModel(row), nil
}

func (s *Service) CreateState(ctx context.Context, dto StateDTO) (*State, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	slug := NormalizeSlug(dto.Slug)
	existing, err := s.repo.GetStateBySlug(ctx, slug)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to check state slug", err)
	}
	if existing != nil {
		return nil, appErrors.NewConflictError("A state with this slug already exists", appErrors.ErrCodeDuplicate)
	}

	row := StateToDataModel(&State{
		Name:        strings.TrimSpace(dto.Name),
		Slug:        slug,
		Description: dto.Description,
		PortalURL:   dto.PortalURL,
		IsActive:    dto.IsActive == nil || *dto.IsActive,
	})
	if err := s.repo.CreateState(ctx, row); err != nil {
		s.logger.Error("failed to create state", "slug", slug, "error", err)
		return nil, appErrors.NewInternalError("Failed to create state", err)
	}

	s.logger.Info("state created", "state_id", row.ID, "slug", slug)
	return StateFromDataModel(row), nil
}

func (s *Service) UpdateState(ctx context.Context, id int64, dto StateDTO) (*State, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetStateByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to load state", err)
	}
	if row == nil {
		return nil, appErrors.ErrStateNotFound
	}

	slug := NormalizeSlug(dto.Slug)
	if slug != row.Slug {
		other, err := s.repo.GetStateBySlug(ctx, slug)
		if err != nil {
			return nil, appErrors.NewInternalError("Failed to check state slug", err)
		}
		if other != nil && other.ID != id {
			return nil, appErrors.NewConflictError("A state with this slug already exists", appErrors.ErrCodeDuplicate)
		}
	}

	row.Name = strings.TrimSpace(dto.Name)
	row.Slug = slug
	row.Description = dto.Description
	row.PortalURL = dto.PortalURL
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdateState(ctx, row); err != nil {
		s.logger.Error("failed to update state", "state_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update state", err)
	}
	return StateFromDataModel(row), nil
}

func (s *Service) DeleteState(ctx context.Context, id int64) error {
	row, err := s.repo.GetStateByID(ctx, id)
	if err != nil {
		return appErrors.NewInternalError("Failed to load state", err)
	}
	if row == nil {
		return appErrors.ErrStateNotFound
	}
	if err := s.repo.DeactivateState(ctx, id); err != nil {
		s.logger.Error("failed to deactivate state", "state_id", id, "error", err)
		return appErrors.NewInternalError("Failed to delete state", err)
	}
	s.logger.Info("state deactivated", "state_id", id)
	return nil
}
