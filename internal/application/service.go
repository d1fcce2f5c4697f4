package application

import (
	"context"
	"fmt"
	"log/slog"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
)

type RepositoryAPI interface {
	Create(ctx context.Context, app *applicationDatamodel.Application) error
	FindByID(ctx context.Context, id int64) (*applicationDatamodel.Application, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*applicationDatamodel.Application, error)
	FindAll(ctx context.Context, filter Filter, page pagination.Params) ([]*applicationDatamodel.Application, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
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

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Params) ([]*Application, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list applications", "error", err)
		return nil, 0, appErrors.NewInternalError("Failed to list applications", err)
	}

	apps := make([]*Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, FromDataModel(row))
	}
	return apps, total, nil
}

// ListMine lists the applications filed by one user.
func (s *Service) ListMine(ctx context.Context, userID int64, page pagination.Params) ([]*Application, int64, error) {
	return s.List(ctx, Filter{UserID: userID}, page)
}

func (s *Service) Get(ctx context.Context, id int64) (*Application, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get application", "application_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to get application", err)
	}
	if row == nil {
		return nil, appErrors.ErrApplicationNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, dto UpdateStatusDTO) (*Application, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status == dto.Status {
		return app, nil
	}
	if !CanTransition(app.Status, dto.Status) {
		return nil, appErrors.NewValidationFieldError("status",
			fmt.Sprintf("cannot move application from %s to %s", app.Status, dto.Status),
			appErrors.ErrCodeInvalidTransition)
	}

	if err := s.repo.UpdateStatus(ctx, id, dto.Status); err != nil {
		s.logger.Error("failed to update application status", "application_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update application status", err)
	}

	s.logger.Info("application status changed",
		"application_id", id,
		"from", app.Status,
		"to", dto.Status)

	app.Status = dto.Status
	return app, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete application", "application_id", id, "error", err)
		return appErrors.NewInternalError("Failed to delete application", err)
	}
	s.logger.Info("application deleted", "application_id", id)
	return nil
}
