package recovery

import (
	"context"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
	recoveryDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/recovery"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/observability"
)

type RepositoryAPI interface {
	Create(ctx context.Context, rec *recoveryDatamodel.PaymentRecovery) error
	FindByID(ctx context.Context, id int64) (*recoveryDatamodel.PaymentRecovery, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*recoveryDatamodel.PaymentRecovery, error)
	FindAll(ctx context.Context, filter Filter, page pagination.Params) ([]*recoveryDatamodel.PaymentRecovery, int64, error)
	// MarkProcessed and MarkFailed only touch rows that are not yet processed.
	// They report whether a row changed.
	MarkProcessed(ctx context.Context, id, applicationID int64, note *string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, note *string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// ApplicationStore is the slice of the application repository reconciliation needs.
type ApplicationStore interface {
	Create(ctx context.Context, app *applicationDatamodel.Application) error
	FindByID(ctx context.Context, id int64) (*applicationDatamodel.Application, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*applicationDatamodel.Application, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	apps      ApplicationStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, apps ApplicationStore, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		apps:      apps,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, filter Filter, page pagination.Params) ([]*Recovery, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list payment recoveries", "error", err)
		return nil, 0, appErrors.NewInternalError("Failed to list payment recoveries", err)
	}

	if pending, err := s.repo.CountByStatus(ctx, StatusPending); err == nil {
		observability.PendingRecoveries.Set(float64(pending))
	}

	recs := make([]*Recovery, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, FromDataModel(row))
	}
	return recs, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Recovery, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get payment recovery", "recovery_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to get payment recovery", err)
	}
	if row == nil {
		return nil, appErrors.ErrRecoveryNotFound
	}
	return FromDataModel(row), nil
}

// MarkProcessed links the recovery to an application created by an operator.
// Marking an already processed record again changes nothing.
func (s *Service) MarkProcessed(ctx context.Context, id int64, dto ProcessDTO) (*Recovery, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsProcessed() {
		s.logger.Info("payment recovery already processed", "recovery_id", id)
		return rec, nil
	}

	app, err := s.apps.FindByID(ctx, dto.ApplicationID)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to load application", err)
	}
	if app == nil {
		return nil, appErrors.ErrApplicationNotFound
	}

	return s.markProcessed(ctx, rec, dto.ApplicationID, optionalNote(dto.Note))
}

func (s *Service) MarkFailed(ctx context.Context, id int64, dto FailDTO) (*Recovery, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsProcessed() {
		return nil, appErrors.NewConflictError("Payment recovery is already processed", appErrors.ErrCodeRecoveryClosed)
	}

	now := s.now()
	changed, err := s.repo.MarkFailed(ctx, id, optionalNote(dto.Note), now)
	if err != nil {
		s.logger.Error("failed to mark payment recovery failed", "recovery_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update payment recovery", err)
	}
	if !changed {
		// processed concurrently
		return nil, appErrors.NewConflictError("Payment recovery is already processed", appErrors.ErrCodeRecoveryClosed)
	}

	s.logger.Warn("payment recovery marked failed",
		"recovery_id", id,
		"payment_id", rec.PaymentID,
		"order_id", rec.OrderID)

	rec.Status = StatusFailed
	rec.ResolutionNote = optionalNote(dto.Note)
	rec.ResolvedAt = &now
	return rec, nil
}

// Reconcile creates the application from the stored submission and closes
// the recovery. A record that is already processed returns its application.
func (s *Service) Reconcile(ctx context.Context, id int64) (*ReconcileResponse, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsProcessed() && rec.ApplicationID != nil {
		return &ReconcileResponse{RecoveryID: rec.ID, ApplicationID: *rec.ApplicationID, Status: rec.Status}, nil
	}

	// an earlier attempt may have written the application before failing to close the record
	existing, err := s.apps.FindByPaymentID(ctx, rec.PaymentID)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to look up application", err)
	}

	var appID int64
	if existing != nil {
		appID = existing.ID
	} else {
		if rec.ServiceID == 0 || rec.StateID == 0 {
			return nil, appErrors.NewValidationError(
				"Payment recovery has no resolved service or state; create the application and mark the recovery processed",
				appErrors.ErrCodeValidationFailed)
		}
		paymentID, orderID := rec.PaymentID, rec.OrderID
		app := &applicationDatamodel.Application{
			UserID:    rec.UserID,
			ServiceID: rec.ServiceID,
			StateID:   rec.StateID,
			FullName:  rec.FullName,
			Mobile:    rec.Mobile,
			Email:     rec.Email,
			RTIQuery:  rec.RTIQuery,
			Address:   rec.Address,
			Pincode:   rec.Pincode,
			PaymentID: &paymentID,
			OrderID:   &orderID,
			Status:    applicationDatamodel.StatusPending,
		}
		if err := s.apps.Create(ctx, app); err != nil {
			s.logger.Error("reconcile: failed to create application",
				"recovery_id", id,
				"payment_id", rec.PaymentID,
				"error", err)
			return nil, appErrors.NewInternalError("Failed to create application from recovery", err)
		}
		appID = app.ID
	}

	note := optionalNote("reconciled automatically")
	if _, err := s.markProcessed(ctx, rec, appID, note); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewRecoveryReconciledEvent(rec.ID, appID, rec.PaymentID)); err != nil {
			s.logger.Warn("failed to publish event",
				"event_type", events.EventTypeRecoveryReconciled,
				"recovery_id", rec.ID,
				"error", err)
		}
	}

	return &ReconcileResponse{RecoveryID: rec.ID, ApplicationID: appID, Status: StatusProcessed}, nil
}

func (s *Service) markProcessed(ctx context.Context, rec *Recovery, applicationID int64, note *string) (*Recovery, error) {
	now := s.now()
	changed, err := s.repo.MarkProcessed(ctx, rec.ID, applicationID, note, now)
	if err != nil {
		s.logger.Error("failed to mark payment recovery processed", "recovery_id", rec.ID, "error", err)
		return nil, appErrors.NewInternalError("Failed to update payment recovery", err)
	}
	if !changed {
		// lost a race with another operator; report the stored outcome
		return s.Get(ctx, rec.ID)
	}

	s.logger.Info("payment recovery processed",
		"recovery_id", rec.ID,
		"application_id", applicationID,
		"payment_id", rec.PaymentID)

	rec.Status = StatusProcessed
	rec.ApplicationID = &applicationID
	rec.ResolutionNote = note
	rec.ResolvedAt = &now
	return rec, nil
}

func optionalNote(note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return &note
}
