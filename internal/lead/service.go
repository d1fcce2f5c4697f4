package lead

import (
	"context"
	"log/slog"
	"strings"
	"time"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/core/events"
)

type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	FindByID(ctx context.Context, id int64) (*Consultation, error)
	FindAll(ctx context.Context, filter Filter, page pagination.Params) ([]*Consultation, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type CallbackRepository interface {
	Create(ctx context.Context, c *CallbackRequest) error
	FindByID(ctx context.Context, id int64) (*CallbackRequest, error)
	FindAll(ctx context.Context, filter Filter, page pagination.Params) ([]*CallbackRequest, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type NewsletterRepository interface {
	Create(ctx context.Context, s *NewsletterSubscription) error
	FindByEmail(ctx context.Context, email string) (*NewsletterSubscription, error)
	FindAll(ctx context.Context, filter Filter, page pagination.Params) ([]*NewsletterSubscription, int64, error)
	SetStatus(ctx context.Context, id int64, status string, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	consultations ConsultationRepository
	callbacks     CallbackRepository
	newsletter    NewsletterRepository
	publisher     Publisher
	logger        *slog.Logger
}

func NewService(consultations ConsultationRepository, callbacks CallbackRepository, newsletter NewsletterRepository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		consultations: consultations,
		callbacks:     callbacks,
		newsletter:    newsletter,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *Service) publish(ctx context.Context, formType string, id int64, fields []events.FormField) {
	if s.publisher == nil {
		return
	}
	// fire and forget: the bus logs handler failures
	_ = s.publisher.Publish(ctx, events.NewFormSubmittedEvent(formType, id, fields))
}

func (s *Service) CreateConsultation(ctx context.Context, dto ConsultationDTO) (*Consultation, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := &Consultation{
		FullName:         strings.TrimSpace(dto.FullName),
		Email:            dto.Email,
		Mobile:           dto.Mobile,
		ConsultationType: dto.ConsultationType,
		PreferredDate:    dto.PreferredDate,
		Message:          dto.Message,
		Status:           ConsultationPending,
	}
	if err := s.consultations.Create(ctx, c); err != nil {
		s.logger.Error("failed to create consultation", "error", err)
		return nil, appErrors.NewInternalError("Failed to create consultation", err)
	}

	s.logger.Info("consultation created", "consultation_id", c.ID, "type", c.ConsultationType)
	s.publish(ctx, events.FormTypeConsultation, c.ID, dto.FormFields())
	return c, nil
}

func (s *Service) ListConsultations(ctx context.Context, filter Filter, page pagination.Params) ([]*Consultation, int64, error) {
	if err := validateFilter(filter, consultationStatuses); err != nil {
		return nil, 0, err
	}
	items, total, err := s.consultations.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list consultations", "error", err)
		return nil, 0, appErrors.NewInternalError("Failed to list consultations", err)
	}
	return items, total, nil
}

func (s *Service) GetConsultation(ctx context.Context, id int64) (*Consultation, error) {
	c, err := s.consultations.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to get consultation", err)
	}
	if c == nil {
		return nil, appErrors.ErrLeadNotFound
	}
	return c, nil
}

func (s *Service) UpdateConsultationStatus(ctx context.Context, id int64, status string) (*Consultation, error) {
	if err := validateStatus(status, consultationStatuses); err != nil {
		return nil, err
	}
	c, err := s.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.consultations.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("failed to update consultation", "consultation_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update consultation", err)
	}
	c.Status = status
	return c, nil
}

func (s *Service) DeleteConsultation(ctx context.Context, id int64) error {
	if _, err := s.GetConsultation(ctx, id); err != nil {
		return err
	}
	if err := s.consultations.Delete(ctx, id); err != nil {
		return appErrors.NewInternalError("Failed to delete consultation", err)
	}
	return nil
}

func (s *Service) CreateCallback(ctx context.Context, dto CallbackDTO) (*CallbackRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := &CallbackRequest{
		FullName:      strings.TrimSpace(dto.FullName),
		Mobile:        dto.Mobile,
		PreferredTime: dto.PreferredTime,
		Message:       dto.Message,
		Status:        CallbackPending,
	}
	if err := s.callbacks.Create(ctx, c); err != nil {
		s.logger.Error("failed to create callback request", "error", err)
		return nil, appErrors.NewInternalError("Failed to create callback request", err)
	}

	s.logger.Info("callback request created", "callback_id", c.ID)
	s.publish(ctx, events.FormTypeCallbackRequest, c.ID, dto.FormFields())
	return c, nil
}

func (s *Service) ListCallbacks(ctx context.Context, filter Filter, page pagination.Params) ([]*CallbackRequest, int64, error) {
	if err := validateFilter(filter, callbackStatuses); err != nil {
		return nil, 0, err
	}
	items, total, err := s.callbacks.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list callback requests", "error", err)
		return nil, 0, appErrors.NewInternalError("Failed to list callback requests", err)
	}
	return items, total, nil
}

func (s *Service) GetCallback(ctx context.Context, id int64) (*CallbackRequest, error) {
	c, err := s.callbacks.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to get callback request", err)
	}
	if c == nil {
		return nil, appErrors.ErrLeadNotFound
	}
	return c, nil
}

func (s *Service) UpdateCallbackStatus(ctx context.Context, id int64, status string) (*CallbackRequest, error) {
	if err := validateStatus(status, callbackStatuses); err != nil {
		return nil, err
	}
	c, err := s.GetCallback(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.callbacks.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("failed to update callback request", "callback_id", id, "error", err)
		return nil, appErrors.NewInternalError("Failed to update callback request", err)
	}
	c.Status = status
	return c, nil
}

func (s *Service) DeleteCallback(ctx context.Context, id int64) error {
	if _, err := s.GetCallback(ctx, id); err != nil {
		return err
	}
	if err := s.callbacks.Delete(ctx, id); err != nil {
		return appErrors.NewInternalError("Failed to delete callback request", err)
	}
	return nil
}

// Subscribe is idempotent for active subscribers and reactivates unsubscribed ones.
func (s *Service) Subscribe(ctx context.Context, dto NewsletterDTO) (*NewsletterSubscription, error) {
	dto = dto.Normalized()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.newsletter.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, appErrors.NewInternalError("Failed to check subscription", err)
	}

	now := time.Now()
	switch {
	case existing != nil && existing.Status == NewsletterActive:
		return existing, nil
	case existing != nil:
		if err := s.newsletter.SetStatus(ctx, existing.ID, NewsletterActive, now); err != nil {
			return nil, appErrors.NewInternalError("Failed to resubscribe", err)
		}
		existing.Status = NewsletterActive
		existing.SubscribedAt = now
		existing.UnsubscribedAt = nil
		s.logger.Info("newsletter subscription reactivated", "subscription_id", existing.ID)
		return existing, nil
	}

	sub := &NewsletterSubscription{
		Email:        dto.Email,
		Status:       NewsletterActive,
		SubscribedAt: now,
	}
	if err := s.newsletter.Create(ctx, sub); err != nil {
		s.logger.Error("failed to create subscription", "error", err)
		return nil, appErrors.NewInternalError("Failed to subscribe", err)
	}

	s.logger.Info("newsletter subscription created", "subscription_id", sub.ID)
	s.publish(ctx, events.FormTypeNewsletter, sub.ID, []events.FormField{{Label: "Email", Value: sub.Email}})
	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, dto NewsletterDTO) error {
	dto = dto.Normalized()
	if err := dto.Validate(); err != nil {
		return err
	}

	existing, err := s.newsletter.FindByEmail(ctx, dto.Email)
	if err != nil {
		return appErrors.NewInternalError("Failed to check subscription", err)
	}
	if existing == nil {
		return appErrors.ErrLeadNotFound
	}
	if existing.Status == NewsletterUnsubscribed {
		return nil
	}
	if err := s.newsletter.SetStatus(ctx, existing.ID, NewsletterUnsubscribed, time.Now()); err != nil {
		return appErrors.NewInternalError("Failed to unsubscribe", err)
	}
	s.logger.Info("newsletter subscription cancelled", "subscription_id", existing.ID)
	return nil
}

func (s *Service) ListSubscriptions(ctx context.Context, filter Filter, page pagination.Params) ([]*NewsletterSubscription, int64, error) {
	if err := validateFilter(filter, newsletterStatuses); err != nil {
		return nil, 0, err
	}
	items, total, err := s.newsletter.FindAll(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list subscriptions", "error", err)
		return nil, 0, appErrors.NewInternalError("Failed to list subscriptions", err)
	}
	return items, total, nil
}
