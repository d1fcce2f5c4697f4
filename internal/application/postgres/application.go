package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/rti-filing/internal/application"
	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

var _ application.RepositoryAPI = (*ApplicationRepository)(nil)

func (r *ApplicationRepository) Create(ctx context.Context, app *applicationDatamodel.Application) error {
	if app.Status == "" {
		app.Status = applicationDatamodel.StatusPending
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id int64) (*applicationDatamodel.Application, error) {
	var app applicationDatamodel.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*applicationDatamodel.Application, error) {
	var app applicationDatamodel.Application
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) FindAll(ctx context.Context, filter application.Filter, page pagination.Params) ([]*applicationDatamodel.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&applicationDatamodel.Application{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StateID > 0 {
		q = q.Where("state_id = ?", filter.StateID)
	}
	if filter.ServiceID > 0 {
		q = q.Where("service_id = ?", filter.ServiceID)
	}
	if filter.UserID > 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []*applicationDatamodel.Application
	err := q.Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&apps).Error
	return apps, total, err
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&applicationDatamodel.Application{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&applicationDatamodel.Application{}, id).Error
}
