package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	recoveryDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/recovery"
	"github.com/frahmantamala/rti-filing/internal/recovery"
)

type RecoveryRepository struct {
	db *gorm.DB
}

func NewRecoveryRepository(db *gorm.DB) *RecoveryRepository {
	return &RecoveryRepository{db: db}
}

var _ recovery.RepositoryAPI = (*RecoveryRepository)(nil)

func (r *RecoveryRepository) Create(ctx context.Context, rec *recoveryDatamodel.PaymentRecovery) error {
	if rec.Status == "" {
		rec.Status = recoveryDatamodel.StatusPending
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecoveryRepository) FindByID(ctx context.Context, id int64) (*recoveryDatamodel.PaymentRecovery, error) {
	var rec recoveryDatamodel.PaymentRecovery
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecoveryRepository) FindByPaymentID(ctx context.Context, paymentID string) (*recoveryDatamodel.PaymentRecovery, error) {
	var rec recoveryDatamodel.PaymentRecovery
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *RecoveryRepository) FindAll(ctx context.Context, filter recovery.Filter, page pagination.Params) ([]*recoveryDatamodel.PaymentRecovery, int64, error) {
	q := r.db.WithContext(ctx).Model(&recoveryDatamodel.PaymentRecovery{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []*recoveryDatamodel.PaymentRecovery
	err := q.Order("created_at DESC, id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&recs).Error
	return recs, total, err
}

func (r *RecoveryRepository) MarkProcessed(ctx context.Context, id, applicationID int64, note *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&recoveryDatamodel.PaymentRecovery{}).
		Where("id = ? AND status <> ?", id, recoveryDatamodel.StatusProcessed).
		Updates(map[string]interface{}{
			"status":          recoveryDatamodel.StatusProcessed,
			"application_id":  applicationID,
			"resolution_note": note,
			"resolved_at":     at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *RecoveryRepository) MarkFailed(ctx context.Context, id int64, note *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&recoveryDatamodel.PaymentRecovery{}).
		Where("id = ? AND status <> ?", id, recoveryDatamodel.StatusProcessed).
		Updates(map[string]interface{}{
			"status":          recoveryDatamodel.StatusFailed,
			"resolution_note": note,
			"resolved_at":     at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *RecoveryRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&recoveryDatamodel.PaymentRecovery{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}
