package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/rti-filing/internal/catalog"
	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListServices(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.Service, error) {
	var services []*catalogDatamodel.Service
	q := r.db.WithContext(ctx).Order("price ASC, name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&services).Error
	return services, err
}

func (r *CatalogRepository) GetServiceByID(ctx context.Context, id int64) (*catalogDatamodel.Service, error) {
	var svc catalogDatamodel.Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *CatalogRepository) GetServiceBySlug(ctx context.Context, slug string) (*catalogDatamodel.Service, error) {
	var svc catalogDatamodel.Service
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *CatalogRepository) CreateService(ctx context.Context, svc *catalogDatamodel.Service) error {
	// the column default would override a false IsActive on insert
	active := svc.IsActive
	if err := r.db.WithContext(ctx).Create(svc).Error; err != nil {
		return err
	}
	if !active {
		svc.IsActive = false
		return r.DeactivateService(ctx, svc.ID)
	}
	return nil
}

func (r *CatalogRepository) UpdateService(ctx context.Context, svc *catalogDatamodel.Service) error {
	return r.db.WithContext(ctx).Save(svc).Error
}

func (r *CatalogRepository) DeactivateService(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&catalogDatamodel.Service{}).Where("id = ?", id).Update("is_active", false).Error
}

func (r *CatalogRepository) ListStates(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.State, error) {
	var states []*catalogDatamodel.State
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&states).Error
	return states, err
}

func (r *CatalogRepository) GetStateByID(ctx context.Context, id int64) (*catalogDatamodel.State, error) {
	var st catalogDatamodel.State
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// GetStateBySlug matches case-insensitively.
func (r *CatalogRepository) GetStateBySlug(ctx context.Context, slug string) (*catalogDatamodel.State, error) {
	var st catalogDatamodel.State
	err := r.db.WithContext(ctx).Where("LOWER(slug) = LOWER(?)", slug).First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (r *CatalogRepository) CreateState(ctx context.Context, st *catalogDatamodel.State) error {
	// the column default would override a false IsActive on insert
	active := st.IsActive
	if err := r.db.WithContext(ctx).Create(st).Error; err != nil {
		return err
	}
	if !active {
		st.IsActive = false
		return r.DeactivateState(ctx, st.ID)
	}
	return nil
}

func (r *CatalogRepository) UpdateState(ctx context.Context, st *catalogDatamodel.State) error {
	return r.db.WithContext(ctx).Save(st).Error
}

func (r *CatalogRepository) DeactivateState(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&catalogDatamodel.State{}).Where("id = ?", id).Update("is_active", false).Error
}
