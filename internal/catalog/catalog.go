package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	catalogDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/catalog"
)

// FilingService is a purchasable RTI offering.
type FilingService struct {
	ID            int64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Features      []string
	Icon          *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFree reports whether the service can be filed without payment.
func (s *FilingService) IsFree() bool {
	return s.Price.IsZero()
}

// PriceMinorUnits converts the rupee price to paise.
func (s *FilingService) PriceMinorUnits() int64 {
	return s.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type State struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	PortalURL   *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func ServiceToDataModel(s *FilingService) *catalogDatamodel.Service {
	m := &catalogDatamodel.Service{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Price:       s.Price,
		Features:    s.Features,
		Icon:        s.Icon,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.OriginalPrice != nil {
		m.OriginalPrice = decimal.NewNullDecimal(*s.OriginalPrice)
	}
	return m
}

func ServiceFromDataModel(m *catalogDatamodel.Service) *FilingService {
	s := &FilingService{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Price:       m.Price,
		Features:    []string(m.Features),
		Icon:        m.Icon,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.OriginalPrice.Valid {
		p := m.OriginalPrice.Decimal
		s.OriginalPrice = &p
	}
	return s
}

func StateToDataModel(s *State) *catalogDatamodel.State {
	return &catalogDatamodel.State{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		PortalURL:   s.PortalURL,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func StateFromDataModel(m *catalogDatamodel.State) *State {
	return &State{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		PortalURL:   m.PortalURL,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
