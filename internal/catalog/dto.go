package catalog

import (
	"regexp"

	"github.com/shopspring/decimal"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type ServiceResponse struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Features      []string         `json:"features"`
	Icon          *string          `json:"icon,omitempty"`
	IsActive      bool             `json:"is_active"`
}

type ServicesResponse struct {
	Services []ServiceResponse `json:"services"`
}

type StateResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	PortalURL   *string `json:"portal_url,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type StatesResponse struct {
	States []StateResponse `json:"states"`
}

func (s *FilingService) ToResponse() ServiceResponse {
	features := s.Features
	if features == nil {
		features = []string{}
	}
	return ServiceResponse{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		Description:   s.Description,
		Price:         s.Price,
		OriginalPrice: s.OriginalPrice,
		Features:      features,
		Icon:          s.Icon,
		IsActive:      s.IsActive,
	}
}

func (s *State) ToResponse() StateResponse {
	return StateResponse{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		PortalURL:   s.PortalURL,
		IsActive:    s.IsActive,
	}
}

type ServiceDTO struct {
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	Features      []string         `json:"features"`
	Icon          *string          `json:"icon,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

func (dto ServiceDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("slug", dto.Slug).Required().MaxLength(100).Custom(slugRule("slug"))
	v.Field("price", dto.Price).Custom(func(interface{}) *appErrors.AppError {
		if dto.Price.IsNegative() {
			return appErrors.NewValidationFieldError("price", "price must not be negative", appErrors.ErrCodeInvalidAmount)
		}
		if !dto.Price.Equal(dto.Price.Round(2)) {
			return appErrors.NewValidationFieldError("price", "price must have at most two decimal places", appErrors.ErrCodeInvalidAmount)
		}
		return nil
	})
	if dto.OriginalPrice != nil {
		v.Field("original_price", *dto.OriginalPrice).Custom(func(interface{}) *appErrors.AppError {
			if dto.OriginalPrice.IsNegative() {
				return appErrors.NewValidationFieldError("original_price", "original_price must not be negative", appErrors.ErrCodeInvalidAmount)
			}
			return nil
		})
	}
	return v.Validate()
}

type StateDTO struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	PortalURL   *string `json:"portal_url,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (dto StateDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("slug", dto.Slug).Required().MaxLength(100).Custom(slugRule("slug"))
	v.Field("portal_url", dto.PortalURL).MaxLength(500)
	return v.Validate()
}

func slugRule(field string) validation.ValidatorFunc {
	return func(value interface{}) *appErrors.AppError {
		s, _ := value.(string)
		if s != "" && !slugPattern.MatchString(NormalizeSlug(s)) {
			return appErrors.NewValidationFieldError(field, field+" may contain only letters, digits and hyphens", appErrors.ErrCodeValidationFailed)
		}
		return nil
	}
}
