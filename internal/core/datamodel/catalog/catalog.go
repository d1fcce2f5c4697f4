package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Service is a purchasable filing offering. A zero price marks a free lead.
type Service struct {
	ID            int64                       `gorm:"primaryKey"`
	Name          string                      `gorm:"column:name;not null"`
	Slug          string                      `gorm:"column:slug;uniqueIndex;not null"`
	Description   string                      `gorm:"column:description"`
	Price         decimal.Decimal             `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice decimal.NullDecimal         `gorm:"column:original_price;type:numeric(10,2)"`
	Features      datatypes.JSONSlice[string] `gorm:"column:features"`
	Icon          *string                     `gorm:"column:icon"`
	IsActive      bool                        `gorm:"column:is_active;default:true"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Service) TableName() string {
	return "services"
}

// State is a filing jurisdiction.
type State struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	PortalURL   *string   `gorm:"column:portal_url"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (State) TableName() string {
	return "states"
}
