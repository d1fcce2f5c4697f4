package recovery

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// PaymentRecovery records a verified payment whose application row could not be written.
type PaymentRecovery struct {
	ID             int64          `gorm:"primaryKey"`
	PaymentID      string         `gorm:"column:payment_id;not null;uniqueIndex"`
	OrderID        string         `gorm:"column:order_id;not null"`
	ServiceID      int64          `gorm:"column:service_id;not null"`
	StateID        int64          `gorm:"column:state_id;not null"`
	UserID         *int64         `gorm:"column:user_id"`
	FullName       string         `gorm:"column:full_name;not null"`
	Mobile         string         `gorm:"column:mobile;not null"`
	Email          string         `gorm:"column:email;not null"`
	RTIQuery       *string        `gorm:"column:rti_query;type:text"`
	Address        string         `gorm:"column:address;not null"`
	Pincode        string         `gorm:"column:pincode;not null"`
	ErrorMessage   string         `gorm:"column:error_message;type:text;not null"`
	RequestBody    datatypes.JSON `gorm:"column:request_body"`
	Status         string         `gorm:"column:status;not null;default:pending;index"`
	ApplicationID  *int64         `gorm:"column:application_id"`
	ResolutionNote *string        `gorm:"column:resolution_note;type:text"`
	ResolvedAt     *time.Time     `gorm:"column:resolved_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentRecovery) TableName() string {
	return "payment_recoveries"
}
