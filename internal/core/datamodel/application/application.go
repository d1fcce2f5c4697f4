package application

import "time"

const (
	StatusPending    = "pending"
	StatusSubmitted  = "submitted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)

type Application struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    *int64    `gorm:"column:user_id;index"`
	ServiceID int64     `gorm:"column:service_id;not null;index"`
	StateID   int64     `gorm:"column:state_id;not null;index"`
	FullName  string    `gorm:"column:full_name;not null"`
	Mobile    string    `gorm:"column:mobile;not null"`
	Email     string    `gorm:"column:email;not null"`
	RTIQuery  *string   `gorm:"column:rti_query;type:text"`
	Address   string    `gorm:"column:address;not null"`
	Pincode   string    `gorm:"column:pincode;not null"`
	PaymentID *string   `gorm:"column:payment_id;uniqueIndex"`
	OrderID   *string   `gorm:"column:order_id"`
	Status    string    `gorm:"column:status;not null;default:pending;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Application) TableName() string {
	return "rti_applications"
}
