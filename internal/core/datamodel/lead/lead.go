package lead

import "time"

const (
	ConsultationPending   = "pending"
	ConsultationScheduled = "scheduled"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"

	CallbackPending   = "pending"
	CallbackContacted = "contacted"
	CallbackClosed    = "closed"

	NewsletterActive       = "active"
	NewsletterUnsubscribed = "unsubscribed"
)

type Consultation struct {
	ID               int64      `db:"id" json:"id" gorm:"primaryKey"`
	FullName         string     `db:"full_name" json:"full_name" gorm:"column:full_name;not null"`
	Email            string     `db:"email" json:"email" gorm:"column:email;not null"`
	Mobile           string     `db:"mobile" json:"mobile" gorm:"column:mobile;not null"`
	ConsultationType string     `db:"consultation_type" json:"consultation_type" gorm:"column:consultation_type;not null"`
	PreferredDate    *time.Time `db:"preferred_date" json:"preferred_date,omitempty" gorm:"column:preferred_date"`
	Message          *string    `db:"message" json:"message,omitempty" gorm:"column:message"`
	Status           string     `db:"status" json:"status" gorm:"column:status;not null"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at" gorm:"column:created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at" gorm:"column:updated_at"`
}

func (Consultation) TableName() string {
	return "consultations"
}

type CallbackRequest struct {
	ID            int64     `db:"id" json:"id" gorm:"primaryKey"`
	FullName      string    `db:"full_name" json:"full_name" gorm:"column:full_name;not null"`
	Mobile        string    `db:"mobile" json:"mobile" gorm:"column:mobile;not null"`
	PreferredTime *string   `db:"preferred_time" json:"preferred_time,omitempty" gorm:"column:preferred_time"`
	Message       *string   `db:"message" json:"message,omitempty" gorm:"column:message"`
	Status        string    `db:"status" json:"status" gorm:"column:status;not null"`
	CreatedAt     time.Time `db:"created_at" json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at" gorm:"column:updated_at"`
}

func (CallbackRequest) TableName() string {
	return "callback_requests"
}

type NewsletterSubscription struct {
	ID             int64      `db:"id" json:"id" gorm:"primaryKey"`
	Email          string     `db:"email" json:"email" gorm:"column:email;uniqueIndex;not null"`
	Status         string     `db:"status" json:"status" gorm:"column:status;not null"`
	SubscribedAt   time.Time  `db:"subscribed_at" json:"subscribed_at" gorm:"column:subscribed_at"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at" json:"unsubscribed_at,omitempty" gorm:"column:unsubscribed_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at" gorm:"column:updated_at"`
}

func (NewsletterSubscription) TableName() string {
	return "newsletter_subscriptions"
}
