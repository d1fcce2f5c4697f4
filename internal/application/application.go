package application

import (
	"time"

	applicationDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/application"
)

const (
	StatusPending    = applicationDatamodel.StatusPending
	StatusSubmitted  = applicationDatamodel.StatusSubmitted
	StatusInProgress = applicationDatamodel.StatusInProgress
	StatusCompleted  = applicationDatamodel.StatusCompleted
	StatusRejected   = applicationDatamodel.StatusRejected
)

var transitions = map[string][]string{
	StatusPending:    {StatusSubmitted, StatusInProgress, StatusRejected},
	StatusSubmitted:  {StatusInProgress, StatusCompleted, StatusRejected},
	StatusInProgress: {StatusCompleted, StatusRejected},
	StatusCompleted:  {},
	StatusRejected:   {},
}

func IsValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether an application may move from one status to
// another. Re-applying the current status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return IsValidStatus(to)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Application struct {
	ID        int64
	UserID    *int64
	ServiceID int64
	StateID   int64
	FullName  string
	Mobile    string
	Email     string
	RTIQuery  *string
	Address   string
	Pincode   string
	PaymentID *string
	OrderID   *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Application) IsPaid() bool {
	return a.PaymentID != nil && *a.PaymentID != ""
}

func ToDataModel(a *Application) *applicationDatamodel.Application {
	return &applicationDatamodel.Application{
		ID:        a.ID,
		UserID:    a.UserID,
		ServiceID: a.ServiceID,
		StateID:   a.StateID,
		FullName:  a.FullName,
		Mobile:    a.Mobile,
		Email:     a.Email,
		RTIQuery:  a.RTIQuery,
		Address:   a.Address,
		Pincode:   a.Pincode,
		PaymentID: a.PaymentID,
		OrderID:   a.OrderID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func FromDataModel(m *applicationDatamodel.Application) *Application {
	return &Application{
		ID:        m.ID,
		UserID:    m.UserID,
		ServiceID: m.ServiceID,
		StateID:   m.StateID,
		FullName:  m.FullName,
		Mobile:    m.Mobile,
		Email:     m.Email,
		RTIQuery:  m.RTIQuery,
		Address:   m.Address,
		Pincode:   m.Pincode,
		PaymentID: m.PaymentID,
		OrderID:   m.OrderID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
