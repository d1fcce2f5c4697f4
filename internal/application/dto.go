package application

import (
	"time"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
)

type Filter struct {
	Status    string
	StateID   int64
	ServiceID int64
	UserID    int64
}

func (f Filter) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(StatusPending, StatusSubmitted, StatusInProgress, StatusCompleted, StatusRejected)
	return v.Validate()
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("status", dto.Status).Required().OneOf(StatusPending, StatusSubmitted, StatusInProgress, StatusCompleted, StatusRejected)
	return v.Validate()
}

type ApplicationResponse struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	ServiceID int64     `json:"service_id"`
	StateID   int64     `json:"state_id"`
	FullName  string    `json:"full_name"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email"`
	RTIQuery  *string   `json:"rti_query,omitempty"`
	Address   string    `json:"address"`
	Pincode   string    `json:"pincode"`
	PaymentID *string   `json:"payment_id,omitempty"`
	OrderID   *string   `json:"order_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Application) ToResponse() ApplicationResponse {
	return ApplicationResponse{
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

func ToResponses(apps []*Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ToResponse())
	}
	return out
}
