package recovery

import (
	"encoding/json"
	"time"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/common/validation"
)

type Filter struct {
	Status string
}

func (f Filter) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("status", f.Status).OneOf(StatusPending, StatusProcessed, StatusFailed)
	return v.Validate()
}

type ProcessDTO struct {
	ApplicationID int64  `json:"application_id"`
	Note          string `json:"note"`
}

func (dto ProcessDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("application_id", dto.ApplicationID).Required().MinInt(1, appErrors.ErrCodeInvalidID)
	v.Field("note", dto.Note).MaxLength(2000)
	return v.Validate()
}

type FailDTO struct {
	Note string `json:"note"`
}

func (dto FailDTO) Validate() *appErrors.AppError {
	v := validation.NewValidator()
	v.Field("note", dto.Note).MaxLength(2000)
	return v.Validate()
}

type RecoveryResponse struct {
	ID             int64           `json:"id"`
	PaymentID      string          `json:"payment_id"`
	OrderID        string          `json:"order_id"`
	ServiceID      int64           `json:"service_id"`
	StateID        int64           `json:"state_id"`
	FullName       string          `json:"full_name"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email"`
	RTIQuery       *string         `json:"rti_query,omitempty"`
	Address        string          `json:"address"`
	Pincode        string          `json:"pincode"`
	ErrorMessage   string          `json:"error_message"`
	RequestBody    json.RawMessage `json:"request_body,omitempty"`
	Status         string          `json:"status"`
	ApplicationID  *int64          `json:"application_id,omitempty"`
	ResolutionNote *string         `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (r *Recovery) ToResponse() RecoveryResponse {
	resp := RecoveryResponse{
		ID:             r.ID,
		PaymentID:      r.PaymentID,
		OrderID:        r.OrderID,
		ServiceID:      r.ServiceID,
		StateID:        r.StateID,
		FullName:       r.FullName,
		Mobile:         r.Mobile,
		Email:          r.Email,
		RTIQuery:       r.RTIQuery,
		Address:        r.Address,
		Pincode:        r.Pincode,
		ErrorMessage:   r.ErrorMessage,
		Status:         r.Status,
		ApplicationID:  r.ApplicationID,
		ResolutionNote: r.ResolutionNote,
		ResolvedAt:     r.ResolvedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if json.Valid(r.RequestBody) {
		resp.RequestBody = r.RequestBody
	}
	return resp
}

type ReconcileResponse struct {
	RecoveryID    int64  `json:"recovery_id"`
	ApplicationID int64  `json:"application_id"`
	Status        string `json:"status"`
}
