package recovery

import (
	"time"

	recoveryDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/recovery"
)

const (
	StatusPending   = recoveryDatamodel.StatusPending
	StatusProcessed = recoveryDatamodel.StatusProcessed
	StatusFailed    = recoveryDatamodel.StatusFailed
)

// Recovery is a verified payment whose application could not be written.
// It moves pending -> processed | failed, and failed -> processed.
type Recovery struct {
	ID             int64
	PaymentID      string
	OrderID        string
	ServiceID      int64
	StateID        int64
	UserID         *int64
	FullName       string
	Mobile         string
	Email          string
	RTIQuery       *string
	Address        string
	Pincode        string
	ErrorMessage   string
	RequestBody    []byte
	Status         string
	ApplicationID  *int64
	ResolutionNote *string
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r *Recovery) IsProcessed() bool {
	return r.Status == StatusProcessed
}

func FromDataModel(m *recoveryDatamodel.PaymentRecovery) *Recovery {
	return &Recovery{
		ID:             m.ID,
		PaymentID:      m.PaymentID,
		OrderID:        m.OrderID,
		ServiceID:      m.ServiceID,
		StateID:        m.StateID,
		UserID:         m.UserID,
		FullName:       m.FullName,
		Mobile:         m.Mobile,
		Email:          m.Email,
		RTIQuery:       m.RTIQuery,
		Address:        m.Address,
		Pincode:        m.Pincode,
		ErrorMessage:   m.ErrorMessage,
		RequestBody:    []byte(m.RequestBody),
		Status:         m.Status,
		ApplicationID:  m.ApplicationID,
		ResolutionNote: m.ResolutionNote,
		ResolvedAt:     m.ResolvedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
