package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeFormSubmitted      = "form.submitted"
	EventTypeRecoveryRecorded   = "payment.recovery_recorded"
	EventTypeRecoveryReconciled = "payment.recovery_reconciled"
)

const (
	FormTypeRTIApplication  = "rti application"
	FormTypeConsultation    = "consultation"
	FormTypeCallbackRequest = "callback request"
	FormTypeNewsletter      = "newsletter subscription"
)

// FormField is one labelled value of a submitted form, kept in display order.
type FormField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type FormSubmittedEvent struct {
	BaseEvent
	FormType    string      `json:"form_type"`
	ReferenceID int64       `json:"reference_id"`
	Fields      []FormField `json:"fields"`
}

func NewFormSubmittedEvent(formType string, referenceID int64, fields []FormField) *FormSubmittedEvent {
	return &FormSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFormSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"form_type":    formType,
				"reference_id": referenceID,
			},
		},
		FormType:    formType,
		ReferenceID: referenceID,
		Fields:      fields,
	}
}

type RecoveryRecordedEvent struct {
	BaseEvent
	RecoveryID   int64  `json:"recovery_id"`
	PaymentID    string `json:"payment_id"`
	OrderID      string `json:"order_id"`
	ErrorMessage string `json:"error_message"`
}

func NewRecoveryRecordedEvent(recoveryID int64, paymentID, orderID, errorMessage string) *RecoveryRecordedEvent {
	return &RecoveryRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecoveryRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"recovery_id":   recoveryID,
				"payment_id":    paymentID,
				"order_id":      orderID,
				"error_message": errorMessage,
			},
		},
		RecoveryID:   recoveryID,
		PaymentID:    paymentID,
		OrderID:      orderID,
		ErrorMessage: errorMessage,
	}
}

type RecoveryReconciledEvent struct {
	BaseEvent
	RecoveryID    int64  `json:"recovery_id"`
	ApplicationID int64  `json:"application_id"`
	PaymentID     string `json:"payment_id"`
}

func NewRecoveryReconciledEvent(recoveryID, applicationID int64, paymentID string) *RecoveryReconciledEvent {
	return &RecoveryReconciledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecoveryReconciled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"recovery_id":    recoveryID,
				"application_id": applicationID,
				"payment_id":     paymentID,
			},
		},
		RecoveryID:    recoveryID,
		ApplicationID: applicationID,
		PaymentID:     paymentID,
	}
}
