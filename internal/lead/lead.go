package lead

import (
	leadDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/lead"
)

// Lead records are plain rows; the datamodel types double as domain types.
type (
	Consultation           = leadDatamodel.Consultation
	CallbackRequest        = leadDatamodel.CallbackRequest
	NewsletterSubscription = leadDatamodel.NewsletterSubscription
)

const (
	ConsultationPending   = leadDatamodel.ConsultationPending
	ConsultationScheduled = leadDatamodel.ConsultationScheduled
	ConsultationCompleted = leadDatamodel.ConsultationCompleted
	ConsultationCancelled = leadDatamodel.ConsultationCancelled

	CallbackPending   = leadDatamodel.CallbackPending
	CallbackContacted = leadDatamodel.CallbackContacted
	CallbackClosed    = leadDatamodel.CallbackClosed

	NewsletterActive       = leadDatamodel.NewsletterActive
	NewsletterUnsubscribed = leadDatamodel.NewsletterUnsubscribed
)

var (
	consultationStatuses = []string{ConsultationPending, ConsultationScheduled, ConsultationCompleted, ConsultationCancelled}
	callbackStatuses     = []string{CallbackPending, CallbackContacted, CallbackClosed}
	newsletterStatuses   = []string{NewsletterActive, NewsletterUnsubscribed}
)

type Filter struct {
	Status string
}
