package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/observability"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// FormData is what a notification says about a submitted form.
type FormData struct {
	ReferenceID int64
	Fields      []events.FormField
	SubmittedAt time.Time
}

// Notifier delivers best-effort notices about submitted forms. Both methods
// report delivery as a bool and never return an error.
type Notifier interface {
	SendFormSubmissionEmail(ctx context.Context, formType string, data FormData) bool
	SendFormSubmissionNotification(ctx context.Context, formType string, data FormData) bool
}

type EmailSender interface {
	SendFormSubmissionEmail(ctx context.Context, formType string, data FormData) bool
}

type MessageSender interface {
	SendFormSubmissionNotification(ctx context.Context, formType string, data FormData) bool
}

// Composite fans one submission out to the email and messaging channels.
type Composite struct {
	email    EmailSender
	whatsapp MessageSender
	logger   *slog.Logger
}

func NewComposite(email EmailSender, whatsapp MessageSender, logger *slog.Logger) *Composite {
	return &Composite{email: email, whatsapp: whatsapp, logger: logger}
}

var _ Notifier = (*Composite)(nil)

func (c *Composite) SendFormSubmissionEmail(ctx context.Context, formType string, data FormData) bool {
	if c.email == nil {
		return false
	}
	return c.email.SendFormSubmissionEmail(ctx, formType, data)
}

func (c *Composite) SendFormSubmissionNotification(ctx context.Context, formType string, data FormData) bool {
	if c.whatsapp == nil {
		return false
	}
	return c.whatsapp.SendFormSubmissionNotification(ctx, formType, data)
}

// Notify sends on both channels and logs the result of each.
func (c *Composite) Notify(ctx context.Context, formType string, data FormData) {
	Notify(ctx, c, c.logger, formType, data)
}

// Notify delivers one submission through every channel of n. A channel
// failure is logged and does not stop the other.
func Notify(ctx context.Context, n Notifier, logger *slog.Logger, formType string, data FormData) {
	emailSent := n.SendFormSubmissionEmail(ctx, formType, data)
	messageSent := n.SendFormSubmissionNotification(ctx, formType, data)

	logger.Info("form submission notified",
		"form_type", formType,
		"reference_id", data.ReferenceID,
		"email_sent", emailSent,
		"whatsapp_sent", messageSent)
}

func record(channel string, ok bool) {
	observability.Notifications.WithLabelValues(channel, observability.ResultLabel(ok)).Inc()
}

func recordSkipped(channel string) {
	observability.Notifications.WithLabelValues(channel, "skipped").Inc()
}

// FormTitle renders a form type for humans, "rti application" becomes "Rti Application".
func FormTitle(formType string) string {
	// casers hold state and are not safe to share between workers
	return cases.Title(language.English).String(formType)
}

func subject(formType string) string {
	return fmt.Sprintf("New %s Submission", FormTitle(formType))
}

func plainText(formType string, data FormData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s submission", FormTitle(formType))
	if data.ReferenceID > 0 {
		fmt.Fprintf(&b, " (#%d)", data.ReferenceID)
	}
	b.WriteString("\n\n")
	for _, f := range data.Fields {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	if !data.SubmittedAt.IsZero() {
		fmt.Fprintf(&b, "\nSubmitted at: %s\n", data.SubmittedAt.Format(time.RFC1123))
	}
	return b.String()
}
