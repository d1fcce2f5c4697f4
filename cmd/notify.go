package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/core/events"
	"github.com/frahmantamala/rti-filing/internal/notification"
)

// notifications is the delivery side of the event bus: one WhatsApp session
// per process and a worker pool that feeds both channels.
type notifications struct {
	session    *notification.WhatsAppSession
	dispatcher *notification.Dispatcher
	logger     *slog.Logger
}

func startNotifications(ctx context.Context, cfg *internal.Config, log *slog.Logger, bus *events.EventBus) *notifications {
	session := notification.NewWhatsAppSession(cfg.Notification.WhatsApp, log)
	go func() {
		if err := session.Init(ctx); err != nil && !errors.Is(err, notification.ErrSessionDisabled) {
			log.Warn("whatsapp session will retry on first send", "error", err)
		}
	}()

	notifier := notification.NewComposite(
		notification.NewEmailNotifier(cfg.Notification.Email, log),
		notification.NewWhatsAppNotifier(session),
		log,
	)
	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{
		Workers:   cfg.Notification.Workers,
		QueueSize: cfg.Notification.QueueSize,
	}, notifier, log)
	notification.NewEventHandler(dispatcher, log).Register(bus)

	return &notifications{session: session, dispatcher: dispatcher, logger: log}
}

func (n *notifications) state() string {
	return string(n.session.State())
}

// shutdown drains queued jobs before closing the session they may still use.
func (n *notifications) shutdown(ctx context.Context) {
	if err := n.dispatcher.Shutdown(ctx); err != nil {
		n.logger.Error("notification dispatcher shutdown error", "error", err)
	}
	if err := n.session.Shutdown(ctx); err != nil {
		n.logger.Error("whatsapp session shutdown error", "error", err)
	}
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification channel tools",
}

var notifyFormType string

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample form submission through every configured channel",
	Long: `Publish a sample form.submitted event on a local bus and deliver it through
the same email and WhatsApp path the server uses. Useful to check SMTP and
WhatsApp credentials without submitting a real form.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		switch notifyFormType {
		case events.FormTypeRTIApplication, events.FormTypeConsultation,
			events.FormTypeCallbackRequest, events.FormTypeNewsletter:
		default:
			return fmt.Errorf("unknown form type %q", notifyFormType)
		}

		ctx := cmd.Context()
		bus := events.NewEventBus(log)
		n := startNotifications(ctx, cfg, log, bus)

		log.Info("publishing sample submission", "form_type", notifyFormType, "whatsapp", n.state())

		event := events.NewFormSubmittedEvent(notifyFormType, 0, []events.FormField{
			{Label: "Full Name", Value: "Test Submission"},
			{Label: "Email", Value: cfg.Notification.Email.To},
			{Label: "Note", Value: "Sent by rti notify test"},
		})
		if err := bus.Publish(ctx, event); err != nil {
			return err
		}
		// the whatsapp send waits up to ready_timeout for the session
		bus.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n.shutdown(shutdownCtx)
		return nil
	},
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyFormType, "form-type", events.FormTypeConsultation, "form type to simulate")
	notifyCmd.AddCommand(notifyTestCmd)
}
